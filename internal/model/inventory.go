package model

// Inventory tables are owned by the surrounding CRUD services; the scheduler
// only reads them (and row-locks classrooms, equipment and lecturers while
// committing a lecture).

// Batch student cohort, table batches
type Batch struct {
	BatchID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"batch_id"`
	Name         string `gorm:"type:varchar(100);not null"                     json:"name"`
	StudentCount int    `gorm:"not null;default:0"                             json:"student_count"`
	BaseModel
}

func (Batch) TableName() string { return "batches" }

// Lecturer teaching staff member, table lecturers
type Lecturer struct {
	LecturerID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"lecturer_id"`
	Name       string `gorm:"type:varchar(100);not null"                     json:"name"`
	Email      string `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	BaseModel
}

func (Lecturer) TableName() string { return "lecturers" }

// Module course module, table modules
type Module struct {
	ModuleID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"module_id"`
	Name     string `gorm:"type:varchar(150);not null"                     json:"name"`
	Code     string `gorm:"type:varchar(30)"                               json:"code,omitempty"`
	BaseModel

	// lecturers qualified to teach the module
	Lecturers []Lecturer `gorm:"many2many:module_lecturers;joinForeignKey:ModuleID;joinReferences:LecturerID" json:"lecturers,omitempty"`
}

func (Module) TableName() string { return "modules" }

// QualifiedLecturerIDs ids of the lecturers mapped to the module.
func (m *Module) QualifiedLecturerIDs() []string {
	ids := make([]string, 0, len(m.Lecturers))
	for _, l := range m.Lecturers {
		ids = append(ids, l.LecturerID)
	}
	return ids
}

// IsQualified reports whether lecturerID may teach the module.
func (m *Module) IsQualified(lecturerID string) bool {
	for _, l := range m.Lecturers {
		if l.LecturerID == lecturerID {
			return true
		}
	}
	return false
}

// Classroom exclusive room, table classrooms
type Classroom struct {
	ClassroomID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"classroom_id"`
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	Capacity    int    `gorm:"not null"                                       json:"capacity"`
	IsActive    bool   `gorm:"not null;default:true"                          json:"is_active"`
	BaseModel
}

func (Classroom) TableName() string { return "classrooms" }

// Equipment quantity-shared item, table equipment
type Equipment struct {
	EquipmentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"equipment_id"`
	Name        string `gorm:"type:varchar(100);not null"                     json:"name"`
	Quantity    int    `gorm:"not null"                                       json:"quantity"`
	BaseModel
}

func (Equipment) TableName() string { return "equipment" }
