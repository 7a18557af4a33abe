package dto

// ── pagination ──

// PaginationRequest common paging query parameters
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage page number with default
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize page size with default
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset row offset of the page
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// ── shared briefs ──

// LecturerBrief lecturer summary
type LecturerBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ClassroomBrief classroom summary
type ClassroomBrief struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// BatchBrief batch summary
type BatchBrief struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	StudentCount int    `json:"student_count"`
}

// ModuleBrief module summary
type ModuleBrief struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}
