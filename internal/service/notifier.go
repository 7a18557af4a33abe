package service

import (
	"context"

	"go.uber.org/zap"
)

// RoutingKeyLectureScheduled routing key of LectureScheduledEvent
const RoutingKeyLectureScheduled = "lecture.scheduled"

// LectureScheduledEvent announcement sent after a lecture is committed
type LectureScheduledEvent struct {
	LectureID     string `json:"lecture_id"`
	BatchID       string `json:"batch_id"`
	ModuleID      string `json:"module_id"`
	Title         string `json:"title"`
	ScheduledFrom string `json:"scheduled_from"`
	ScheduledTo   string `json:"scheduled_to"`
}

// LectureNotifier side channel told about committed lectures. Failures never
// undo the commit.
type LectureNotifier interface {
	LectureScheduled(ctx context.Context, evt LectureScheduledEvent) error
}

// JSONPublisher message broker publisher, implemented by pkg/mq.Publisher
type JSONPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

type mqNotifier struct {
	pub JSONPublisher
}

// NewMQNotifier publishes events on the broker
func NewMQNotifier(pub JSONPublisher) LectureNotifier {
	return &mqNotifier{pub: pub}
}

func (n *mqNotifier) LectureScheduled(ctx context.Context, evt LectureScheduledEvent) error {
	return n.pub.PublishJSON(ctx, RoutingKeyLectureScheduled, evt)
}

type logNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier only logs events; used when no broker is configured
func NewLogNotifier(logger *zap.Logger) LectureNotifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) LectureScheduled(_ context.Context, evt LectureScheduledEvent) error {
	n.logger.Info("lecture scheduled",
		zap.String("lecture_id", evt.LectureID),
		zap.String("batch_id", evt.BatchID),
		zap.String("title", evt.Title),
		zap.String("scheduled_from", evt.ScheduledFrom),
		zap.String("scheduled_to", evt.ScheduledTo),
	)
	return nil
}
