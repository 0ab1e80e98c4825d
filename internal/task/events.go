package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventType 表示任务变更的种类。
type EventType string

const (
	EventCreated EventType = "task.created"
	EventUpdated EventType = "task.updated"
	EventDeleted EventType = "task.deleted"
)

// Event 描述一次已经落库的任务变更。
type Event struct {
	ID          string    `json:"id"`
	Type        EventType `json:"type"`
	TaskID      int64     `json:"task_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OccurredAt  int64     `json:"occurred_at"`
}

// NewEvent 根据任务快照构造事件。
func NewEvent(typ EventType, task *Task) Event {
	event := Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: time.Now().Unix(),
	}
	if task != nil {
		event.TaskID = task.ID
		event.Title = task.Title
		event.Description = task.Description
	}
	return event
}

// Publisher 负责投递任务变更事件。
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher 丢弃所有事件，是未配置事件驱动时的默认实现。
type NoopPublisher struct{}

// Publish 实现 Publisher 接口。
func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// Close 实现 Publisher 接口。
func (NoopPublisher) Close() error { return nil }
