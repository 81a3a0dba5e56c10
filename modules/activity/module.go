package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/example/task-manager/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/google/uuid"
)

// DefaultLimit is the number of entries kept per owner.
const DefaultLimit = 100

// Entry kinds.
const (
	KindCreated   = "task_created"
	KindUpdated   = "task_updated"
	KindCompleted = "task_completed"
	KindReopened  = "task_reopened"
	KindDeleted   = "task_deleted"
)

// Entry is one recorded task mutation.
type Entry struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	TaskID        string    `json:"taskId"`
	Title         string    `json:"title,omitempty"`
	ChangedFields []string  `json:"changedFields,omitempty"`
	At            time.Time `json:"at"`
}

// ActivityModule keeps a bounded per-owner trail of task events.
type ActivityModule struct {
	limit  int
	trails map[string][]Entry
	mu     sync.RWMutex
}

var _ mono.Module = (*ActivityModule)(nil)
var _ mono.EventConsumerModule = (*ActivityModule)(nil)
var _ mono.ServiceProviderModule = (*ActivityModule)(nil)

// NewModule creates an ActivityModule keeping at most limit entries per
// owner. A non-positive limit means DefaultLimit.
func NewModule(limit int) *ActivityModule {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &ActivityModule{
		limit:  limit,
		trails: make(map[string][]Entry),
	}
}

func (m *ActivityModule) Name() string {
	return "activity"
}

func (m *ActivityModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskCreatedV1, m.handleTaskCreated, m); err != nil {
		return fmt.Errorf("failed to register TaskCreated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskUpdatedV1, m.handleTaskUpdated, m); err != nil {
		return fmt.Errorf("failed to register TaskUpdated consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.TaskDeletedV1, m.handleTaskDeleted, m); err != nil {
		return fmt.Errorf("failed to register TaskDeleted consumer: %w", err)
	}

	log.Printf("[activity] Registered event consumers: TaskCreated, TaskUpdated, TaskDeleted")
	return nil
}

func (m *ActivityModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "recent-activity", json.Unmarshal, json.Marshal, m.recentActivity,
	); err != nil {
		return fmt.Errorf("failed to register recent-activity service: %w", err)
	}

	log.Printf("[activity] Registered services: recent-activity")
	return nil
}

func (m *ActivityModule) handleTaskCreated(_ context.Context, event events.TaskCreatedEvent, _ *mono.Msg) error {
	m.record(event.UserID, Entry{
		Kind:   KindCreated,
		TaskID: event.TaskID,
		Title:  event.Title,
		At:     event.CreatedAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskUpdated(_ context.Context, event events.TaskUpdatedEvent, _ *mono.Msg) error {
	kind := KindUpdated
	switch {
	case event.Completed():
		kind = KindCompleted
	case event.StatusBefore != event.StatusAfter:
		kind = KindReopened
	}
	m.record(event.UserID, Entry{
		Kind:          kind,
		TaskID:        event.TaskID,
		Title:         event.Title,
		ChangedFields: event.ChangedFields,
		At:            event.UpdatedAt,
	})
	return nil
}

func (m *ActivityModule) handleTaskDeleted(_ context.Context, event events.TaskDeletedEvent, _ *mono.Msg) error {
	m.record(event.UserID, Entry{
		Kind:   KindDeleted,
		TaskID: event.TaskID,
		At:     event.DeletedAt,
	})
	return nil
}

// record appends e to the owner's trail, dropping the oldest entries past
// the limit.
func (m *ActivityModule) record(ownerID string, e Entry) {
	if ownerID == "" {
		return
	}
	e.ID = uuid.NewString()
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	trail := append(m.trails[ownerID], e)
	if len(trail) > m.limit {
		trail = append([]Entry(nil), trail[len(trail)-m.limit:]...)
	}
	m.trails[ownerID] = trail
}

// Recent returns up to limit entries of the owner's trail, newest first.
// A non-positive limit returns the whole trail.
func (m *ActivityModule) Recent(ownerID string, limit int) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	trail := m.trails[ownerID]
	if limit <= 0 || limit > len(trail) {
		limit = len(trail)
	}

	result := make([]Entry, 0, limit)
	for i := len(trail) - 1; i >= 0 && len(result) < limit; i-- {
		result = append(result, trail[i])
	}
	return result
}

func (m *ActivityModule) recentActivity(_ context.Context, req RecentActivityRequest, _ *mono.Msg) (RecentActivityResponse, error) {
	return RecentActivityResponse{Entries: m.Recent(req.UserID, req.Limit)}, nil
}

func (m *ActivityModule) Start(_ context.Context) error {
	log.Printf("[activity] Module started - keeping last %d events per user", m.limit)
	return nil
}

func (m *ActivityModule) Stop(_ context.Context) error {
	log.Println("[activity] Module stopped")
	return nil
}
