package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

type Task struct {
	ID          string     `json:"_id"`
	Title       string     `json:"title" validate:"required,min=3,max=100"`
	Description string     `json:"description" validate:"required,min=10,max=500"`
	Status      Status     `json:"status" validate:"oneof=pending in-progress completed"`
	Priority    Priority   `json:"priority" validate:"oneof=low medium high"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Category    string     `json:"category,omitempty" validate:"max=50"`
	UserID      string     `json:"userId" validate:"required"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	IsOverdue   bool       `json:"isOverdue"`
	// Version is bumped by the store on every update and guards against lost writes.
	Version int64 `json:"-"`
}

// Overdue reports whether the task is past its due date and not yet completed.
func (t Task) Overdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	return t.DueDate.Before(now) && t.Status != StatusCompleted
}

// TaskFilter holds the optional exact-match list filters. Nil fields impose no constraint.
type TaskFilter struct {
	Status   *Status
	Priority *Priority
	Category *string
}

// Key is a stable string form of the filter, used for cache keys.
func (f TaskFilter) Key() string {
	var status, priority, category string
	if f.Status != nil {
		status = string(*f.Status)
	}
	if f.Priority != nil {
		priority = string(*f.Priority)
	}
	if f.Category != nil {
		category = "=" + *f.Category
	}
	return fmt.Sprintf("s:%s|p:%s|c%s", status, priority, category)
}

// CreateTaskInput is the client payload for a new task. Owner and timestamps are never read from it.
// Status and Priority default only when absent; an explicit empty value is invalid.
type CreateTaskInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	DueDate     *DueAt    `json:"dueDate,omitempty"`
	Category    string    `json:"category,omitempty"`
}

// TaskPatch is a partial update: nil fields are left untouched.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Status      *Status   `json:"status,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	DueDate     *DueAt    `json:"dueDate,omitempty"` // empty string clears the due date
	Category    *string   `json:"category,omitempty"`
}

// CountEntry is one aggregation bucket, keyed like the Mongo $group output.
type CountEntry struct {
	ID    string `json:"_id"`
	Count int    `json:"count"`
}

type TaskStats struct {
	Total      int          `json:"total"`
	ByStatus   []CountEntry `json:"byStatus"`
	ByPriority []CountEntry `json:"byPriority"`
}

// NewTaskStats builds zero-filled stats in enum order from raw per-value counts.
func NewTaskStats(total int, byStatus, byPriority map[string]int) TaskStats {
	stats := TaskStats{
		Total:      total,
		ByStatus:   make([]CountEntry, 0, len(Statuses)),
		ByPriority: make([]CountEntry, 0, len(Priorities)),
	}
	for _, s := range Statuses {
		stats.ByStatus = append(stats.ByStatus, CountEntry{ID: string(s), Count: byStatus[string(s)]})
	}
	for _, p := range Priorities {
		stats.ByPriority = append(stats.ByPriority, CountEntry{ID: string(p), Count: byPriority[string(p)]})
	}
	return stats
}

// DueAt parses dueDate from JSON as either date-only ("2006-01-02") or RFC3339.
// Date-only is stored as start of that day in UTC. An empty string yields a
// present-but-empty value, which a patch uses to clear the due date.
type DueAt struct{ t *time.Time }

func NewDueAt(t time.Time) *DueAt {
	return &DueAt{t: &t}
}

var dueLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

func (d *DueAt) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("dueDate: %w", err)
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		d.t = nil
		return nil
	}
	s := strings.TrimSpace(*raw)
	for _, layout := range dueLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			parsed = parsed.UTC()
			d.t = &parsed
			return nil
		}
	}
	return fmt.Errorf("dueDate: use date (YYYY-MM-DD) or RFC3339 datetime")
}

func (d DueAt) MarshalJSON() ([]byte, error) {
	if d.t == nil {
		return []byte(`""`), nil
	}
	return json.Marshal(d.t.UTC().Format(time.RFC3339Nano))
}

// Ptr returns nil when the value is empty.
func (d *DueAt) Ptr() *time.Time {
	if d == nil {
		return nil
	}
	return d.t
}
