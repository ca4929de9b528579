package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDueAt_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *time.Time
		wantErr bool
	}{
		{name: "date only", input: `"2026-05-01"`, want: ptr(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))},
		{name: "rfc3339 with offset", input: `"2026-05-01T10:30:00+02:00"`, want: ptr(time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC))},
		{name: "rfc3339 nano", input: `"2026-05-01T10:30:00.123Z"`, want: ptr(time.Date(2026, 5, 1, 10, 30, 0, 123000000, time.UTC))},
		{name: "datetime without zone", input: `"2026-05-01T10:30:00"`, want: ptr(time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC))},
		{name: "empty string clears", input: `""`},
		{name: "null clears", input: `null`},
		{name: "garbage", input: `"soon"`, wantErr: true},
		{name: "not a string", input: `12345`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d DueAt
			err := d.UnmarshalJSON([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, d.Ptr())
				return
			}
			require.NotNil(t, d.Ptr())
			assert.True(t, tt.want.Equal(*d.Ptr()), "got %v", d.Ptr())
		})
	}
}

func TestDueAt_PatchPresence(t *testing.T) {
	var absent, cleared TaskPatch
	require.NoError(t, json.Unmarshal([]byte(`{"title":"x"}`), &absent))
	require.NoError(t, json.Unmarshal([]byte(`{"dueDate":""}`), &cleared))

	assert.Nil(t, absent.DueDate)
	require.NotNil(t, cleared.DueDate)
	assert.Nil(t, cleared.DueDate.Ptr())
}

func TestDueAt_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(NewDueAt(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.JSONEq(t, `"2026-05-01T00:00:00Z"`, string(b))

	b, err = json.Marshal(DueAt{})
	require.NoError(t, err)
	assert.JSONEq(t, `""`, string(b))

	var nilDue *DueAt
	assert.Nil(t, nilDue.Ptr())
}

func TestTask_Overdue(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	before := now.Add(-time.Minute)
	after := now.Add(time.Minute)

	tests := []struct {
		name string
		task Task
		want bool
	}{
		{"no due date", Task{Status: StatusPending}, false},
		{"due in future", Task{Status: StatusPending, DueDate: &after}, false},
		{"past due pending", Task{Status: StatusPending, DueDate: &before}, true},
		{"past due in progress", Task{Status: StatusInProgress, DueDate: &before}, true},
		{"past due completed", Task{Status: StatusCompleted, DueDate: &before}, false},
		{"due exactly now", Task{Status: StatusPending, DueDate: &now}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Overdue(now))
		})
	}
}

func TestNewTaskStats(t *testing.T) {
	stats := NewTaskStats(3,
		map[string]int{"completed": 2, "pending": 1},
		map[string]int{"high": 3},
	)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, []CountEntry{
		{ID: "pending", Count: 1},
		{ID: "in-progress", Count: 0},
		{ID: "completed", Count: 2},
	}, stats.ByStatus)
	assert.Equal(t, []CountEntry{
		{ID: "low", Count: 0},
		{ID: "medium", Count: 0},
		{ID: "high", Count: 3},
	}, stats.ByPriority)
}

func TestTaskFilter_Key(t *testing.T) {
	status := StatusPending
	empty := ""
	work := "work"

	assert.Equal(t, "s:|p:|c", TaskFilter{}.Key())
	assert.Equal(t, "s:pending|p:|c=work", TaskFilter{Status: &status, Category: &work}.Key())
	assert.NotEqual(t, TaskFilter{}.Key(), TaskFilter{Category: &empty}.Key())
}

func TestTask_JSONFieldNames(t *testing.T) {
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	b, err := json.Marshal(Task{ID: "abc", UserID: "owner", DueDate: &due, IsOverdue: true})
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	for _, key := range []string{"_id", "userId", "dueDate", "createdAt", "updatedAt", "isOverdue"} {
		assert.Contains(t, m, key)
	}
}

func ptr[T any](v T) *T { return &v }
