package task

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func validTask() *Task {
	return &Task{
		ID:          "task-1",
		OwnerID:     "user-1",
		Title:       "Buy milk",
		Description: ptr("two litres"),
		Priority:    PriorityMedium,
		DueDate:     time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC),
		Status:      StatusPending,
		CreatedAt:   time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2029, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestNew_Normalizes(t *testing.T) {
	got := New(Fields{
		OwnerID:     "user-1",
		Title:       "  Buy milk  ",
		Description: ptr("   "),
		Priority:    PriorityHigh,
		DueDate:     "2030-01-02",
		Status:      StatusPending,
	})

	assert.Equal(t, "Buy milk", got.Title)
	assert.Nil(t, got.Description, "blank description must be absent, not empty")
	assert.Equal(t, time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC), got.DueDate)
	assert.NoError(t, got.Validate())
}

func TestBuild_RejectsBadInput(t *testing.T) {
	base := Fields{
		OwnerID:  "user-1",
		Title:    "Title",
		Priority: PriorityMedium,
		DueDate:  "2030-01-02",
		Status:   StatusPending,
	}

	tests := []struct {
		name      string
		mutate    func(f *Fields)
		wantField string
		wantMsg   string
	}{
		{
			name:      "empty title",
			mutate:    func(f *Fields) { f.Title = "" },
			wantField: "title",
			wantMsg:   "Task title is required",
		},
		{
			name:      "whitespace title",
			mutate:    func(f *Fields) { f.Title = "    " },
			wantField: "title",
			wantMsg:   "Task title is required",
		},
		{
			name:      "title too long",
			mutate:    func(f *Fields) { f.Title = strings.Repeat("a", MaxTitleLength+1) },
			wantField: "title",
			wantMsg:   "Title cannot exceed 200 characters",
		},
		{
			name:      "description too long",
			mutate:    func(f *Fields) { f.Description = ptr(strings.Repeat("d", MaxDescriptionLength+1)) },
			wantField: "description",
			wantMsg:   "Description cannot exceed 2000 characters",
		},
		{
			name:      "missing due date",
			mutate:    func(f *Fields) { f.DueDate = "" },
			wantField: "dueDate",
			wantMsg:   "Due date is required",
		},
		{
			name:      "invalid due date",
			mutate:    func(f *Fields) { f.DueDate = "not-a-date" },
			wantField: "dueDate",
			wantMsg:   `Cast to date failed for value "not-a-date"`,
		},
		{
			name:      "unknown priority",
			mutate:    func(f *Fields) { f.Priority = "urgent" },
			wantField: "priority",
			wantMsg:   "`urgent` is not a valid enum value for path `priority`",
		},
		{
			name:      "unknown status",
			mutate:    func(f *Fields) { f.Status = "archived" },
			wantField: "status",
			wantMsg:   "`archived` is not a valid enum value for path `status`",
		},
		{
			name:      "missing owner",
			mutate:    func(f *Fields) { f.OwnerID = "" },
			wantField: "userId",
			wantMsg:   "User ID is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base
			tt.mutate(&f)

			got, err := Build(f)
			require.Error(t, err)
			assert.Nil(t, got)

			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			require.Len(t, ve.Fields, 1)
			assert.Equal(t, tt.wantField, ve.Fields[0].Field)
			assert.Equal(t, tt.wantMsg, ve.Fields[0].Message)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestBuild_TitleAtLimit(t *testing.T) {
	title := strings.Repeat("é", MaxTitleLength)
	got, err := Build(Fields{
		OwnerID:  "user-1",
		Title:    "  " + title + "  ",
		Priority: PriorityLow,
		DueDate:  "2030-01-02T10:00:00Z",
		Status:   StatusCompleted,
	})
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
}

func TestApply(t *testing.T) {
	tests := []struct {
		name        string
		patch       Patch
		check       func(t *testing.T, before, after *Task)
		wantChanged []string
	}{
		{
			name:  "title is trimmed",
			patch: Patch{Title: ptr("  New title ")},
			check: func(t *testing.T, _, after *Task) {
				assert.Equal(t, "New title", after.Title)
			},
			wantChanged: []string{"title"},
		},
		{
			name:  "blank title is ignored",
			patch: Patch{Title: ptr("   ")},
			check: func(t *testing.T, before, after *Task) {
				assert.Equal(t, before.Title, after.Title)
			},
		},
		{
			name:  "empty title is ignored",
			patch: Patch{Title: ptr("")},
			check: func(t *testing.T, before, after *Task) {
				assert.Equal(t, before.Title, after.Title)
			},
		},
		{
			name:  "blank description clears it",
			patch: Patch{Description: ptr("  ")},
			check: func(t *testing.T, _, after *Task) {
				assert.Nil(t, after.Description)
			},
			wantChanged: []string{"description"},
		},
		{
			name:  "description is trimmed",
			patch: Patch{Description: ptr(" details ")},
			check: func(t *testing.T, _, after *Task) {
				require.NotNil(t, after.Description)
				assert.Equal(t, "details", *after.Description)
			},
			wantChanged: []string{"description"},
		},
		{
			name:  "unparsable due date is ignored",
			patch: Patch{DueDate: ptr("tomorrow-ish")},
			check: func(t *testing.T, before, after *Task) {
				assert.True(t, before.DueDate.Equal(after.DueDate))
			},
		},
		{
			name:  "due date is replaced",
			patch: Patch{DueDate: ptr("2031-06-15T12:30:00+02:00")},
			check: func(t *testing.T, _, after *Task) {
				assert.Equal(t, time.Date(2031, 6, 15, 10, 30, 0, 0, time.UTC), after.DueDate)
			},
			wantChanged: []string{"dueDate"},
		},
		{
			name:  "priority is replaced without checking",
			patch: Patch{Priority: ptr(Priority("urgent"))},
			check: func(t *testing.T, _, after *Task) {
				assert.Equal(t, Priority("urgent"), after.Priority)
				assert.Error(t, after.Validate())
			},
			wantChanged: []string{"priority"},
		},
		{
			name:  "same status is applied but unchanged",
			patch: Patch{Status: ptr(StatusPending)},
			check: func(t *testing.T, before, after *Task) {
				assert.Equal(t, before.Status, after.Status)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := validTask()
			after := before.Clone()

			changed := after.Apply(tt.patch)

			tt.check(t, before, after)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, before.OwnerID, after.OwnerID)
			assert.Equal(t, before.ID, after.ID)
		})
	}
}

func TestApply_PriorityOnlyLeavesOtherFields(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh} {
		before := validTask()
		after := before.Clone()

		after.Apply(Patch{Priority: ptr(p)})

		assert.Equal(t, p, after.Priority)
		after.Priority = before.Priority
		assert.Equal(t, before, after)
	}
}

func TestParseDueDate(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"2030-01-02", time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"2030-01-02T08:15", time.Date(2030, 1, 2, 8, 15, 0, 0, time.UTC), true},
		{"2030-01-02T08:15:30.123456", time.Date(2030, 1, 2, 8, 15, 30, 123000000, time.UTC), true},
		{"2030-01-02T08:15:30.000Z", time.Date(2030, 1, 2, 8, 15, 30, 0, time.UTC), true},
		{" 2030-01-02 ", time.Date(2030, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"2030-13-45", time.Time{}, false},
		{"next week", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDueDate(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.True(t, tt.want.Equal(got), "got %v, want %v", got, tt.want)
		})
	}
}

func TestValidationError_Message(t *testing.T) {
	err := (&Task{}).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task validation failed: ")
	assert.Contains(t, err.Error(), "title: Task title is required")
	assert.Contains(t, err.Error(), "dueDate: Due date is required")
}

func TestStatus_RoundTrip(t *testing.T) {
	before := validTask()
	after := before.Clone()

	after.Apply(Patch{Status: ptr(StatusCompleted)})
	assert.Equal(t, StatusCompleted, after.Status)
	after.Apply(Patch{Status: ptr(StatusPending)})

	assert.Equal(t, before, after)
}
