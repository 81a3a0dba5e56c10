package task

import (
	"context"
	"testing"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestService(t *testing.T) (*TaskService, *MemoryRepository, *testClock) {
	t.Helper()
	repo := NewMemoryRepository()
	clock := &testClock{now: time.Date(2030, 1, 1, 8, 0, 0, 0, time.UTC)}
	return NewTaskService(domain.NewStore(repo, domain.WithClock(clock.Now))), repo, clock
}

func createTask(t *testing.T, svc *TaskService, owner, title string) *domain.Task {
	t.Helper()
	result, err := svc.Create(context.Background(), CreateTaskRequest{
		UserID:  owner,
		Title:   title,
		DueDate: "2030-02-01",
	})
	require.NoError(t, err)
	require.Empty(t, result.ValidationErrors)
	require.NotNil(t, result.Task)
	return result.Task
}

func TestTaskService_Create(t *testing.T) {
	svc, repo, _ := newTestService(t)

	result, err := svc.Create(context.Background(), CreateTaskRequest{
		UserID:      "alice",
		Title:       "  Buy milk  ",
		Description: strPtr("   "),
		DueDate:     "2030-02-01",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Task)

	assert.Equal(t, "Buy milk", result.Task.Title)
	assert.Nil(t, result.Task.Description)
	assert.Equal(t, domain.PriorityMedium, result.Task.Priority)
	assert.Equal(t, domain.StatusPending, result.Task.Status)
	assert.Equal(t, "alice", result.Task.OwnerID)
	assert.NotEmpty(t, result.Task.ID)
	assert.Equal(t, 1, repo.Count())
}

func TestTaskService_Create_KeepsGivenEnums(t *testing.T) {
	svc, _, _ := newTestService(t)

	result, err := svc.Create(context.Background(), CreateTaskRequest{
		UserID:   "alice",
		Title:    "Ship it",
		Priority: "high",
		DueDate:  "2030-02-01T10:00:00Z",
		Status:   "completed",
	})
	require.NoError(t, err)
	require.NotNil(t, result.Task)
	assert.Equal(t, domain.PriorityHigh, result.Task.Priority)
	assert.Equal(t, domain.StatusCompleted, result.Task.Status)
}

func TestTaskService_Create_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		req       CreateTaskRequest
		wantField string
	}{
		{"missing title", CreateTaskRequest{UserID: "alice", DueDate: "2030-02-01"}, "title"},
		{"blank title", CreateTaskRequest{UserID: "alice", Title: "  ", DueDate: "2030-02-01"}, "title"},
		{"missing due date", CreateTaskRequest{UserID: "alice", Title: "x"}, "dueDate"},
		{"bad due date", CreateTaskRequest{UserID: "alice", Title: "x", DueDate: "someday"}, "dueDate"},
		{"bad priority", CreateTaskRequest{UserID: "alice", Title: "x", DueDate: "2030-02-01", Priority: "asap"}, "priority"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService(t)

			result, err := svc.Create(context.Background(), tt.req)
			require.NoError(t, err, "validation failures are outcomes, not faults")
			assert.Nil(t, result.Task)
			require.NotEmpty(t, result.ValidationErrors)
			assert.Equal(t, tt.wantField, result.ValidationErrors[0].Field)
			assert.Equal(t, 0, repo.Count())
		})
	}
}

func TestTaskService_List_NewestFirst(t *testing.T) {
	svc, _, clock := newTestService(t)

	first := createTask(t, svc, "alice", "first")
	clock.Advance(time.Second)
	second := createTask(t, svc, "alice", "second")
	clock.Advance(time.Second)
	createTask(t, svc, "bob", "not alice's")
	clock.Advance(time.Second)
	third := createTask(t, svc, "alice", "third")

	resp, err := svc.List(context.Background(), ListTasksRequest{UserID: "alice"})
	require.NoError(t, err)
	require.Equal(t, 3, resp.Total)
	assert.Equal(t, []string{third.ID, second.ID, first.ID},
		[]string{resp.Tasks[0].ID, resp.Tasks[1].ID, resp.Tasks[2].ID})
}

func TestTaskService_Update(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()
	original := createTask(t, svc, "alice", "Original")

	tests := []struct {
		name  string
		patch domain.Patch
		check func(t *testing.T, got *domain.Task)
	}{
		{
			name:  "whitespace title keeps prior title",
			patch: domain.Patch{Title: strPtr("   ")},
			check: func(t *testing.T, got *domain.Task) {
				assert.Equal(t, "Original", got.Title)
			},
		},
		{
			name:  "empty title keeps prior title",
			patch: domain.Patch{Title: strPtr("")},
			check: func(t *testing.T, got *domain.Task) {
				assert.Equal(t, "Original", got.Title)
			},
		},
		{
			name:  "unparsable due date keeps prior due date",
			patch: domain.Patch{DueDate: strPtr("the day after tomorrow")},
			check: func(t *testing.T, got *domain.Task) {
				assert.True(t, original.DueDate.Equal(got.DueDate))
			},
		},
		{
			name:  "empty description stays absent",
			patch: domain.Patch{Description: strPtr("")},
			check: func(t *testing.T, got *domain.Task) {
				assert.Nil(t, got.Description)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock.Advance(time.Second)
			result, err := svc.Update(ctx, UpdateTaskRequest{
				TaskID: original.ID,
				UserID: "alice",
				Patch:  tt.patch,
			})
			require.NoError(t, err)
			require.NotNil(t, result.Task)
			assert.Empty(t, result.ValidationErrors)
			tt.check(t, result.Task)
			assert.True(t, result.Task.UpdatedAt.After(original.UpdatedAt))
		})
	}
}

func TestTaskService_Update_ForeignOwner(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	tk := createTask(t, svc, "alice", "Alice's")

	result, err := svc.Update(ctx, UpdateTaskRequest{
		TaskID: tk.ID,
		UserID: "bob",
		Patch:  domain.Patch{Title: strPtr("Bob was here")},
	})
	require.NoError(t, err)
	assert.True(t, result.NotFound)
	assert.Nil(t, result.Task)

	stored, err := repo.FindOwned(ctx, tk.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, tk, stored)
}

func TestTaskService_Update_InvalidEnum(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()
	tk := createTask(t, svc, "alice", "Stable")

	bad := domain.Status("archived")
	result, err := svc.Update(ctx, UpdateTaskRequest{
		TaskID: tk.ID,
		UserID: "alice",
		Patch:  domain.Patch{Status: &bad},
	})
	require.NoError(t, err)
	require.Len(t, result.ValidationErrors, 1)
	assert.Equal(t, "status", result.ValidationErrors[0].Field)

	stored, err := repo.FindOwned(ctx, tk.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status)
}

func TestTaskService_StatusRoundTrip(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()
	tk := createTask(t, svc, "alice", "Toggle me")

	for _, s := range []domain.Status{domain.StatusCompleted, domain.StatusPending} {
		s := s
		clock.Advance(time.Millisecond)
		result, err := svc.Update(ctx, UpdateTaskRequest{
			TaskID: tk.ID,
			UserID: "alice",
			Patch:  domain.Patch{Status: &s},
		})
		require.NoError(t, err)
		require.NotNil(t, result.Task)
		assert.Equal(t, s, result.Task.Status)
	}

	got, err := svc.Get(ctx, GetTaskRequest{TaskID: tk.ID, UserID: "alice"})
	require.NoError(t, err)
	require.NotNil(t, got.Task)

	assert.True(t, got.Task.UpdatedAt.After(tk.UpdatedAt))
	got.Task.UpdatedAt = tk.UpdatedAt
	assert.Equal(t, tk, got.Task)
}

func TestTaskService_PriorityOnlyPatch(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	before := createTask(t, svc, "alice", "Prioritize")

	for _, p := range []domain.Priority{domain.PriorityLow, domain.PriorityHigh, domain.PriorityMedium} {
		p := p
		result, err := svc.Update(ctx, UpdateTaskRequest{
			TaskID: before.ID,
			UserID: "alice",
			Patch:  domain.Patch{Priority: &p},
		})
		require.NoError(t, err)
		require.NotNil(t, result.Task)

		after := result.Task.Clone()
		assert.Equal(t, p, after.Priority)
		after.Priority = before.Priority
		after.UpdatedAt = before.UpdatedAt
		assert.Equal(t, before, after)
	}
}

func TestTaskService_Delete(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	tk := createTask(t, svc, "alice", "Short lived")

	resp, err := svc.Delete(ctx, DeleteTaskRequest{TaskID: tk.ID, UserID: "bob"})
	require.NoError(t, err)
	assert.False(t, resp.Deleted)

	resp, err = svc.Delete(ctx, DeleteTaskRequest{TaskID: tk.ID, UserID: "alice"})
	require.NoError(t, err)
	assert.True(t, resp.Deleted)

	got, err := svc.Get(ctx, GetTaskRequest{TaskID: tk.ID, UserID: "alice"})
	require.NoError(t, err)
	assert.True(t, got.NotFound)

	resp, err = svc.Delete(ctx, DeleteTaskRequest{TaskID: tk.ID, UserID: "alice"})
	require.NoError(t, err)
	assert.False(t, resp.Deleted)
}

func TestTaskResult_Unwrap(t *testing.T) {
	tk := &domain.Task{ID: "t1"}

	got, err := TaskResult{Task: tk}.unwrap()
	require.NoError(t, err)
	assert.Same(t, tk, got)

	_, err = TaskResult{NotFound: true}.unwrap()
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = TaskResult{ValidationErrors: []domain.FieldError{{Field: "title", Message: "Task title is required"}}}.unwrap()
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "title", ve.Fields[0].Field)

	_, err = TaskResult{}.unwrap()
	assert.Error(t, err)
}
