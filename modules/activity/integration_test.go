package activity

import (
	"context"
	"testing"
	"time"

	domain "github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/modules/task"
	"github.com/go-monolith/mono"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// probe captures both ports the way the API module does.
type probe struct {
	tasks    task.TaskPort
	activity ActivityPort
}

func (p *probe) Name() string                  { return "probe" }
func (p *probe) Dependencies() []string        { return []string{"task", "activity"} }
func (p *probe) Start(_ context.Context) error { return nil }
func (p *probe) Stop(_ context.Context) error  { return nil }

func (p *probe) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "task":
		p.tasks = task.NewTaskAdapter(container)
	case "activity":
		p.activity = NewActivityAdapter(container)
	}
}

func TestTaskEventsReachActivityTrail(t *testing.T) {
	app, err := mono.NewMonoApplication(
		mono.WithLogLevel(mono.LogLevelError), // Suppress logs in tests
	)
	require.NoError(t, err)

	p := &probe{}
	require.NoError(t, app.Register(NewModule(0)))
	require.NoError(t, app.Register(task.NewModuleWithBackend(task.NewMemoryRepository())))
	require.NoError(t, app.Register(p))

	require.NoError(t, app.Start(context.Background()))
	t.Cleanup(func() {
		_ = app.Stop(context.Background())
	})
	require.NotNil(t, p.tasks)
	require.NotNil(t, p.activity)

	ctx := context.Background()
	created, err := p.tasks.CreateTask(ctx, "alice", &task.CreateTaskRequest{
		Title:   "Water plants",
		DueDate: "2030-06-01",
	})
	require.NoError(t, err)

	completed := domain.StatusCompleted
	_, err = p.tasks.UpdateTask(ctx, "alice", created.ID, domain.Patch{Status: &completed})
	require.NoError(t, err)
	require.NoError(t, p.tasks.DeleteTask(ctx, "alice", created.ID))

	// Events are delivered asynchronously.
	var entries []Entry
	require.Eventually(t, func() bool {
		entries, err = p.activity.Recent(ctx, "alice", 0)
		return err == nil && len(entries) == 3
	}, 5*time.Second, 20*time.Millisecond)

	kinds := map[string]bool{}
	for _, e := range entries {
		assert.Equal(t, created.ID, e.TaskID)
		kinds[e.Kind] = true
	}
	assert.True(t, kinds[KindCreated])
	assert.True(t, kinds[KindCompleted])
	assert.True(t, kinds[KindDeleted])

	others, err := p.activity.Recent(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Empty(t, others)
}
