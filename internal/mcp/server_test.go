package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/Yukaii/vibers-goal/internal/task/repository"
	"github.com/Yukaii/vibers-goal/internal/task/store"
	"github.com/Yukaii/vibers-goal/internal/task/usecase"
	"github.com/Yukaii/vibers-goal/pkg/ai"
	"github.com/Yukaii/vibers-goal/pkg/logger"
	"github.com/Yukaii/vibers-goal/pkg/snapshot"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBreakdown struct{ items []string }

func (s stubBreakdown) GenerateBreakdown(context.Context, ai.BreakdownRequest) ([]string, error) {
	return s.items, nil
}

func connect(t *testing.T) (*mcp.ClientSession, usecase.TaskUsecase) {
	t.Helper()
	ctx := context.Background()
	uc := usecase.NewTaskUsecase(store.New(ctx, repository.NewSnapshotTaskRepository(snapshot.NewMemoryBackend()), logger.Nop()), logger.Nop())

	ct, st := mcp.NewInMemoryTransports()
	_, err := NewServer(uc, "test", logger.Nop()).Connect(ctx, st)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() })
	return cs, uc
}

func call[T any](t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (T, *mcp.CallToolResult) {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)

	var out T
	if !res.IsError {
		raw, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return out, res
}

func TestListToolNames(t *testing.T) {
	cs, _ := connect(t)
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"list_tasks", "add_task", "toggle_task", "delete_task", "add_subtask", "breakdown_task"}, names)
}

func TestTaskTools(t *testing.T) {
	cs, uc := connect(t)

	added, _ := call[TaskOutput](t, cs, "add_task", map[string]any{"title": "Buy milk", "priority": "high"})
	assert.Equal(t, "Buy milk", added.Task.Title)
	assert.Equal(t, "high", added.Task.Priority)
	id := added.Task.ID

	sub, _ := call[SubTaskOutput](t, cs, "add_subtask", map[string]any{"id": id, "title": "Pick 2% milk"})
	assert.Equal(t, "Pick 2% milk", sub.Title)

	list, _ := call[ListTasksOutput](t, cs, "list_tasks", map[string]any{})
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, []string{"[ ] Pick 2% milk"}, list.Tasks[0].SubTasks)

	toggled, _ := call[TaskOutput](t, cs, "toggle_task", map[string]any{"id": id})
	assert.True(t, toggled.Task.Completed)

	list, _ = call[ListTasksOutput](t, cs, "list_tasks", map[string]any{})
	assert.Empty(t, list.Tasks)
	assert.Equal(t, 1, list.Completed)
	list, _ = call[ListTasksOutput](t, cs, "list_tasks", map[string]any{"all": true, "query": "milk"})
	assert.Len(t, list.Tasks, 1)

	_, res := call[DeleteOutput](t, cs, "delete_task", map[string]any{"id": id})
	assert.False(t, res.IsError)
	assert.Empty(t, uc.ListTasks(true))

	_, res = call[TaskOutput](t, cs, "toggle_task", map[string]any{"id": id})
	assert.True(t, res.IsError)
	_, res = call[TaskOutput](t, cs, "add_task", map[string]any{"title": "  "})
	assert.True(t, res.IsError)
}

func TestBreakdownTool(t *testing.T) {
	cs, uc := connect(t)
	task, _ := uc.CreateTask("Plan trip", "", false)

	_, res := call[BreakdownOutput](t, cs, "breakdown_task", map[string]any{"id": task.ID})
	assert.True(t, res.IsError, "no AI provider configured")

	uc.SetBreakdownService(stubBreakdown{items: []string{"Book flights", "Pack"}}, nil)
	out, _ := call[BreakdownOutput](t, cs, "breakdown_task", map[string]any{"id": task.ID})
	assert.Equal(t, []string{"Book flights", "Pack"}, out.SubTasks)

	got, _ := uc.GetTask(task.ID)
	assert.Len(t, got.SubTasks, 2)
}
