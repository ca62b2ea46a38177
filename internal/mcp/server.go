// Package mcp exposes the task list to MCP clients over stdio.
package mcp

import (
	"context"
	"fmt"

	"github.com/Yukaii/vibers-goal/internal/task/usecase"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

const serverName = "vibers-goal"

type Server struct {
	tasks  usecase.TaskUsecase
	log    *zap.SugaredLogger
	server *mcp.Server
}

// NewServer registers the task tools.
func NewServer(tasks usecase.TaskUsecase, version string, log *zap.SugaredLogger) *Server {
	s := &Server{
		tasks:  tasks,
		log:    log.Named("mcp"),
		server: mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil),
	}

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks in display order. Completed tasks are hidden unless all is set.",
	}, s.listTasks)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_task",
		Description: "Add a task at the top of the list.",
	}, s.addTask)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "toggle_task",
		Description: "Flip a task between done and not done.",
	}, s.toggleTask)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_task",
		Description: "Delete a task and its subtasks.",
	}, s.deleteTask)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_subtask",
		Description: "Append a subtask to a task.",
	}, s.addSubTask)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "breakdown_task",
		Description: "Ask the configured AI provider to split a task into 3-5 subtasks and append them.",
	}, s.breakdownTask)

	return s
}

// Run serves on stdin/stdout until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info("serving MCP over stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session on t.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func (s *Server) activeID() string {
	if t, ok := s.tasks.ActiveTask(); ok {
		return t.ID
	}
	return ""
}

func (s *Server) listTasks(_ context.Context, _ *mcp.CallToolRequest, args ListTasksArgs) (*mcp.CallToolResult, ListTasksOutput, error) {
	tasks := s.tasks.ListTasks(args.All)
	if args.Query != "" {
		tasks = s.tasks.Search(args.Query, args.All)
	}

	active := s.activeID()
	out := ListTasksOutput{Tasks: make([]TaskSummary, 0, len(tasks))}
	for _, t := range tasks {
		out.Tasks = append(out.Tasks, summarize(t, active))
	}
	stats := s.tasks.Stats()
	out.Total, out.Completed = stats.Total, stats.Completed
	return nil, out, nil
}

func (s *Server) addTask(_ context.Context, _ *mcp.CallToolRequest, args AddTaskArgs) (*mcp.CallToolResult, TaskOutput, error) {
	task, err := s.tasks.CreateTask(args.Title, args.Priority, args.MakeActive)
	if err != nil {
		return nil, TaskOutput{}, err
	}
	s.log.Infow("task added", "id", task.ID)
	return nil, TaskOutput{Task: summarize(task, s.activeID())}, nil
}

func (s *Server) toggleTask(_ context.Context, _ *mcp.CallToolRequest, args TaskIDArgs) (*mcp.CallToolResult, TaskOutput, error) {
	task, err := s.tasks.ToggleTask(args.ID)
	if err != nil {
		return nil, TaskOutput{}, fmt.Errorf("%w: %s", err, args.ID)
	}
	return nil, TaskOutput{Task: summarize(task, s.activeID())}, nil
}

func (s *Server) deleteTask(_ context.Context, _ *mcp.CallToolRequest, args TaskIDArgs) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := s.tasks.DeleteTask(args.ID); err != nil {
		return nil, DeleteOutput{}, fmt.Errorf("%w: %s", err, args.ID)
	}
	return nil, DeleteOutput{Deleted: args.ID}, nil
}

func (s *Server) addSubTask(_ context.Context, _ *mcp.CallToolRequest, args AddSubTaskArgs) (*mcp.CallToolResult, SubTaskOutput, error) {
	st, err := s.tasks.AddSubTask(args.ID, args.Title)
	if err != nil {
		return nil, SubTaskOutput{}, err
	}
	return nil, SubTaskOutput{TaskID: args.ID, SubTask: st.ID, Title: st.Title}, nil
}

func (s *Server) breakdownTask(ctx context.Context, _ *mcp.CallToolRequest, args BreakdownArgs) (*mcp.CallToolResult, BreakdownOutput, error) {
	added, err := s.tasks.GenerateBreakdown(ctx, args.ID, args.Prompt)
	if err != nil {
		return nil, BreakdownOutput{}, err
	}
	out := BreakdownOutput{TaskID: args.ID, SubTasks: make([]string, 0, len(added))}
	for _, st := range added {
		out.SubTasks = append(out.SubTasks, st.Title)
	}
	return nil, out, nil
}
