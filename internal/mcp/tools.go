package mcp

import "github.com/Yukaii/vibers-goal/internal/task/domain"

// ListTasksArgs is the input for the list_tasks tool.
type ListTasksArgs struct {
	All   bool   `json:"all,omitempty"   jsonschema:"Include completed tasks"`
	Query string `json:"query,omitempty" jsonschema:"Fuzzy filter on title and description"`
}

type ListTasksOutput struct {
	Tasks     []TaskSummary `json:"tasks"`
	Total     int           `json:"total"`
	Completed int           `json:"completed"`
}

// TaskSummary is the compact per-task view returned by the tools.
type TaskSummary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Priority  string   `json:"priority"`
	Completed bool     `json:"completed"`
	Active    bool     `json:"active,omitempty"`
	SubTasks  []string `json:"subtasks,omitempty"`
}

type AddTaskArgs struct {
	Title      string `json:"title"                 jsonschema:"Task title"`
	Priority   string `json:"priority,omitempty"    jsonschema:"high, medium or low (default medium)"`
	MakeActive bool   `json:"make_active,omitempty" jsonschema:"Open the task in the dashboard"`
}

type TaskIDArgs struct {
	ID string `json:"id" jsonschema:"Task id"`
}

type AddSubTaskArgs struct {
	ID    string `json:"id"    jsonschema:"Parent task id"`
	Title string `json:"title" jsonschema:"Subtask title"`
}

type BreakdownArgs struct {
	ID     string `json:"id"               jsonschema:"Task id"`
	Prompt string `json:"prompt,omitempty" jsonschema:"Extra instructions for the AI"`
}

type TaskOutput struct {
	Task TaskSummary `json:"task"`
}

type DeleteOutput struct {
	Deleted string `json:"deleted"`
}

type SubTaskOutput struct {
	TaskID  string `json:"task_id"`
	SubTask string `json:"subtask_id"`
	Title   string `json:"title"`
}

type BreakdownOutput struct {
	TaskID   string   `json:"task_id"`
	SubTasks []string `json:"subtasks"`
}

func summarize(t domain.Task, activeID string) TaskSummary {
	s := TaskSummary{
		ID:        t.ID,
		Title:     t.Title,
		Priority:  string(t.Priority),
		Completed: t.Completed,
		Active:    t.ID == activeID,
	}
	for _, st := range t.SubTasks {
		mark := "[ ] "
		if st.Completed {
			mark = "[x] "
		}
		s.SubTasks = append(s.SubTasks, mark+st.Title)
	}
	return s
}
