package delivery

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Yukaii/vibers-goal/internal/task/domain"
	"github.com/Yukaii/vibers-goal/internal/task/usecase"
	"github.com/Yukaii/vibers-goal/pkg/ai"
	"github.com/gin-gonic/gin"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskUsecase usecase.TaskUsecase
	events      gin.HandlerFunc
}

// NewTaskHandler creates a new TaskHandler. events serves the change stream
// and may be nil.
func NewTaskHandler(taskUsecase usecase.TaskUsecase, events gin.HandlerFunc) *TaskHandler {
	return &TaskHandler{
		taskUsecase: taskUsecase,
		events:      events,
	}
}

// RegisterRoutes mounts the task routes on g
func (h *TaskHandler) RegisterRoutes(g *gin.RouterGroup) {
	g.GET("", h.GetTasks)
	g.POST("", h.CreateTask)
	g.POST("/reorder", h.ReorderTasks)
	g.GET("/active", h.GetActiveTask)
	g.PUT("/active", h.SetActiveTask)
	g.GET("/search/semantic", h.SemanticSearch)
	if h.events != nil {
		g.GET("/events", h.events)
	}

	g.GET("/:id", h.GetTaskByID)
	g.PUT("/:id", h.UpdateTask)
	g.DELETE("/:id", h.DeleteTask)
	g.PATCH("/:id/toggle", h.ToggleTask)
	g.PUT("/:id/reminder", h.SetReminder)
	g.DELETE("/:id/reminder", h.ClearReminder)
	g.POST("/:id/breakdown", h.GenerateBreakdown)

	g.POST("/:id/subtasks", h.AddSubTask)
	g.POST("/:id/subtasks/reorder", h.ReorderSubTasks)
	g.PUT("/:id/subtasks/:subId", h.RenameSubTask)
	g.DELETE("/:id/subtasks/:subId", h.DeleteSubTask)
	g.PATCH("/:id/subtasks/:subId/toggle", h.ToggleSubTask)
}

// CreateTaskRequest represents the request body for creating a task
type CreateTaskRequest struct {
	Title      string `json:"title" binding:"required"`
	Priority   string `json:"priority"`
	MakeActive bool   `json:"make_active"`
}

type ReorderRequest struct {
	OldIndex *int `json:"old_index" binding:"required"`
	NewIndex *int `json:"new_index" binding:"required"`
}

type SubTaskRequest struct {
	Title string `json:"title" binding:"required"`
}

type SetActiveRequest struct {
	ID *string `json:"id"`
}

type BreakdownRequest struct {
	CustomPrompt string `json:"custom_prompt"`
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, usecase.ErrTaskNotFound), errors.Is(err, usecase.ErrSubTaskNotFound):
		status = http.StatusNotFound
	case errors.Is(err, usecase.ErrEmptyTitle), errors.Is(err, usecase.ErrInvalidReorder),
		errors.Is(err, domain.ErrInvalidReminder), errors.Is(err, domain.ErrInvalidPriority):
		status = http.StatusBadRequest
	case errors.Is(err, ai.ErrAPIKeyMissing):
		status = http.StatusPreconditionFailed
	case errors.Is(err, usecase.ErrAIUnavailable), errors.Is(err, usecase.ErrSearchNotEnabled):
		status = http.StatusServiceUnavailable
	case errors.Is(err, usecase.ErrBreakdownFailed):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// GetTasks returns tasks in display order
// GET /api/tasks?show_completed=true&q=milk
func (h *TaskHandler) GetTasks(c *gin.Context) {
	showCompleted, _ := strconv.ParseBool(c.DefaultQuery("show_completed", "false"))

	var tasks []domain.Task
	if q := c.Query("q"); q != "" {
		tasks = h.taskUsecase.Search(q, showCompleted)
	} else {
		tasks = h.taskUsecase.ListTasks(showCompleted)
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"stats": h.taskUsecase.Stats(),
	})
}

// GetTaskByID returns a specific task
// GET /api/tasks/:id
func (h *TaskHandler) GetTaskByID(c *gin.Context) {
	task, err := h.taskUsecase.GetTask(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTask adds a task at the top of the list
// POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskUsecase.CreateTask(req.Title, req.Priority, req.MakeActive)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// UpdateTask replaces a task
// PUT /api/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	var task domain.Task
	if err := c.ShouldBindJSON(&task); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	task.ID = c.Param("id")

	updated, err := h.taskUsecase.UpdateTask(task)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteTask deletes a task
// DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.taskUsecase.DeleteTask(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// ToggleTask flips completion
// PATCH /api/tasks/:id/toggle
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	task, err := h.taskUsecase.ToggleTask(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// SetReminder attaches a reminder, filling defaults
// PUT /api/tasks/:id/reminder
func (h *TaskHandler) SetReminder(c *gin.Context) {
	var reminder domain.Reminder
	if err := c.ShouldBindJSON(&reminder); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.taskUsecase.SetReminder(c.Param("id"), reminder)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// ClearReminder removes the reminder
// DELETE /api/tasks/:id/reminder
func (h *TaskHandler) ClearReminder(c *gin.Context) {
	task, err := h.taskUsecase.ClearReminder(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// ReorderTasks moves one task
// POST /api/tasks/reorder
func (h *TaskHandler) ReorderTasks(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.taskUsecase.ReorderTasks(*req.OldIndex, *req.NewIndex); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": h.taskUsecase.ListTasks(true)})
}

// GetActiveTask returns the selected task, or null
// GET /api/tasks/active
func (h *TaskHandler) GetActiveTask(c *gin.Context) {
	task, ok := h.taskUsecase.ActiveTask()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"task": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task})
}

// SetActiveTask selects a task, or clears the selection with {"id": null}
// PUT /api/tasks/active
func (h *TaskHandler) SetActiveTask(c *gin.Context) {
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.taskUsecase.SetActiveTask(req.ID)
	h.GetActiveTask(c)
}

// AddSubTask appends a subtask
// POST /api/tasks/:id/subtasks
func (h *TaskHandler) AddSubTask(c *gin.Context) {
	var req SubTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.taskUsecase.AddSubTask(c.Param("id"), req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// RenameSubTask
// PUT /api/tasks/:id/subtasks/:subId
func (h *TaskHandler) RenameSubTask(c *gin.Context) {
	var req SubTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.taskUsecase.RenameSubTask(c.Param("id"), c.Param("subId"), req.Title)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// DELETE /api/tasks/:id/subtasks/:subId
func (h *TaskHandler) DeleteSubTask(c *gin.Context) {
	if err := h.taskUsecase.DeleteSubTask(c.Param("id"), c.Param("subId")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Subtask deleted successfully"})
}

// PATCH /api/tasks/:id/subtasks/:subId/toggle
func (h *TaskHandler) ToggleSubTask(c *gin.Context) {
	st, err := h.taskUsecase.ToggleSubTask(c.Param("id"), c.Param("subId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// POST /api/tasks/:id/subtasks/reorder
func (h *TaskHandler) ReorderSubTasks(c *gin.Context) {
	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	taskID := c.Param("id")
	if err := h.taskUsecase.ReorderSubTasks(taskID, *req.OldIndex, *req.NewIndex); err != nil {
		writeError(c, err)
		return
	}
	h.GetTaskByID(c)
}

// GenerateBreakdown asks the AI provider for subtasks and appends them
// POST /api/tasks/:id/breakdown
func (h *TaskHandler) GenerateBreakdown(c *gin.Context) {
	var req BreakdownRequest
	// body is optional
	_ = c.ShouldBindJSON(&req)

	added, err := h.taskUsecase.GenerateBreakdown(c.Request.Context(), c.Param("id"), req.CustomPrompt)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"subtasks": added,
		"count":    len(added),
	})
}

// SemanticSearch ranks tasks through the vector index
// GET /api/tasks/search/semantic?q=groceries&limit=5
func (h *TaskHandler) SemanticSearch(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	tasks, err := h.taskUsecase.SemanticSearch(c.Request.Context(), q, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}
