package handler

import (
	"net/http"
	"time"

	"abricot/internal/aigen"
	"abricot/internal/kanban"
	"abricot/internal/model"
	"abricot/internal/service"
	"abricot/internal/viewmodel"
	"abricot/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TaskHandler struct {
	svc    *service.Service
	logger *zap.Logger
	now    func() time.Time
}

func NewTaskHandler(svc *service.Service, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger, now: time.Now}
}

// Dashboard handles GET /api/dashboard
// Stats are a secondary widget: when they fail the page still renders with zeros.
func (h *TaskHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()

	assigned := h.svc.AssignedTasks(ctx)
	if assigned.Err != nil {
		respondError(c, h.logger, assigned.Err)
		return
	}
	stats := h.svc.DashboardStats(ctx)
	if stats.Err != nil {
		logger.WithTrace(ctx, h.logger).Warn("Dashboard stats unavailable", zap.Error(stats.Err))
		stats.Data = &model.DashboardStats{}
	}

	tasks := viewmodel.SortByPriority(assigned.Data)
	ok(c, http.StatusOK, gin.H{
		"stats":   stats.Data,
		"tasks":   tasks,
		"board":   viewmodel.BucketByStatus(tasks),
		"summary": viewmodel.DashboardSummary(tasks, h.now()),
	})
}

// Create handles POST /api/projects/:id/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req model.TaskInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	task, err := h.svc.CreateTask(c.Request.Context(), model.ID(c.Param("id")), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"task": task})
}

// Update handles PUT /api/projects/:id/tasks/:taskId
func (h *TaskHandler) Update(c *gin.Context) {
	var req model.TaskUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	task, err := h.svc.UpdateTask(c.Request.Context(), model.ID(c.Param("id")), model.ID(c.Param("taskId")), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"task": task})
}

// Delete handles DELETE /api/projects/:id/tasks/:taskId
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteTask(c.Request.Context(), model.ID(c.Param("id")), model.ID(c.Param("taskId"))); err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

// Comments handles GET /api/projects/:id/tasks/:taskId/comments
func (h *TaskHandler) Comments(c *gin.Context) {
	res := h.svc.TaskComments(c.Request.Context(), model.ID(c.Param("id")), model.ID(c.Param("taskId")))
	if res.Err != nil {
		respondError(c, h.logger, res.Err)
		return
	}
	comments := res.Data
	if comments == nil {
		comments = []model.Comment{}
	}
	ok(c, http.StatusOK, gin.H{"comments": comments})
}

// AddComment handles POST /api/projects/:id/tasks/:taskId/comments
func (h *TaskHandler) AddComment(c *gin.Context) {
	var req model.CommentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	comment, err := h.svc.AddComment(c.Request.Context(), model.ID(c.Param("id")), model.ID(c.Param("taskId")), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"comment": comment})
}

// Move handles POST /api/board/move
// Without a project id the drag happened on the dashboard's assigned tasks.
func (h *TaskHandler) Move(c *gin.Context) {
	var req struct {
		ProjectID model.ID         `json:"projectId"`
		Event     kanban.DragEvent `json:"event"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	ctx := c.Request.Context()

	var tasks []model.Task
	if req.ProjectID.Empty() {
		res := h.svc.AssignedTasks(ctx)
		if res.Err != nil {
			respondError(c, h.logger, res.Err)
			return
		}
		tasks = res.Data
	} else {
		res := h.svc.ProjectTasks(ctx, req.ProjectID)
		if res.Err != nil {
			respondError(c, h.logger, res.Err)
			return
		}
		tasks = res.Data
	}

	outcome, err := h.svc.MoveTask(ctx, tasks, req.Event)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"outcome": outcome})
}

// Generate handles POST /api/projects/:id/ai/generate
func (h *TaskHandler) Generate(c *gin.Context) {
	var req model.GenerateTasksInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	proposal, err := h.svc.GenerateTasks(c.Request.Context(), model.ID(c.Param("id")), req.Prompt)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, proposal)
}

// Apply handles POST /api/projects/:id/ai/apply
// A partial failure answers with the error and what was created before it.
func (h *TaskHandler) Apply(c *gin.Context) {
	var req struct {
		Drafts []aigen.Draft `json:"drafts"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	res, err := h.svc.ApplyDrafts(c.Request.Context(), model.ID(c.Param("id")), req.Drafts)
	if err != nil {
		logger.WithTrace(c.Request.Context(), h.logger).Warn("Generated tasks partially applied",
			zap.Int("created", len(res.Created)),
			zap.Error(err),
		)
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, res)
}
