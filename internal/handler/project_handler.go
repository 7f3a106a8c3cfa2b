package handler

import (
	"net/http"
	"strings"

	"abricot/internal/model"
	"abricot/internal/service"
	"abricot/internal/viewmodel"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ProjectHandler struct {
	svc    *service.Service
	logger *zap.Logger
}

func NewProjectHandler(svc *service.Service, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{svc: svc, logger: logger}
}

type projectCard struct {
	viewmodel.Urgency
	Progress  int  `json:"progress"`
	CanManage bool `json:"canManage"`
}

// List handles GET /api/projects
// Projects come back ranked by urgency.
func (h *ProjectHandler) List(c *gin.Context) {
	res := h.svc.Projects(c.Request.Context())
	if res.Err != nil {
		respondError(c, h.logger, res.Err)
		return
	}
	uid := currentUserID(c)
	cards := make([]projectCard, 0, len(res.Data))
	for _, u := range viewmodel.RankProjects(res.Data) {
		cards = append(cards, projectCard{
			Urgency:   u,
			Progress:  viewmodel.Progress(u.Project),
			CanManage: viewmodel.CanManage(u.Project, uid),
		})
	}
	ok(c, http.StatusOK, gin.H{"projects": cards})
}

// Get handles GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	id := model.ID(c.Param("id"))

	res := h.svc.Project(ctx, id)
	if res.Err != nil {
		respondError(c, h.logger, res.Err)
		return
	}
	if res.Data == nil {
		fail(c, http.StatusNotFound, "Projet introuvable")
		return
	}
	board, err := h.svc.Board(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	uid := currentUserID(c)
	ok(c, http.StatusOK, gin.H{
		"project":   res.Data,
		"board":     board,
		"progress":  viewmodel.Progress(*res.Data),
		"canManage": viewmodel.CanManage(*res.Data, uid),
		"role":      res.Data.MemberRole(uid),
	})
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req model.ProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	p, err := h.svc.CreateProject(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"project": p})
}

// Update handles PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	var req model.ProjectUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	p, err := h.svc.UpdateProject(c.Request.Context(), model.ID(c.Param("id")), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"project": p})
}

// Delete handles DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteProject(c.Request.Context(), model.ID(c.Param("id"))); err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

// AddMember handles POST /api/projects/:id/members
func (h *ProjectHandler) AddMember(c *gin.Context) {
	var req model.ContributorInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	if err := h.svc.AddContributor(c.Request.Context(), model.ID(c.Param("id")), req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, nil)
}

// RemoveMember handles DELETE /api/projects/:id/members/:userId
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	err := h.svc.RemoveContributor(c.Request.Context(), model.ID(c.Param("id")), model.ID(c.Param("userId")))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

// UpdateMemberRole handles PUT /api/projects/:id/members/:userId
func (h *ProjectHandler) UpdateMemberRole(c *gin.Context) {
	var req model.RoleUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	err := h.svc.UpdateContributorRole(c.Request.Context(), model.ID(c.Param("id")), model.ID(c.Param("userId")), req.Role)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

// SearchUsers handles GET /api/users/search?q=&exclude=a,b
func (h *ProjectHandler) SearchUsers(c *gin.Context) {
	var exclude []model.ID
	for _, id := range strings.Split(c.Query("exclude"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			exclude = append(exclude, model.ID(id))
		}
	}
	res := h.svc.SearchUsers(c.Request.Context(), c.Query("q"), exclude...)
	if res.Err != nil {
		respondError(c, h.logger, res.Err)
		return
	}
	users := res.Data
	if users == nil {
		users = []model.User{}
	}
	ok(c, http.StatusOK, gin.H{"users": users})
}
