package handler

import (
	"net/http"
	"sync"

	"abricot/internal/model"
	"abricot/internal/service"
	"abricot/internal/session"
	"abricot/pkg/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Redirects remembers where the session last navigated so the browser can
// follow.
type Redirects struct {
	mu   sync.Mutex
	last string
}

func (r *Redirects) Navigate(route string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = route
}

// Take returns the pending route and forgets it.
func (r *Redirects) Take() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	route := r.last
	r.last = ""
	return route
}

type SessionHandler struct {
	svc       *service.Service
	redirects *Redirects
	logger    *zap.Logger
}

func NewSessionHandler(svc *service.Service, redirects *Redirects, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, redirects: redirects, logger: logger}
}

// Get handles GET /api/session
func (h *SessionHandler) Get(c *gin.Context) {
	ok(c, http.StatusOK, h.svc.Session().Resolve(c.Request.Context()))
}

// Login handles POST /api/session
func (h *SessionHandler) Login(c *gin.Context) {
	var req model.LoginPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	user, err := h.svc.Session().Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": user, "redirect": h.redirects.Take()})
}

// Register handles POST /api/register
func (h *SessionHandler) Register(c *gin.Context) {
	var req struct {
		Email           string  `json:"email"`
		Password        string  `json:"password"`
		ConfirmPassword string  `json:"confirmPassword"`
		Name            *string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	user, err := h.svc.Session().Register(c.Request.Context(), model.RegisterPayload{
		Email:           req.Email,
		Password:        req.Password,
		Name:            req.Name,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusCreated, gin.H{"user": user, "redirect": h.redirects.Take()})
}

// Logout handles DELETE /api/session
func (h *SessionHandler) Logout(c *gin.Context) {
	if err := h.svc.Session().Logout(c.Request.Context()); err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"redirect": h.redirects.Take()})
}

// UpdateProfile handles PUT /api/account/profile
func (h *SessionHandler) UpdateProfile(c *gin.Context) {
	var req model.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	user, err := h.svc.UpdateProfile(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"user": user})
}

// UpdatePassword handles PUT /api/account/password
func (h *SessionHandler) UpdatePassword(c *gin.Context) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}
	err := h.svc.UpdatePassword(c.Request.Context(), model.PasswordUpdate{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	ok(c, http.StatusOK, nil)
}

// RequireSession rejects requests while nobody is signed in. A signed-out
// gateway adopts a bearer token the backend accepts; once signed in, a request
// carrying a different bearer token is rejected.
func RequireSession(sess *session.Session) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sess.Resolve(ctx)
		tok := util.ExtractToken(c.Request)
		user, err := sess.RequireUser()
		switch {
		case err == nil && tok != "" && !sess.HoldsToken(tok):
			err = session.ErrNotAuthenticated
		case err != nil && tok != "":
			user, err = sess.Adopt(ctx, tok)
		}
		if err != nil {
			fail(c, http.StatusUnauthorized, "Non authentifié")
			return
		}
		c.Set("user_id", user.ID)
		c.Next()
	}
}

func currentUserID(c *gin.Context) model.ID {
	id, _ := c.Get("user_id")
	uid, _ := id.(model.ID)
	return uid
}
