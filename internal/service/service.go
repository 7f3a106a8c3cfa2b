// Package service is the single entry point of the front ends: every read goes
// through the query cache and every write invalidates what it changed.
package service

import (
	"context"
	"errors"
	"strings"

	"abricot/internal/aigen"
	"abricot/internal/api"
	"abricot/internal/kanban"
	"abricot/internal/model"
	"abricot/internal/query"
	"abricot/internal/session"
	"abricot/pkg/logger"
	"abricot/pkg/util"

	"go.uber.org/zap"
)

// MinSearchLength is the shortest user search that reaches the backend.
const MinSearchLength = 2

// ErrOwnerImmutable is returned when removing or re-roling a project owner.
var ErrOwnerImmutable = errors.New("Le propriétaire du projet ne peut pas être modifié")

type Service struct {
	api       *api.Client
	queries   *query.Client
	session   *session.Session
	generator *aigen.Generator
	board     *kanban.Controller
	logger    *zap.Logger
}

// New binds the collaborators. The query cache is reset whenever the signed-in
// identity changes. deduper may be nil.
func New(apiClient *api.Client, queries *query.Client, sess *session.Session, deduper *util.Deduper, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	s := &Service{
		api:     apiClient,
		queries: queries,
		session: sess,
		logger:  l,
	}
	s.generator = aigen.NewGenerator(apiClient, s, deduper, l)
	s.board = kanban.NewController(s, l)

	sess.OnIdentityChange(func(ctx context.Context) {
		if err := queries.Clear(ctx); err != nil {
			s.log(ctx).Warn("Failed to clear query cache", zap.Error(err))
		}
	})
	return s
}

func (s *Service) Session() *session.Session { return s.session }

func (s *Service) Projects(ctx context.Context) query.Result[[]model.Project] {
	return query.Fetch(ctx, s.queries, query.Query[[]model.Project]{
		Key:     query.Projects(),
		Enabled: true,
		Fn:      s.api.GetProjects,
	})
}

func (s *Service) Project(ctx context.Context, id model.ID) query.Result[*model.Project] {
	return query.Fetch(ctx, s.queries, query.Query[*model.Project]{
		Key:     query.Project(id),
		Enabled: !id.Empty(),
		Fn: func(ctx context.Context) (*model.Project, error) {
			return s.api.GetProject(ctx, id)
		},
	})
}

func (s *Service) ProjectTasks(ctx context.Context, projectID model.ID) query.Result[[]model.Task] {
	return query.Fetch(ctx, s.queries, query.Query[[]model.Task]{
		Key:     query.ProjectTasks(projectID),
		Enabled: !projectID.Empty(),
		Fn: func(ctx context.Context) ([]model.Task, error) {
			return s.api.GetProjectTasks(ctx, projectID)
		},
	})
}

func (s *Service) TaskComments(ctx context.Context, projectID, taskID model.ID) query.Result[[]model.Comment] {
	return query.Fetch(ctx, s.queries, query.Query[[]model.Comment]{
		Key:     query.TaskComments(taskID),
		Enabled: !projectID.Empty() && !taskID.Empty(),
		Fn: func(ctx context.Context) ([]model.Comment, error) {
			return s.api.GetTaskComments(ctx, projectID, taskID)
		},
	})
}

func (s *Service) DashboardStats(ctx context.Context) query.Result[*model.DashboardStats] {
	return query.Fetch(ctx, s.queries, query.Query[*model.DashboardStats]{
		Key:     query.DashboardStats(),
		Enabled: true,
		Fn:      s.api.GetDashboardStats,
	})
}

func (s *Service) AssignedTasks(ctx context.Context) query.Result[[]model.Task] {
	return query.Fetch(ctx, s.queries, query.Query[[]model.Task]{
		Key:     query.AssignedTasks(),
		Enabled: true,
		Fn:      s.api.GetAssignedTasks,
	})
}

func (s *Service) Profile(ctx context.Context) query.Result[*model.User] {
	return query.Fetch(ctx, s.queries, query.Query[*model.User]{
		Key:     query.UserProfile(),
		Enabled: true,
		Fn:      s.api.GetProfile,
	})
}

// SearchUsers looks users up by name or email. Terms shorter than
// MinSearchLength return an idle result; users in exclude are filtered out.
func (s *Service) SearchUsers(ctx context.Context, term string, exclude ...model.ID) query.Result[[]model.User] {
	term = strings.TrimSpace(term)
	res := query.Fetch(ctx, s.queries, query.Query[[]model.User]{
		Key:     query.UserSearch(term),
		Enabled: len([]rune(term)) >= MinSearchLength,
		Fn: func(ctx context.Context) ([]model.User, error) {
			return s.api.SearchUsers(ctx, term)
		},
	})
	if !res.Success() || len(exclude) == 0 {
		return res
	}
	skip := make(map[model.ID]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	kept := make([]model.User, 0, len(res.Data))
	for _, u := range res.Data {
		if !skip[u.ID] {
			kept = append(kept, u)
		}
	}
	res.Data = kept
	return res
}

// mutate runs fn as a mutation of kind on t and invalidates its dependents
// once it succeeded.
func mutate[R any](ctx context.Context, s *Service, kind query.MutationKind, t query.Target, fn func(context.Context, query.Target) (R, error)) (R, error) {
	return query.Mutate(ctx, s.queries, query.Mutation[query.Target, R]{
		Kind: kind,
		Fn:   fn,
		Invalidates: func(t query.Target, _ R) []query.Key {
			return query.Dependents(kind, t)
		},
	}, t)
}

// exec is mutate for writes without a result.
func exec(ctx context.Context, s *Service, kind query.MutationKind, t query.Target, fn func(context.Context, query.Target) error) error {
	_, err := mutate(ctx, s, kind, t, func(ctx context.Context, t query.Target) (struct{}, error) {
		return struct{}{}, fn(ctx, t)
	})
	return err
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.WithTrace(ctx, s.logger)
}
