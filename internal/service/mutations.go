package service

import (
	"context"

	"abricot/internal/model"
	"abricot/internal/query"
)

func (s *Service) CreateProject(ctx context.Context, input model.ProjectInput) (*model.Project, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return query.Mutate(ctx, s.queries, query.Mutation[model.ProjectInput, *model.Project]{
		Kind: query.CreateProject,
		Fn:   s.api.CreateProject,
		Invalidates: func(_ model.ProjectInput, p *model.Project) []query.Key {
			return query.Dependents(query.CreateProject, query.Target{ProjectID: p.ID})
		},
	}, input)
}

func (s *Service) UpdateProject(ctx context.Context, id model.ID, update model.ProjectUpdate) (*model.Project, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	return mutate(ctx, s, query.UpdateProject, query.Target{ProjectID: id},
		func(ctx context.Context, t query.Target) (*model.Project, error) {
			return s.api.UpdateProject(ctx, t.ProjectID, update)
		})
}

func (s *Service) DeleteProject(ctx context.Context, id model.ID) error {
	return exec(ctx, s, query.DeleteProject, query.Target{ProjectID: id},
		func(ctx context.Context, t query.Target) error {
			return s.api.DeleteProject(ctx, t.ProjectID)
		})
}

func (s *Service) AddContributor(ctx context.Context, projectID model.ID, input model.ContributorInput) error {
	if err := input.Validate(); err != nil {
		return err
	}
	return exec(ctx, s, query.AddContributor, query.Target{ProjectID: projectID},
		func(ctx context.Context, t query.Target) error {
			return s.api.AddContributor(ctx, t.ProjectID, input)
		})
}

func (s *Service) RemoveContributor(ctx context.Context, projectID, userID model.ID) error {
	if err := s.ensureNotOwner(ctx, projectID, userID); err != nil {
		return err
	}
	return exec(ctx, s, query.RemoveContributor, query.Target{ProjectID: projectID},
		func(ctx context.Context, t query.Target) error {
			return s.api.RemoveContributor(ctx, t.ProjectID, userID)
		})
}

func (s *Service) UpdateContributorRole(ctx context.Context, projectID, userID model.ID, role model.Role) error {
	if err := (model.RoleUpdate{Role: role}).Validate(); err != nil {
		return err
	}
	if err := s.ensureNotOwner(ctx, projectID, userID); err != nil {
		return err
	}
	return exec(ctx, s, query.UpdateContributorRole, query.Target{ProjectID: projectID},
		func(ctx context.Context, t query.Target) error {
			return s.api.UpdateContributorRole(ctx, t.ProjectID, userID, role)
		})
}

// ensureNotOwner checks the owner invariant against the cached project.
func (s *Service) ensureNotOwner(ctx context.Context, projectID, userID model.ID) error {
	res := s.Project(ctx, projectID)
	if res.Err != nil {
		return res.Err
	}
	if res.Data != nil && res.Data.IsOwner(userID) {
		return ErrOwnerImmutable
	}
	return nil
}

// CreateTask fills the form defaults (TODO, MEDIUM, no assignee) before sending.
func (s *Service) CreateTask(ctx context.Context, projectID model.ID, input model.TaskInput) (*model.Task, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	input = input.WithDefaults()
	return mutate(ctx, s, query.CreateTask, query.Target{ProjectID: projectID},
		func(ctx context.Context, t query.Target) (*model.Task, error) {
			return s.api.CreateTask(ctx, t.ProjectID, input)
		})
}

func (s *Service) UpdateTask(ctx context.Context, projectID, taskID model.ID, update model.TaskUpdate) (*model.Task, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	return mutate(ctx, s, query.UpdateTask, query.Target{ProjectID: projectID, TaskID: taskID},
		func(ctx context.Context, t query.Target) (*model.Task, error) {
			return s.api.UpdateTask(ctx, t.ProjectID, t.TaskID, update)
		})
}

func (s *Service) DeleteTask(ctx context.Context, projectID, taskID model.ID) error {
	return exec(ctx, s, query.DeleteTask, query.Target{ProjectID: projectID, TaskID: taskID},
		func(ctx context.Context, t query.Target) error {
			return s.api.DeleteTask(ctx, t.ProjectID, t.TaskID)
		})
}

func (s *Service) AddComment(ctx context.Context, projectID, taskID model.ID, input model.CommentInput) (*model.Comment, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return mutate(ctx, s, query.AddComment, query.Target{ProjectID: projectID, TaskID: taskID},
		func(ctx context.Context, t query.Target) (*model.Comment, error) {
			return s.api.AddComment(ctx, t.ProjectID, t.TaskID, input)
		})
}

// UpdateProfile also refreshes the session's user.
func (s *Service) UpdateProfile(ctx context.Context, update model.ProfileUpdate) (*model.User, error) {
	return mutate(ctx, s, query.UpdateProfile, query.Target{},
		func(ctx context.Context, _ query.Target) (*model.User, error) {
			return s.session.UpdateProfile(ctx, update)
		})
}

func (s *Service) UpdatePassword(ctx context.Context, update model.PasswordUpdate) error {
	if err := update.Validate(); err != nil {
		return err
	}
	err := exec(ctx, s, query.UpdatePassword, query.Target{},
		func(ctx context.Context, _ query.Target) error {
			return s.api.UpdatePassword(ctx, update)
		})
	if err == nil {
		s.log(ctx).Info("Password changed")
	}
	return err
}
