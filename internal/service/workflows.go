package service

import (
	"context"

	"abricot/internal/aigen"
	"abricot/internal/kanban"
	"abricot/internal/model"
	"abricot/internal/viewmodel"
)

// GenerateTasks proposes AI drafts for a project. Assignee names are matched
// against the owner and the members of the cached project.
func (s *Service) GenerateTasks(ctx context.Context, projectID model.ID, prompt string) (*aigen.Proposal, error) {
	if err := (model.GenerateTasksInput{Prompt: prompt}).Validate(); err != nil {
		return nil, err
	}
	res := s.Project(ctx, projectID)
	if res.Err != nil {
		return nil, res.Err
	}
	return s.generator.Generate(ctx, projectID, prompt, people(res.Data))
}

// ApplyDrafts creates the drafts the user kept.
func (s *Service) ApplyDrafts(ctx context.Context, projectID model.ID, drafts []aigen.Draft) (*aigen.ApplyResult, error) {
	return s.generator.Apply(ctx, projectID, drafts)
}

// MoveTask applies a kanban drag to the board built from tasks.
func (s *Service) MoveTask(ctx context.Context, tasks []model.Task, ev kanban.DragEvent) (kanban.Outcome, error) {
	return s.board.HandleDragEnd(ctx, tasks, ev)
}

// Board is a project's tasks bucketed by status, each bucket in priority order.
func (s *Service) Board(ctx context.Context, projectID model.ID) (viewmodel.Board, error) {
	res := s.ProjectTasks(ctx, projectID)
	if res.Err != nil {
		return viewmodel.Board{}, res.Err
	}
	return viewmodel.BucketByStatus(viewmodel.SortByPriority(res.Data)), nil
}

func people(p *model.Project) []model.Member {
	if p == nil {
		return nil
	}
	out := make([]model.Member, 0, len(p.Members)+1)
	if p.Owner != nil {
		out = append(out, model.Member{User: *p.Owner, Role: model.RoleAdmin})
	}
	for _, m := range p.Members {
		if p.Owner != nil && m.User.ID == p.Owner.ID {
			continue
		}
		out = append(out, m)
	}
	return out
}
