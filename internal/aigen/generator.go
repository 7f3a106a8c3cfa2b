package aigen

import (
	"context"
	"encoding/json"

	"abricot/internal/model"
	"abricot/pkg/logger"
	"abricot/pkg/metrics"
	"abricot/pkg/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const dedupScope = "ai-apply"

// Backend produces raw candidates for a prompt.
type Backend interface {
	GenerateTasks(ctx context.Context, projectID model.ID, prompt string) ([]json.RawMessage, error)
}

// TaskCreator is the create-task mutation.
type TaskCreator interface {
	CreateTask(ctx context.Context, projectID model.ID, input model.TaskInput) (*model.Task, error)
}

// Proposal is the result of one generation.
type Proposal struct {
	Drafts     []Draft     `json:"drafts"`
	Rejections []Rejection `json:"rejections"`
}

// ApplyResult reports what Apply did. Skipped holds draft ids already applied
// by an earlier submission.
type ApplyResult struct {
	Created []model.Task `json:"created"`
	Skipped []string     `json:"skipped"`
}

type Generator struct {
	backend Backend
	creator TaskCreator
	deduper *util.Deduper
	logger  *zap.Logger
}

// NewGenerator wires a generator. deduper may be nil.
func NewGenerator(backend Backend, creator TaskCreator, deduper *util.Deduper, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{backend: backend, creator: creator, deduper: deduper, logger: logger}
}

// Generate asks the backend for candidates and normalizes them against the
// project's members. A blank prompt fails validation locally.
func (g *Generator) Generate(ctx context.Context, projectID model.ID, prompt string, members []model.Member) (*Proposal, error) {
	if err := (model.GenerateTasksInput{Prompt: prompt}).Validate(); err != nil {
		return nil, err
	}
	raw, err := g.backend.GenerateTasks(ctx, projectID, prompt)
	if err != nil {
		return nil, err
	}
	drafts, rejections := Normalize(raw, members)
	metrics.AddGeneratedTasks("accepted", len(drafts))
	metrics.AddGeneratedTasks("rejected", len(rejections))

	log := logger.WithTrace(ctx, g.logger)
	for _, r := range rejections {
		log.Info("Rejected generated task", zap.Int("index", r.Index), zap.String("reason", r.Reason))
	}
	log.Debug("Generated tasks",
		zap.String("project_id", projectID.String()),
		zap.Int("drafts", len(drafts)),
		zap.Int("rejected", len(rejections)),
	)
	return &Proposal{Drafts: drafts, Rejections: rejections}, nil
}

// Apply creates the drafts one by one and stops at the first failure, whose
// error is returned with what was created so far. A draft id is only ever
// applied once per project; a draft without one gets a fresh id and is always
// created.
func (g *Generator) Apply(ctx context.Context, projectID model.ID, drafts []Draft) (*ApplyResult, error) {
	res := &ApplyResult{Created: []model.Task{}, Skipped: []string{}}
	log := logger.WithTrace(ctx, g.logger).With(zap.String("project_id", projectID.String()))

	for _, d := range drafts {
		if err := d.Input.Validate(); err != nil {
			return res, err
		}
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		claim := projectID.String() + ":" + d.ID
		if !g.deduper.AcquireOnce(ctx, dedupScope, claim) {
			res.Skipped = append(res.Skipped, d.ID)
			continue
		}
		task, err := g.creator.CreateTask(ctx, projectID, d.Input.WithDefaults())
		if err != nil {
			g.deduper.Release(ctx, dedupScope, claim)
			log.Warn("Failed to create generated task",
				zap.String("draft_id", d.ID),
				zap.Int("created", len(res.Created)),
				zap.Error(err),
			)
			metrics.AddGeneratedTasks("created", len(res.Created))
			return res, err
		}
		res.Created = append(res.Created, *task)
	}
	metrics.AddGeneratedTasks("created", len(res.Created))
	log.Info("Applied generated tasks", zap.Int("created", len(res.Created)), zap.Int("skipped", len(res.Skipped)))
	return res, nil
}
