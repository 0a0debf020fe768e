// Package service wires the match finders to stored snapshots.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arnavshah/skillmatch-api-go/pkg/matching"
	"github.com/arnavshah/skillmatch-api-go/pkg/metrics"
	"github.com/arnavshah/skillmatch-api-go/pkg/models"
)

// Snapshots is the persistence the matcher reads from
type Snapshots interface {
	ProjectSnapshot(ctx context.Context, id uuid.UUID) (models.Project, error)
	UserSnapshot(ctx context.Context, id uuid.UUID) (models.Candidate, error)
	CandidatePool(ctx context.Context) ([]models.Candidate, error)
	ProjectPool(ctx context.Context, statuses []string) ([]models.Project, error)
}

// Matcher answers candidate and project searches by identity
type Matcher struct {
	store   Snapshots
	log     *zap.Logger
	metrics *metrics.Recorder
}

// NewMatcher builds a Matcher; rec may be nil
func NewMatcher(store Snapshots, log *zap.Logger, rec *metrics.Recorder) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{store: store, log: log.Named("matcher"), metrics: rec}
}

// FindCandidates ranks all users against the project. Unknown projects yield database.ErrNotFound.
func (m *Matcher) FindCandidates(ctx context.Context, projectID uuid.UUID, opts matching.Options) ([]models.CandidateMatch, error) {
	start := time.Now()
	pool := 0

	out, err := func() ([]models.CandidateMatch, error) {
		project, err := m.store.ProjectSnapshot(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if len(project.Requirements) == 0 {
			return []models.CandidateMatch{}, nil
		}
		candidates, err := m.store.CandidatePool(ctx)
		if err != nil {
			return nil, err
		}
		pool = len(candidates)
		return matching.FindCandidates(ctx, project, candidates, opts)
	}()

	scores := make([]float64, len(out))
	for i, c := range out {
		scores[i] = c.Score.Value
	}
	m.observe(metrics.FinderCandidates, pool, scores, time.Since(start), err,
		zap.Stringer("project_id", projectID))
	return out, err
}

// FindProjects ranks projects, optionally restricted by status, against the user.
// Unknown users yield database.ErrNotFound.
func (m *Matcher) FindProjects(ctx context.Context, userID uuid.UUID, statuses []string, opts matching.Options) ([]models.ProjectMatch, error) {
	start := time.Now()
	pool := 0

	out, err := func() ([]models.ProjectMatch, error) {
		user, err := m.store.UserSnapshot(ctx, userID)
		if err != nil {
			return nil, err
		}
		projects, err := m.store.ProjectPool(ctx, statuses)
		if err != nil {
			return nil, err
		}
		pool = len(projects)
		return matching.FindProjects(ctx, user, projects, opts)
	}()

	scores := make([]float64, len(out))
	for i, p := range out {
		scores[i] = p.Score.Value
	}
	m.observe(metrics.FinderProjects, pool, scores, time.Since(start), err,
		zap.Stringer("user_id", userID))
	return out, err
}

func (m *Matcher) observe(finder string, pool int, scores []float64, took time.Duration, err error, subject zap.Field) {
	if m.metrics != nil {
		m.metrics.ObserveSearch(finder, pool, scores, took, err)
	}

	fields := []zap.Field{
		zap.String("finder", finder),
		subject,
		zap.Int("pool", pool),
		zap.Int("results", len(scores)),
		zap.Duration("duration", took),
	}
	if err != nil {
		m.log.Warn("search failed", append(fields, zap.Error(err))...)
		return
	}
	m.log.Debug("search done", fields...)
}
