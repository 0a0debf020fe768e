package matching

import (
	"context"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/arnavshah/skillmatch-api-go/pkg/models"
)

const DefaultLimit = 20

// Options controls selection of finder results.
// MinScore must lie in [0, 1] and Limit must be positive; callers clamp them.
type Options struct {
	MinScore float64
	Limit    int
}

// DefaultOptions returns MinScore 0 and Limit 20
func DefaultOptions() Options {
	return Options{MinScore: 0, Limit: DefaultLimit}
}

// ranked is one scored entry awaiting selection
type ranked[T any] struct {
	id    uuid.UUID
	score float64
	item  T
}

// FindCandidates ranks the pool of candidates against a project.
// Candidates holding none of the required skills are left out before scoring.
func FindCandidates(ctx context.Context, project models.Project, pool []models.Candidate, opts Options) ([]models.CandidateMatch, error) {
	if len(project.Requirements) == 0 {
		return []models.CandidateMatch{}, nil
	}

	entries, err := scoreAll(ctx, len(pool), func(i int) (ranked[models.CandidateMatch], bool) {
		c := pool[i]
		if !SharesSkill(project.Requirements, c.Skills) {
			return ranked[models.CandidateMatch]{}, false
		}
		m := candidateMatch(c, ScorePair(c, project))
		return ranked[models.CandidateMatch]{id: c.UserID, score: m.Score.Value, item: m}, true
	})
	if err != nil {
		return nil, err
	}

	return selectTop(entries, opts), nil
}

// FindProjects ranks the pool of projects against a candidate.
// Projects with no requirements, or requiring none of the candidate's skills, are left out.
func FindProjects(ctx context.Context, candidate models.Candidate, pool []models.Project, opts Options) ([]models.ProjectMatch, error) {
	entries, err := scoreAll(ctx, len(pool), func(i int) (ranked[models.ProjectMatch], bool) {
		p := pool[i]
		if !SharesSkill(p.Requirements, candidate.Skills) {
			return ranked[models.ProjectMatch]{}, false
		}
		m := projectMatch(p, ScorePair(candidate, p))
		return ranked[models.ProjectMatch]{id: p.ProjectID, score: m.Score.Value, item: m}, true
	})
	if err != nil {
		return nil, err
	}

	return selectTop(entries, opts), nil
}

// scoreAll runs fn for every index in parallel and keeps the entries it accepts.
// Cancellation is checked between items, never inside one.
func scoreAll[T any](ctx context.Context, n int, fn func(i int) (ranked[T], bool)) ([]ranked[T], error) {
	slots := make([]ranked[T], n)
	keep := make([]bool, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		if err := gctx.Err(); err != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i], keep[i] = fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]ranked[T], 0, n)
	for i := range slots {
		if keep[i] {
			out = append(out, slots[i])
		}
	}
	return out, nil
}

// selectTop filters by MinScore, orders by score descending then id ascending, and truncates to Limit
func selectTop[T any](entries []ranked[T], opts Options) []T {
	kept := entries[:0]
	for _, e := range entries {
		if e.score >= opts.MinScore {
			kept = append(kept, e)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		return kept[i].id.String() < kept[j].id.String()
	})

	if opts.Limit > 0 && len(kept) > opts.Limit {
		kept = kept[:opts.Limit]
	}

	out := make([]T, len(kept))
	for i, e := range kept {
		out[i] = e.item
	}
	return out
}
