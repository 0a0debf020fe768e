// Package matching scores users against projects by skills, levels and availability
// and ranks candidates or projects by that score.
package matching

import (
	"math"

	"github.com/google/uuid"

	"github.com/arnavshah/skillmatch-api-go/pkg/models"
)

// Composite weights, summing to 1.0
const (
	WeightMustHave     = 0.40
	WeightLevelFit     = 0.25
	WeightNiceToHave   = 0.15
	WeightAvailability = 0.20
)

// OverfitCap bounds how much overqualification counts toward level fit
const OverfitCap = 1.2

// Input is everything needed to score one candidate against one project
type Input struct {
	Requirements []models.SkillRequirement
	Skills       []models.SkillPossession
	Window       models.TimeWindow
	Availability []models.AvailabilityWindow
}

// Result is a score together with the per-requirement classification
type Result struct {
	Score   models.MatchScore
	Matched []models.MatchedSkill
	Missing []models.MissingSkill
}

// Compute scores a candidate against a project's requirements and window.
// A requirement the candidate holds below the required level is still matched;
// the shortfall only shows up in must-have coverage and level fit.
func Compute(in Input) Result {
	held := make(map[uuid.UUID]models.SkillPossession, len(in.Skills))
	for _, s := range in.Skills {
		held[s.SkillID] = s
	}

	var (
		mustTotal, mustMet int
		niceTotal, niceMet int
		fitSum             float64
		fitCount           int
	)
	matched := make([]models.MatchedSkill, 0, len(in.Requirements))
	missing := make([]models.MissingSkill, 0)

	for _, req := range in.Requirements {
		s, ok := held[req.SkillID]

		if req.Priority == models.PriorityMustHave {
			mustTotal++
			if ok && s.Level >= req.RequiredLevel {
				mustMet++
			}
		} else {
			niceTotal++
			if ok {
				niceMet++
			}
		}

		if !ok {
			missing = append(missing, models.MissingSkill{
				SkillID:       req.SkillID,
				SkillName:     req.SkillName,
				Priority:      req.Priority,
				RequiredLevel: req.RequiredLevel,
			})
			continue
		}

		matched = append(matched, models.MatchedSkill{
			SkillID:        req.SkillID,
			SkillName:      req.SkillName,
			Priority:       req.Priority,
			RequiredLevel:  req.RequiredLevel,
			CandidateLevel: s.Level,
		})
		fitSum += levelRatio(s.Level, req.RequiredLevel)
		fitCount++
	}

	mustHave := coverage(mustMet, mustTotal)
	niceToHave := coverage(niceMet, niceTotal)

	levelFit := 0.0
	if fitCount > 0 {
		levelFit = fitSum / float64(fitCount) / OverfitCap
	}

	availability := AvailabilityScore(in.Availability, in.Window)

	value := WeightMustHave*mustHave +
		WeightLevelFit*levelFit +
		WeightNiceToHave*niceToHave +
		WeightAvailability*availability

	return Result{
		Score: models.MatchScore{
			Value: Round2(value),
			Breakdown: models.ScoreBreakdown{
				MustHaveCoverage:   Round2(mustHave),
				LevelFitScore:      Round2(levelFit),
				NiceToHaveCoverage: Round2(niceToHave),
				AvailabilityScore:  Round2(availability),
			},
		},
		Matched: matched,
		Missing: missing,
	}
}

// coverage is met/total, with an empty class counting as fully covered
func coverage(met, total int) float64 {
	if total == 0 {
		return 1.0
	}
	return float64(met) / float64(total)
}

func levelRatio(have, required int) float64 {
	if required <= 0 {
		return OverfitCap
	}
	return math.Min(float64(have)/float64(required), OverfitCap)
}

// Round2 rounds half-up to two decimals
func Round2(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}

// SharesSkill reports whether the candidate holds at least one required skill
func SharesSkill(reqs []models.SkillRequirement, skills []models.SkillPossession) bool {
	if len(reqs) == 0 || len(skills) == 0 {
		return false
	}
	held := make(map[uuid.UUID]struct{}, len(skills))
	for _, s := range skills {
		held[s.SkillID] = struct{}{}
	}
	for _, r := range reqs {
		if _, ok := held[r.SkillID]; ok {
			return true
		}
	}
	return false
}
