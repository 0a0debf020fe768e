package matching

import "github.com/arnavshah/skillmatch-api-go/pkg/models"

// ScorePair scores one candidate against one project
func ScorePair(c models.Candidate, p models.Project) Result {
	return Compute(Input{
		Requirements: p.Requirements,
		Skills:       c.Skills,
		Window:       p.Window,
		Availability: c.Availability,
	})
}

func candidateMatch(c models.Candidate, r Result) models.CandidateMatch {
	return models.CandidateMatch{
		UserID:        c.UserID,
		Name:          c.Name,
		Email:         c.Email,
		Score:         r.Score,
		MatchedSkills: r.Matched,
		MissingSkills: r.Missing,
	}
}

func projectMatch(p models.Project, r Result) models.ProjectMatch {
	return models.ProjectMatch{
		ProjectID:     p.ProjectID,
		Title:         p.Title,
		Status:        p.Status,
		Start:         p.Window.Start,
		End:           p.Window.End,
		Score:         r.Score,
		MatchedSkills: r.Matched,
		MissingSkills: r.Missing,
	}
}
