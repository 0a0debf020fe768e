package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/arnavshah/skillmatch-api-go/pkg/matching"
	"github.com/arnavshah/skillmatch-api-go/pkg/models"
)

// ValidateInput checks a match bundle without scoring it
func (h *Handler) ValidateInput(c *gin.Context) {
	var input models.FindInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"valid": false,
			"error": err.Error(),
		})
		return
	}

	if msg := validateBundle(input); msg != "" {
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"candidate_count": len(input.Candidates),
			"project_count":   len(input.Projects),
		},
	})
}

// validateBundle returns a human readable problem, or "" when the bundle is usable
func validateBundle(in models.FindInput) string {
	switch {
	case in.Project == nil && in.Candidate == nil:
		return "Either project or candidate is required"
	case in.Project != nil && in.Candidate != nil:
		return "Only one of project or candidate may be given"
	case in.MinScore < 0 || in.MinScore > 1:
		return "min_score must be between 0 and 1"
	case in.Limit < 0:
		return "limit must be positive"
	}

	if in.Project != nil {
		if len(in.Candidates) == 0 {
			return "At least one candidate is required"
		}
		if err := matching.ValidateProject(*in.Project); err != nil {
			return err.Error()
		}
		seen := make(map[uuid.UUID]bool)
		for _, cand := range in.Candidates {
			if seen[cand.UserID] {
				return "Duplicate candidate ID: " + cand.UserID.String()
			}
			seen[cand.UserID] = true
			if err := matching.ValidateCandidate(cand); err != nil {
				return cand.UserID.String() + ": " + err.Error()
			}
		}
		return ""
	}

	if len(in.Projects) == 0 {
		return "At least one project is required"
	}
	if err := matching.ValidateCandidate(*in.Candidate); err != nil {
		return err.Error()
	}
	seen := make(map[uuid.UUID]bool)
	for _, p := range in.Projects {
		if seen[p.ProjectID] {
			return "Duplicate project ID: " + p.ProjectID.String()
		}
		seen[p.ProjectID] = true
		if err := matching.ValidateProject(p); err != nil {
			return p.ProjectID.String() + ": " + err.Error()
		}
	}
	return ""
}
