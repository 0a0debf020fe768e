package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arnavshah/skillmatch-api-go/pkg/database"
	"github.com/arnavshah/skillmatch-api-go/pkg/matching"
	"github.com/arnavshah/skillmatch-api-go/pkg/models"
)

// FindCandidates ranks users for a project
func (h *Handler) FindCandidates(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}
	opts, err := h.matchOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	matches, err := h.Matcher.FindCandidates(c.Request.Context(), projectID, opts)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.RecordUsage(c, len(matches), 0)
	c.JSON(http.StatusOK, gin.H{
		"project_id": projectID,
		"min_score":  opts.MinScore,
		"limit":      opts.Limit,
		"candidates": matches,
	})
}

// FindProjects ranks projects for a user, optionally filtered by ?status=ACTIVE,PLANNED
func (h *Handler) FindProjects(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	opts, err := h.matchOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var statuses []string
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				statuses = append(statuses, s)
			}
		}
	}

	matches, err := h.Matcher.FindProjects(c.Request.Context(), userID, statuses, opts)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.RecordUsage(c, 0, len(matches))
	c.JSON(http.StatusOK, gin.H{
		"user_id":   userID,
		"min_score": opts.MinScore,
		"limit":     opts.Limit,
		"projects":  matches,
	})
}

// Score computes one candidate/project pair from an inline snapshot
func (h *Handler) Score(c *gin.Context) {
	var input models.ScoreInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validateScoreInput(input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(input.Project.Requirements) == 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "project has no skill requirements"})
		return
	}

	res := matching.ScorePair(input.Candidate, input.Project)
	h.RecordUsage(c, 1, 0)
	c.JSON(http.StatusOK, gin.H{
		"score":          res.Score,
		"matched_skills": res.Matched,
		"missing_skills": res.Missing,
	})
}

func validateScoreInput(in models.ScoreInput) error {
	if err := matching.ValidateProject(in.Project); err != nil {
		return err
	}
	return matching.ValidateCandidate(in.Candidate)
}

// matchOptions reads min_score and limit from the query or form; min_score is clamped to [0, 1], limit capped to the configured max
func (h *Handler) matchOptions(c *gin.Context) (matching.Options, error) {
	opts := matching.Options{MinScore: 0, Limit: h.Config.DefaultLimit}
	param := func(key string) string {
		if v := c.Query(key); v != "" {
			return v
		}
		return c.PostForm(key)
	}

	if raw := param("min_score"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, errors.New("min_score must be a number")
		}
		opts.MinScore = min(max(v, 0), 1)
	}

	if raw := param("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return opts, errors.New("limit must be a positive integer")
		}
		opts.Limit = n
	}
	if opts.Limit > h.Config.MaxLimit {
		opts.Limit = h.Config.MaxLimit
	}
	return opts, nil
}

// fail maps service errors onto HTTP status codes
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, matching.ErrInvalidLevel),
		errors.Is(err, matching.ErrInvalidPriority),
		errors.Is(err, matching.ErrInvalidWindow):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled"})
	default:
		h.Log.Error("match request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
