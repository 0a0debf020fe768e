package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/skillmatch-api-go/pkg/database"
	"github.com/arnavshah/skillmatch-api-go/pkg/matching"
)

// Import loads a bundle of users and projects
func (h *Handler) Import(c *gin.Context) {
	var bundle database.Bundle
	if err := c.ShouldBindJSON(&bundle); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(bundle.Users) == 0 && len(bundle.Projects) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bundle is empty"})
		return
	}

	stats, err := h.Store.Import(c.Request.Context(), bundle)
	if err != nil {
		if errors.Is(err, database.ErrMissingField) ||
			errors.Is(err, matching.ErrInvalidLevel) ||
			errors.Is(err, matching.ErrInvalidPriority) ||
			errors.Is(err, matching.ErrInvalidWindow) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.Log.Error("import failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not import bundle"})
		return
	}

	h.Log.Info("bundle imported",
		zap.String("admin", c.GetString("username")),
		zap.Int("users", len(stats.Users)),
		zap.Int("projects", len(stats.Projects)),
		zap.Int("skills_created", stats.Skills))
	c.JSON(http.StatusOK, stats)
}
