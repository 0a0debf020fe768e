package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/arnavshah/skillmatch-api-go/pkg/matching"
	"github.com/arnavshah/skillmatch-api-go/pkg/models"
)

// ErrMissingField is returned by Import when a record lacks a required value
var ErrMissingField = errors.New("missing required field")

// Bundle is a batch of users and projects to load, referencing skills by name
type Bundle struct {
	Users    []UserRecord    `json:"users" binding:"dive"`
	Projects []ProjectRecord `json:"projects" binding:"dive"`
}

// UserRecord is a user with skills and availability
type UserRecord struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name" binding:"required"`
	Email        string         `json:"email" binding:"required"`
	Skills       []SkillLevel   `json:"skills"`
	Availability []WindowRecord `json:"availability"`
}

// ProjectRecord is a project with requirements
type ProjectRecord struct {
	ID           uuid.UUID    `json:"id"`
	Title        string       `json:"title" binding:"required"`
	Description  string       `json:"description"`
	Status       string       `json:"status"`
	Start        time.Time    `json:"start"`
	End          time.Time    `json:"end"`
	Requirements []SkillLevel `json:"requirements"`
}

// SkillLevel names a skill with a level and, for requirements, a priority
type SkillLevel struct {
	Skill    string `json:"skill"`
	Level    int    `json:"level"`
	Priority string `json:"priority,omitempty"`
}

// WindowRecord is an availability range
type WindowRecord struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ImportStats counts what an import wrote
type ImportStats struct {
	Skills   int         `json:"skills_created"`
	Users    []uuid.UUID `json:"users"`
	Projects []uuid.UUID `json:"projects"`
}

// Import upserts the bundle in one transaction. Imported users and projects have their
// skills, availability and requirements replaced by the bundle's.
func (s *Store) Import(ctx context.Context, b Bundle) (ImportStats, error) {
	stats := ImportStats{Users: []uuid.UUID{}, Projects: []uuid.UUID{}}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		skillIDs := make(map[string]uuid.UUID)
		resolve := func(name string) (uuid.UUID, error) {
			key := strings.ToLower(strings.TrimSpace(name))
			if key == "" {
				return uuid.Nil, fmt.Errorf("skill name is required")
			}
			if id, ok := skillIDs[key]; ok {
				return id, nil
			}
			sk := Skill{Name: key}
			res := tx.Where(Skill{Name: key}).FirstOrCreate(&sk)
			if res.Error != nil {
				return uuid.Nil, fmt.Errorf("resolve skill %q: %w", key, res.Error)
			}
			if res.RowsAffected > 0 {
				stats.Skills++
			}
			skillIDs[key] = sk.ID
			return sk.ID, nil
		}

		for i, ur := range b.Users {
			if err := checkUser(ur); err != nil {
				return fmt.Errorf("users[%d]: %w", i, err)
			}
			u := User{ID: ur.ID, Name: ur.Name, Email: ur.Email}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"name", "email", "updated_at"}),
			}).Create(&u).Error; err != nil {
				return fmt.Errorf("user %s: %w", ur.Email, err)
			}

			if err := tx.Where("user_id = ?", u.ID).Delete(&UserSkill{}).Error; err != nil {
				return fmt.Errorf("user %s: clear skills: %w", ur.Email, err)
			}
			if err := tx.Where("user_id = ?", u.ID).Delete(&Availability{}).Error; err != nil {
				return fmt.Errorf("user %s: clear availability: %w", ur.Email, err)
			}

			for _, sl := range ur.Skills {
				id, err := resolve(sl.Skill)
				if err != nil {
					return fmt.Errorf("user %s: %w", ur.Email, err)
				}
				if err := tx.Create(&UserSkill{UserID: u.ID, SkillID: id, Level: sl.Level}).Error; err != nil {
					return fmt.Errorf("user %s: skill %s: %w", ur.Email, sl.Skill, err)
				}
			}
			for _, w := range ur.Availability {
				if err := tx.Create(&Availability{UserID: u.ID, FromDate: w.From, ToDate: w.To}).Error; err != nil {
					return fmt.Errorf("user %s: availability: %w", ur.Email, err)
				}
			}
			stats.Users = append(stats.Users, u.ID)
		}

		for i, pr := range b.Projects {
			if strings.TrimSpace(pr.Title) == "" {
				return fmt.Errorf("projects[%d]: title: %w", i, ErrMissingField)
			}
			status := strings.ToUpper(pr.Status)
			if status == "" {
				status = StatusPlanned
			}
			p := Project{ID: pr.ID, Title: pr.Title, Description: pr.Description, Status: status, StartDate: pr.Start, EndDate: pr.End}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "description", "status", "start_date", "end_date", "updated_at"}),
			}).Create(&p).Error; err != nil {
				return fmt.Errorf("project %s: %w", pr.Title, err)
			}

			if err := tx.Where("project_id = ?", p.ID).Delete(&ProjectSkill{}).Error; err != nil {
				return fmt.Errorf("project %s: clear requirements: %w", pr.Title, err)
			}
			for _, req := range pr.Requirements {
				id, err := resolve(req.Skill)
				if err != nil {
					return fmt.Errorf("project %s: %w", pr.Title, err)
				}
				ps := ProjectSkill{ProjectID: p.ID, SkillID: id, RequiredLevel: req.Level, Priority: strings.ToUpper(req.Priority)}
				if err := tx.Create(&ps).Error; err != nil {
					return fmt.Errorf("project %s: requirement %s: %w", pr.Title, req.Skill, err)
				}
			}
			stats.Projects = append(stats.Projects, p.ID)
		}
		return nil
	})
	if err != nil {
		return ImportStats{}, err
	}
	return stats, nil
}

// checkUser rejects blank identity fields and overlapping availability
func checkUser(ur UserRecord) error {
	if strings.TrimSpace(ur.Name) == "" {
		return fmt.Errorf("name: %w", ErrMissingField)
	}
	if strings.TrimSpace(ur.Email) == "" {
		return fmt.Errorf("email: %w", ErrMissingField)
	}
	windows := make([]models.AvailabilityWindow, len(ur.Availability))
	for i, w := range ur.Availability {
		windows[i] = models.AvailabilityWindow{From: w.From, To: w.To}
	}
	if err := matching.ValidateWindows(windows); err != nil {
		return fmt.Errorf("user %s: availability: %w", ur.Email, err)
	}
	return nil
}
