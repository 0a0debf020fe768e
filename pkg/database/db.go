package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/arnavshah/skillmatch-api-go/pkg/config"
	"github.com/arnavshah/skillmatch-api-go/pkg/matching"
	"github.com/arnavshah/skillmatch-api-go/pkg/models"
)

// Project statuses
const (
	StatusPlanned   = "PLANNED"
	StatusActive    = "ACTIVE"
	StatusCompleted = "COMPLETED"
)

// Skill represents the skills table
type Skill struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// User represents the users table
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserSkill represents the user_skills table
type UserSkill struct {
	ID      uint      `gorm:"primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_skill;not null" json:"user_id"`
	SkillID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_skill;not null" json:"skill_id"`
	Level   int       `gorm:"not null" json:"level"`
}

// Availability represents the availabilities table
type Availability struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	FromDate time.Time `gorm:"not null" json:"from"`
	ToDate   time.Time `gorm:"not null" json:"to"`
}

// Project represents the projects table
type Project struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	Status      string    `gorm:"index;default:PLANNED" json:"status"`
	StartDate   time.Time `gorm:"not null" json:"start_date"`
	EndDate     time.Time `gorm:"not null" json:"end_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProjectSkill represents the project_skills table
type ProjectSkill struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProjectID     uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_project_skill;not null" json:"project_id"`
	SkillID       uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_project_skill;not null" json:"skill_id"`
	RequiredLevel int       `gorm:"not null" json:"required_level"`
	Priority      string    `gorm:"not null" json:"priority"`
}

// APIKey represents the api_keys table
type APIKey struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Key        string     `gorm:"unique;not null" json:"-"`
	KeyPreview string     `json:"key_preview"`
	Name       string     `gorm:"not null" json:"name"`
	RateLimit  int        `gorm:"default:10000" json:"rate_limit"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsed   *time.Time `json:"last_used"`
}

// APIUsage represents the api_usage table; returned counts are matches sent back, not pool sizes
type APIUsage struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	KeyID              uint   `gorm:"uniqueIndex:idx_key_date;not null" json:"key_id"`
	Date               string `gorm:"uniqueIndex:idx_key_date;not null" json:"date"`
	RequestCount       int    `gorm:"default:0" json:"request_count"`
	ReturnedCandidates int    `gorm:"default:0" json:"returned_candidates"`
	ReturnedProjects   int    `gorm:"default:0" json:"returned_projects"`
}

// MasterUser represents the master_users table
type MasterUser struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"unique;not null" json:"username"`
	PasswordHash string    `gorm:"not null" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (s *Skill) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BeforeSave rejects levels outside 1..5
func (s *UserSkill) BeforeSave(tx *gorm.DB) error {
	return matching.ValidateLevel(s.Level)
}

// BeforeSave rejects bad levels and unknown priorities
func (s *ProjectSkill) BeforeSave(tx *gorm.DB) error {
	if err := matching.ValidateLevel(s.RequiredLevel); err != nil {
		return err
	}
	return matching.ValidatePriority(models.Priority(s.Priority))
}

// BeforeSave rejects windows ending before they start
func (a *Availability) BeforeSave(tx *gorm.DB) error {
	return matching.ValidateWindow(a.FromDate, a.ToDate)
}

// AllModels lists every table managed by AutoMigrate
func AllModels() []any {
	return []any{
		&Skill{}, &User{}, &UserSkill{}, &Availability{},
		&Project{}, &ProjectSkill{},
		&APIKey{}, &APIUsage{}, &MasterUser{},
	}
}

// InitDB connects to Postgres when DATABASE_URL is set, otherwise to a SQLite file, and migrates the schema
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	var db *gorm.DB
	var err error

	if cfg.DatabaseURL != "" {
		db, err = gorm.Open(postgres.New(postgres.Config{
			DSN:                  cfg.DatabaseURL,
			PreferSimpleProtocol: true,
		}), &gorm.Config{
			PrepareStmt: false,
		})
	} else {
		db, err = gorm.Open(sqlite.Open(cfg.DataPath), &gorm.Config{})
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return db, nil
}
