package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/arnavshah/skillmatch-api-go/pkg/models"
)

// ErrNotFound is returned when a requested user or project does not exist
var ErrNotFound = errors.New("not found")

// Store loads matcher snapshots from the database
type Store struct {
	DB *gorm.DB
}

// NewStore wraps a gorm connection
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

type skillRow struct {
	OwnerID   uuid.UUID
	SkillID   uuid.UUID
	SkillName string
	Level     int
	Priority  string
}

// ProjectSnapshot loads one project with its requirements
func (s *Store) ProjectSnapshot(ctx context.Context, id uuid.UUID) (models.Project, error) {
	var p Project
	if err := s.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
		}
		return models.Project{}, fmt.Errorf("load project %s: %w", id, err)
	}

	reqs, err := s.requirementsByProject(ctx, []uuid.UUID{id})
	if err != nil {
		return models.Project{}, err
	}
	return projectSnapshot(p, reqs[p.ID]), nil
}

// UserSnapshot loads one user with skills and availability
func (s *Store) UserSnapshot(ctx context.Context, id uuid.UUID) (models.Candidate, error) {
	var u User
	if err := s.DB.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Candidate{}, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return models.Candidate{}, fmt.Errorf("load user %s: %w", id, err)
	}

	skills, err := s.skillsByUser(ctx, []uuid.UUID{id})
	if err != nil {
		return models.Candidate{}, err
	}
	windows, err := s.availabilityByUser(ctx, []uuid.UUID{id})
	if err != nil {
		return models.Candidate{}, err
	}
	return candidateSnapshot(u, skills[u.ID], windows[u.ID]), nil
}

// CandidatePool loads every user with skills and availability, one query per table
func (s *Store) CandidatePool(ctx context.Context) ([]models.Candidate, error) {
	var users []User
	if err := s.DB.WithContext(ctx).Order("id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	skills, err := s.skillsByUser(ctx, nil)
	if err != nil {
		return nil, err
	}
	windows, err := s.availabilityByUser(ctx, nil)
	if err != nil {
		return nil, err
	}

	pool := make([]models.Candidate, 0, len(users))
	for _, u := range users {
		pool = append(pool, candidateSnapshot(u, skills[u.ID], windows[u.ID]))
	}
	return pool, nil
}

// ProjectPool loads every project, optionally restricted to the given statuses
func (s *Store) ProjectPool(ctx context.Context, statuses []string) ([]models.Project, error) {
	q := s.DB.WithContext(ctx).Order("id")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var projects []Project
	if err := q.Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	if len(projects) == 0 {
		return []models.Project{}, nil
	}

	var ids []uuid.UUID
	if len(statuses) > 0 {
		ids = make([]uuid.UUID, len(projects))
		for i, p := range projects {
			ids[i] = p.ID
		}
	}
	reqs, err := s.requirementsByProject(ctx, ids)
	if err != nil {
		return nil, err
	}

	pool := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		pool = append(pool, projectSnapshot(p, reqs[p.ID]))
	}
	return pool, nil
}

// skillsByUser groups possessions by user; nil ids loads all users
func (s *Store) skillsByUser(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.SkillPossession, error) {
	q := s.DB.WithContext(ctx).Table("user_skills").
		Select("user_skills.user_id AS owner_id, user_skills.skill_id, skills.name AS skill_name, user_skills.level").
		Joins("JOIN skills ON skills.id = user_skills.skill_id").
		Order("user_skills.id")
	if ids != nil {
		q = q.Where("user_skills.user_id IN ?", ids)
	}

	var rows []skillRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load user skills: %w", err)
	}

	out := make(map[uuid.UUID][]models.SkillPossession)
	for _, r := range rows {
		out[r.OwnerID] = append(out[r.OwnerID], models.SkillPossession{
			SkillID:   r.SkillID,
			SkillName: r.SkillName,
			Level:     r.Level,
		})
	}
	return out, nil
}

// availabilityByUser groups availability windows by user; nil ids loads all users
func (s *Store) availabilityByUser(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.AvailabilityWindow, error) {
	q := s.DB.WithContext(ctx).Order("from_date")
	if ids != nil {
		q = q.Where("user_id IN ?", ids)
	}

	var rows []Availability
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}

	out := make(map[uuid.UUID][]models.AvailabilityWindow)
	for _, a := range rows {
		out[a.UserID] = append(out[a.UserID], models.AvailabilityWindow{From: a.FromDate, To: a.ToDate})
	}
	return out, nil
}

// requirementsByProject groups requirements by project; nil ids loads all projects
func (s *Store) requirementsByProject(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.SkillRequirement, error) {
	q := s.DB.WithContext(ctx).Table("project_skills").
		Select("project_skills.project_id AS owner_id, project_skills.skill_id, skills.name AS skill_name, project_skills.required_level AS level, project_skills.priority").
		Joins("JOIN skills ON skills.id = project_skills.skill_id").
		Order("project_skills.id")
	if ids != nil {
		q = q.Where("project_skills.project_id IN ?", ids)
	}

	var rows []skillRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load project skills: %w", err)
	}

	out := make(map[uuid.UUID][]models.SkillRequirement)
	for _, r := range rows {
		out[r.OwnerID] = append(out[r.OwnerID], models.SkillRequirement{
			SkillID:       r.SkillID,
			SkillName:     r.SkillName,
			RequiredLevel: r.Level,
			Priority:      models.Priority(r.Priority),
		})
	}
	return out, nil
}

func candidateSnapshot(u User, skills []models.SkillPossession, windows []models.AvailabilityWindow) models.Candidate {
	if skills == nil {
		skills = []models.SkillPossession{}
	}
	if windows == nil {
		windows = []models.AvailabilityWindow{}
	}
	return models.Candidate{
		UserID:       u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Skills:       skills,
		Availability: windows,
	}
}

func projectSnapshot(p Project, reqs []models.SkillRequirement) models.Project {
	if reqs == nil {
		reqs = []models.SkillRequirement{}
	}
	return models.Project{
		ProjectID:    p.ID,
		Title:        p.Title,
		Status:       p.Status,
		Window:       models.TimeWindow{Start: p.StartDate, End: p.EndDate},
		Requirements: reqs,
	}
}
