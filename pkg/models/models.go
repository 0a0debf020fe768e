package models

import (
	"time"

	"github.com/google/uuid"
)

// Priority classifies a project's skill requirement
type Priority string

const (
	PriorityMustHave   Priority = "MUST_HAVE"
	PriorityNiceToHave Priority = "NICE_TO_HAVE"
)

// SkillRequirement is a skill a project asks for at a minimum level
type SkillRequirement struct {
	SkillID       uuid.UUID `json:"skill_id"`
	SkillName     string    `json:"skill_name"`
	RequiredLevel int       `json:"required_level"`
	Priority      Priority  `json:"priority"`
}

// SkillPossession is a skill a user holds at a given level
type SkillPossession struct {
	SkillID   uuid.UUID `json:"skill_id"`
	SkillName string    `json:"skill_name"`
	Level     int       `json:"level"`
}

// AvailabilityWindow is a date range a user declared as available
type AvailabilityWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// TimeWindow is a project's active period
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ScoreBreakdown explains how a composite score was reached
type ScoreBreakdown struct {
	MustHaveCoverage   float64 `json:"must_have_coverage"`
	LevelFitScore      float64 `json:"level_fit_score"`
	NiceToHaveCoverage float64 `json:"nice_to_have_coverage"`
	AvailabilityScore  float64 `json:"availability_score"`
}

// MatchScore is the composite score plus its breakdown
type MatchScore struct {
	Value     float64        `json:"value"`
	Breakdown ScoreBreakdown `json:"breakdown"`
}

// MatchedSkill is a requirement the candidate possesses, at any level
type MatchedSkill struct {
	SkillID        uuid.UUID `json:"skill_id"`
	SkillName      string    `json:"skill_name"`
	Priority       Priority  `json:"priority"`
	RequiredLevel  int       `json:"required_level"`
	CandidateLevel int       `json:"candidate_level"`
}

// MissingSkill is a requirement the candidate does not possess
type MissingSkill struct {
	SkillID       uuid.UUID `json:"skill_id"`
	SkillName     string    `json:"skill_name"`
	Priority      Priority  `json:"priority"`
	RequiredLevel int       `json:"required_level"`
}

// Candidate is a user snapshot as seen by the matcher
type Candidate struct {
	UserID       uuid.UUID            `json:"user_id"`
	Name         string               `json:"name"`
	Email        string               `json:"email,omitempty"`
	Skills       []SkillPossession    `json:"skills"`
	Availability []AvailabilityWindow `json:"availability"`
}

// Project is a project snapshot as seen by the matcher
type Project struct {
	ProjectID    uuid.UUID          `json:"project_id"`
	Title        string             `json:"title"`
	Status       string             `json:"status,omitempty"`
	Window       TimeWindow         `json:"window"`
	Requirements []SkillRequirement `json:"requirements"`
}

// CandidateMatch is one ranked entry of a candidate search
type CandidateMatch struct {
	UserID        uuid.UUID      `json:"user_id"`
	Name          string         `json:"name"`
	Email         string         `json:"email,omitempty"`
	Score         MatchScore     `json:"score"`
	MatchedSkills []MatchedSkill `json:"matched_skills"`
	MissingSkills []MissingSkill `json:"missing_skills"`
}

// ProjectMatch is one ranked entry of a project search
type ProjectMatch struct {
	ProjectID     uuid.UUID      `json:"project_id"`
	Title         string         `json:"title"`
	Status        string         `json:"status,omitempty"`
	Start         time.Time      `json:"start"`
	End           time.Time      `json:"end"`
	Score         MatchScore     `json:"score"`
	MatchedSkills []MatchedSkill `json:"matched_skills"`
	MissingSkills []MissingSkill `json:"missing_skills"`
}

// ScoreInput is the data structure for the ad-hoc scoring endpoint
type ScoreInput struct {
	Project   Project   `json:"project"`
	Candidate Candidate `json:"candidate"`
}

// FindInput is an offline bundle: one subject and a pool to rank against it
type FindInput struct {
	Project    *Project    `json:"project,omitempty"`
	Candidate  *Candidate  `json:"candidate,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
	Projects   []Project   `json:"projects,omitempty"`
	MinScore   float64     `json:"min_score"`
	Limit      int         `json:"limit"`
}
