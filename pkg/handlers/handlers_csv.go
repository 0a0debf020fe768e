package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arnavshah/skillmatch-api-go/pkg/matching"
	"github.com/arnavshah/skillmatch-api-go/pkg/models"
)

// MatchCSV ranks uploaded candidates against uploaded requirements.
//
// Form files: requirements_file (skill, level, priority), candidates_file (id, name, email, skill, level;
// one row per skill) and optionally availability_file (id, from, to). Form values start and end give the
// project window as YYYY-MM-DD; min_score and limit behave as on the candidate search.
func (h *Handler) MatchCSV(c *gin.Context) {
	reqFile, _ := c.FormFile("requirements_file")
	candFile, _ := c.FormFile("candidates_file")
	availFile, _ := c.FormFile("availability_file")

	if reqFile == nil || candFile == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "requirements_file and candidates_file are required"})
		return
	}

	start, errStart := time.Parse(matching.DateLayout, c.PostForm("start"))
	end, errEnd := time.Parse(matching.DateLayout, c.PostForm("end"))
	if errStart != nil || errEnd != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start and end must be dates formatted YYYY-MM-DD"})
		return
	}

	opts, err := h.matchOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reqs, err := parseRequirements(reqFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	pool, ids, err := parseCandidates(candFile)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if availFile != nil {
		if err := parseAvailability(availFile, pool, ids); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	project := models.Project{
		ProjectID:    uuid.NewSHA1(uuid.NameSpaceOID, []byte("csv-project")),
		Title:        c.PostForm("title"),
		Window:       models.TimeWindow{Start: start, End: end},
		Requirements: reqs,
	}

	candidates := make([]models.Candidate, 0, len(pool))
	for _, cand := range pool {
		candidates = append(candidates, *cand)
	}

	matches, err := matching.FindCandidates(c.Request.Context(), project, candidates, opts)
	if err != nil {
		h.fail(c, err)
		return
	}

	h.RecordUsage(c, len(matches), 0)

	var outCSV strings.Builder
	if err := writeMatchesCSV(&outCSV, matches, ids); err != nil {
		h.Log.Error("csv export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not write csv"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"csv": outCSV.String()})
}

// writeMatchesCSV writes one ranked row per match; ids maps candidate uuids back to the uploaded ids
func writeMatchesCSV(w io.Writer, matches []models.CandidateMatch, ids map[uuid.UUID]string) error {
	writer := csv.NewWriter(w)
	writer.Write([]string{
		"rank", "id", "name", "email", "score",
		"must_have_coverage", "level_fit_score", "nice_to_have_coverage", "availability_score",
		"matched", "missing",
	})
	for i, m := range matches {
		b := m.Score.Breakdown
		writer.Write([]string{
			strconv.Itoa(i + 1),
			ids[m.UserID],
			m.Name,
			m.Email,
			formatScore(m.Score.Value),
			formatScore(b.MustHaveCoverage),
			formatScore(b.LevelFitScore),
			formatScore(b.NiceToHaveCoverage),
			formatScore(b.AvailabilityScore),
			joinMatched(m.MatchedSkills),
			joinMissing(m.MissingSkills),
		})
	}
	writer.Flush()
	return writer.Error()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func joinMatched(skills []models.MatchedSkill) string {
	parts := make([]string, len(skills))
	for i, s := range skills {
		parts[i] = fmt.Sprintf("%s:%d/%d", s.SkillName, s.CandidateLevel, s.RequiredLevel)
	}
	return strings.Join(parts, "|")
}

func joinMissing(skills []models.MissingSkill) string {
	parts := make([]string, len(skills))
	for i, s := range skills {
		parts[i] = s.SkillName
	}
	return strings.Join(parts, "|")
}

func skillID(name string) (uuid.UUID, string) {
	key := strings.ToLower(strings.TrimSpace(name))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("skill:"+key)), key
}

func parseRequirements(fh *multipart.FileHeader) ([]models.SkillRequirement, error) {
	cols, rows, err := readCSV(fh, "skill", "level", "priority")
	if err != nil {
		return nil, fmt.Errorf("requirements_file: %w", err)
	}

	reqs := make([]models.SkillRequirement, 0, len(rows))
	for i, record := range rows {
		id, name := skillID(record[cols["skill"]])
		level, err := strconv.Atoi(strings.TrimSpace(record[cols["level"]]))
		if err != nil {
			return nil, fmt.Errorf("requirements_file row %d: level must be an integer", i+2)
		}
		req := models.SkillRequirement{
			SkillID:       id,
			SkillName:     name,
			RequiredLevel: level,
			Priority:      models.Priority(strings.ToUpper(strings.TrimSpace(record[cols["priority"]]))),
		}
		if err := matching.ValidateProject(models.Project{Requirements: []models.SkillRequirement{req}}); err != nil {
			return nil, fmt.Errorf("requirements_file row %d: %w", i+2, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

// parseCandidates groups skill rows by candidate id; ids maps the derived uuid back to the file's id
func parseCandidates(fh *multipart.FileHeader) (map[uuid.UUID]*models.Candidate, map[uuid.UUID]string, error) {
	cols, rows, err := readCSV(fh, "id", "name", "skill", "level")
	if err != nil {
		return nil, nil, fmt.Errorf("candidates_file: %w", err)
	}
	emailCol, hasEmail := cols["email"]

	pool := make(map[uuid.UUID]*models.Candidate)
	ids := make(map[uuid.UUID]string)
	for i, record := range rows {
		raw := strings.TrimSpace(record[cols["id"]])
		if raw == "" {
			return nil, nil, fmt.Errorf("candidates_file row %d: id is required", i+2)
		}
		uid := uuid.NewSHA1(uuid.NameSpaceOID, []byte("candidate:"+raw))

		cand, ok := pool[uid]
		if !ok {
			cand = &models.Candidate{UserID: uid, Name: record[cols["name"]]}
			if hasEmail {
				cand.Email = record[emailCol]
			}
			pool[uid] = cand
			ids[uid] = raw
		}

		if strings.TrimSpace(record[cols["skill"]]) == "" {
			continue
		}
		level, err := strconv.Atoi(strings.TrimSpace(record[cols["level"]]))
		if err != nil {
			return nil, nil, fmt.Errorf("candidates_file row %d: level must be an integer", i+2)
		}
		if err := matching.ValidateLevel(level); err != nil {
			return nil, nil, fmt.Errorf("candidates_file row %d: %w", i+2, err)
		}
		id, name := skillID(record[cols["skill"]])
		cand.Skills = append(cand.Skills, models.SkillPossession{SkillID: id, SkillName: name, Level: level})
	}
	return pool, ids, nil
}

func parseAvailability(fh *multipart.FileHeader, pool map[uuid.UUID]*models.Candidate, ids map[uuid.UUID]string) error {
	cols, rows, err := readCSV(fh, "id", "from", "to")
	if err != nil {
		return fmt.Errorf("availability_file: %w", err)
	}

	for i, record := range rows {
		uid := uuid.NewSHA1(uuid.NameSpaceOID, []byte("candidate:"+strings.TrimSpace(record[cols["id"]])))
		cand, ok := pool[uid]
		if !ok {
			continue
		}
		from, errFrom := time.Parse(matching.DateLayout, strings.TrimSpace(record[cols["from"]]))
		to, errTo := time.Parse(matching.DateLayout, strings.TrimSpace(record[cols["to"]]))
		if errFrom != nil || errTo != nil {
			return fmt.Errorf("availability_file row %d: dates must be formatted YYYY-MM-DD", i+2)
		}
		if err := matching.ValidateWindow(from, to); err != nil {
			return fmt.Errorf("availability_file row %d: %w", i+2, err)
		}
		cand.Availability = append(cand.Availability, models.AvailabilityWindow{From: from, To: to})
	}

	for uid, cand := range pool {
		if err := matching.ValidateWindows(cand.Availability); err != nil {
			return fmt.Errorf("availability_file id %s: %w", ids[uid], err)
		}
	}
	return nil
}

// readCSV returns the header column index and all data rows, requiring the named columns
func readCSV(fh *multipart.FileHeader, required ...string) (map[string]int, [][]string, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, errors.New("failed to open file")
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, nil, errors.New("failed to read header")
	}
	cols := make(map[string]int)
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("malformed row: %w", err)
		}
		rows = append(rows, record)
	}
	return cols, rows, nil
}
