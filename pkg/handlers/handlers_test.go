package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/arnavshah/skillmatch-api-go/pkg/auth"
	"github.com/arnavshah/skillmatch-api-go/pkg/config"
	"github.com/arnavshah/skillmatch-api-go/pkg/database"
	"github.com/arnavshah/skillmatch-api-go/pkg/models"
)

var (
	aliceID  = uuid.MustParse("a0000000-0000-4000-8000-000000000001")
	bobID    = uuid.MustParse("b0000000-0000-4000-8000-000000000002")
	ledgerID = uuid.MustParse("c0000000-0000-4000-8000-000000000003")
	emptyID  = uuid.MustParse("e0000000-0000-4000-8000-000000000005")
)

type testServer struct {
	h      *Handler
	router *gin.Engine
	apiKey string
}

func date(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.PasswordCost = bcrypt.MinCost

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(database.AllModels()...))

	cfg := &config.Config{
		JWTSecret:       "jwt-test",
		APIMasterSecret: "api-test",
		DefaultLimit:    20,
		MaxLimit:        50,
	}
	h := New(db, cfg, nil, nil)

	_, err = auth.EnsureAdminExists(db, "admin", "pw")
	require.NoError(t, err)

	_, err = h.Store.Import(context.Background(), database.Bundle{
		Users: []database.UserRecord{
			{
				ID: aliceID, Name: "Alice", Email: "alice@example.com",
				Skills:       []database.SkillLevel{{Skill: "kotlin", Level: 4}, {Skill: "docker", Level: 2}},
				Availability: []database.WindowRecord{{From: date("2026-03-01"), To: date("2026-06-01")}},
			},
			{
				ID: bobID, Name: "Bob", Email: "bob@example.com",
				Skills: []database.SkillLevel{{Skill: "sql", Level: 3}},
			},
		},
		Projects: []database.ProjectRecord{
			{
				ID: ledgerID, Title: "Ledger", Status: database.StatusActive,
				Start: date("2026-03-01"), End: date("2026-09-01"),
				Requirements: []database.SkillLevel{
					{Skill: "kotlin", Level: 3, Priority: "MUST_HAVE"},
					{Skill: "docker", Level: 2, Priority: "NICE_TO_HAVE"},
				},
			},
			{ID: emptyID, Title: "Empty", Start: date("2026-03-01"), End: date("2026-04-01")},
		},
	})
	require.NoError(t, err)

	return &testServer{h: h, router: h.Router(), apiKey: h.Auth.GenerateHMACKey("tester")}
}

func (s *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil), s.apiKey)
}

func (s *testServer) postJSON(path string, body any, token string) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, token)
}

func TestRoot(t *testing.T) {
	s := newTestServer(t)
	w := s.do(httptest.NewRequest(http.MethodGet, "/", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/health", nil), "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	s := newTestServer(t)

	w := s.do(httptest.NewRequest(http.MethodGet, "/api/projects/"+ledgerID.String()+"/candidates", nil), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, "/api/projects/"+ledgerID.String()+"/candidates", nil), "tester.forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFindCandidatesEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.get("/api/projects/" + ledgerID.String() + "/candidates")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Candidates []models.CandidateMatch `json:"candidates"`
		Limit      int                     `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 20, resp.Limit)
	require.Len(t, resp.Candidates, 1)

	alice := resp.Candidates[0]
	assert.Equal(t, aliceID, alice.UserID)
	assert.Equal(t, 0.88, alice.Score.Value)
	assert.Equal(t, 0.5, alice.Score.Breakdown.AvailabilityScore)
	assert.Len(t, alice.MatchedSkills, 2)
	assert.Empty(t, alice.MissingSkills)
}

func TestFindCandidatesEndpoint_Selection(t *testing.T) {
	s := newTestServer(t)
	base := "/api/projects/" + ledgerID.String() + "/candidates"

	w := s.get(base + "?min_score=0.9")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"candidates":[]`)

	w = s.get("/api/projects/" + emptyID.String() + "/candidates")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"candidates":[]`)

	w = s.get(base + "?min_score=7&limit=500")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"min_score":1`)
	assert.Contains(t, w.Body.String(), `"limit":50`)

	assert.Equal(t, http.StatusBadRequest, s.get(base+"?limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, s.get(base+"?min_score=high").Code)
}

func TestFindCandidatesEndpoint_Errors(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, s.get("/api/projects/"+uuid.NewString()+"/candidates").Code)
	assert.Equal(t, http.StatusBadRequest, s.get("/api/projects/not-a-uuid/candidates").Code)
	assert.Equal(t, http.StatusNotFound, s.get("/api/users/"+uuid.NewString()+"/projects").Code)
}

func TestFindProjectsEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.get("/api/users/" + aliceID.String() + "/projects?status=active")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Projects []models.ProjectMatch `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Projects, 1)
	assert.Equal(t, ledgerID, resp.Projects[0].ProjectID)
	assert.Equal(t, 0.88, resp.Projects[0].Score.Value)

	w = s.get("/api/users/" + bobID.String() + "/projects")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"projects":[]`)
}

func TestScoreEndpoint(t *testing.T) {
	s := newTestServer(t)
	kotlin := uuid.New()

	input := models.ScoreInput{
		Project: models.Project{
			Window: models.TimeWindow{Start: date("2026-03-01"), End: date("2026-09-01")},
			Requirements: []models.SkillRequirement{
				{SkillID: kotlin, SkillName: "kotlin", RequiredLevel: 3, Priority: models.PriorityMustHave},
			},
		},
		Candidate: models.Candidate{
			Skills:       []models.SkillPossession{{SkillID: kotlin, SkillName: "kotlin", Level: 4}},
			Availability: []models.AvailabilityWindow{{From: date("2026-03-01"), To: date("2026-09-01")}},
		},
	}

	w := s.postJSON("/api/match/score", input, s.apiKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Score models.MatchScore `json:"score"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1.0, resp.Score.Value)

	input.Candidate.Skills[0].Level = 9
	assert.Equal(t, http.StatusBadRequest, s.postJSON("/api/match/score", input, s.apiKey).Code)

	input.Candidate.Skills[0].Level = 3
	input.Project.Requirements = nil
	assert.Equal(t, http.StatusUnprocessableEntity, s.postJSON("/api/match/score", input, s.apiKey).Code)
}

func TestValidateEndpoint(t *testing.T) {
	s := newTestServer(t)
	id := uuid.New()

	w := s.postJSON("/api/validate", models.FindInput{
		Project:    &models.Project{},
		Candidates: []models.Candidate{{UserID: id}, {UserID: id}},
	}, s.apiKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Duplicate candidate ID")

	w = s.postJSON("/api/validate", models.FindInput{
		Candidate: &models.Candidate{UserID: id},
		Projects:  []models.Project{{ProjectID: uuid.New()}},
	}, s.apiKey)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"valid":true`)

	w = s.postJSON("/api/validate", models.FindInput{}, s.apiKey)
	assert.Contains(t, w.Body.String(), `"valid":false`)
}

func TestUsageRecorded(t *testing.T) {
	s := newTestServer(t)

	require.Equal(t, http.StatusOK, s.get("/api/projects/"+ledgerID.String()+"/candidates").Code)
	require.Equal(t, http.StatusOK, s.get("/api/users/"+aliceID.String()+"/projects").Code)

	w := s.get("/api/usage")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Totals struct {
			Requests   int `json:"requests"`
			Candidates int `json:"candidates"`
			Projects   int `json:"projects"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Totals.Requests)
	assert.Equal(t, 1, resp.Totals.Candidates)
	assert.Equal(t, 1, resp.Totals.Projects)
	assert.Contains(t, w.Body.String(), `"returned_candidates":1`)
}

func TestUsageCountsReturnedMatches(t *testing.T) {
	s := newTestServer(t)

	// alice is scored but filtered out by the threshold
	w := s.get("/api/projects/" + ledgerID.String() + "/candidates?min_score=0.95")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"candidates":[]`)

	var usage []database.APIUsage
	require.NoError(t, s.h.DB.Find(&usage).Error)
	require.Len(t, usage, 1)
	assert.Equal(t, 1, usage[0].RequestCount)
	assert.Equal(t, 0, usage[0].ReturnedCandidates)
}

func TestAPIKeyLastUsedFailureLogged(t *testing.T) {
	s := newTestServer(t)
	core, logs := observer.New(zap.WarnLevel)
	s.h.Log = zap.New(core)

	require.NoError(t, s.h.DB.Callback().Update().Before("gorm:update").Register("test:fail_update", func(tx *gorm.DB) {
		if tx.Statement.Table == "api_keys" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}))

	w := s.get("/api/usage")
	assert.Equal(t, http.StatusOK, w.Code)

	entries := logs.FilterMessage("last_used not updated").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "disk full", entries[0].ContextMap()["error"])
}

func TestImportRejectsIncompleteRecords(t *testing.T) {
	s := newTestServer(t)

	w := s.postJSON("/admin/login", gin.H{"username": "admin", "password": "pw"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = s.postJSON("/admin/import", database.Bundle{Users: []database.UserRecord{
		{Name: "Hana", Email: "hana@example.com"},
		{Name: "Ivo"},
	}}, login.AccessToken)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	w = s.postJSON("/admin/import", database.Bundle{Users: []database.UserRecord{{
		Name: "Jo", Email: "jo@example.com",
		Availability: []database.WindowRecord{
			{From: date("2026-03-01"), To: date("2026-06-01")},
			{From: date("2026-03-01"), To: date("2026-06-01")},
		},
	}}}, login.AccessToken)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestAdminFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.postJSON("/admin/login", gin.H{"username": "admin", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.postJSON("/admin/login", gin.H{"username": "admin", "password": "pw"}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	assert.Equal(t, http.StatusUnauthorized, s.do(httptest.NewRequest(http.MethodGet, "/admin/keys", nil), "").Code)

	w = s.postJSON("/admin/keys", gin.H{"name": "team-red"}, login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	var created struct {
		ID  uint   `json:"id"`
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	owner, err := s.h.Auth.VerifyHMACKey(created.Key)
	require.NoError(t, err)
	assert.Equal(t, "team-red", owner)

	w = s.do(httptest.NewRequest(http.MethodGet, "/admin/keys", nil), login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "team-red")
	assert.NotContains(t, w.Body.String(), created.Key)

	w = s.postJSON("/admin/import", database.Bundle{Users: []database.UserRecord{{
		Name: "Cleo", Email: "cleo@example.com",
		Skills: []database.SkillLevel{{Skill: "kotlin", Level: 5}},
	}}}, login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.postJSON("/admin/import", database.Bundle{Users: []database.UserRecord{{
		Name: "Dee", Email: "dee@example.com",
		Skills: []database.SkillLevel{{Skill: "kotlin", Level: 0}},
	}}}, login.AccessToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	path := fmt.Sprintf("/admin/keys/%d", created.ID)
	assert.Equal(t, http.StatusOK, s.do(httptest.NewRequest(http.MethodDelete, path, nil), login.AccessToken).Code)
	assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodDelete, path, nil), login.AccessToken).Code)
}

func TestMatchCSV(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	files := map[string]string{
		"requirements_file": "skill,level,priority\nKotlin,3,must_have\ndocker,2,NICE_TO_HAVE\n",
		"candidates_file":   "id,name,email,skill,level\nu1,Ann,ann@x.io,kotlin,4\nu1,Ann,ann@x.io,docker,2\nu2,Ben,ben@x.io,kotlin,2\nu3,Cy,cy@x.io,go,5\n",
		"availability_file": "id,from,to\nu1,2026-03-01,2026-06-01\n",
	}
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.WriteField("start", "2026-03-01"))
	require.NoError(t, mw.WriteField("end", "2026-09-01"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/match/csv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := s.do(req, s.apiKey)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		CSV string `json:"csv"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	lines := strings.Split(strings.TrimSpace(resp.CSV), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "1,u1,Ann,ann@x.io,0.88,"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "2,u2,Ben,"), lines[2])
	assert.True(t, strings.HasSuffix(lines[2], ",kotlin:2/3,docker"), lines[2])
}

func TestMatchCSV_OverlappingAvailability(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	files := map[string]string{
		"requirements_file": "skill,level,priority\nkotlin,3,MUST_HAVE\n",
		"candidates_file":   "id,name,email,skill,level\nu1,Ann,ann@x.io,kotlin,4\n",
		"availability_file": "id,from,to\nu1,2026-03-01,2026-06-01\nu1,2026-03-01,2026-06-01\n",
	}
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.WriteField("start", "2026-03-01"))
	require.NoError(t, mw.WriteField("end", "2026-09-01"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/match/csv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := s.do(req, s.apiKey)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "u1")
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestWriteMatchesCSV_ReportsWriteError(t *testing.T) {
	err := writeMatchesCSV(brokenWriter{}, []models.CandidateMatch{{UserID: aliceID, Name: "Alice"}},
		map[uuid.UUID]string{aliceID: "a1"})
	assert.EqualError(t, err, "closed pipe")

	var buf bytes.Buffer
	require.NoError(t, writeMatchesCSV(&buf, nil, nil))
	assert.True(t, strings.HasPrefix(buf.String(), "rank,id,name"))
}

func TestMatchCSV_MissingFiles(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("start", "2026-03-01"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/match/csv", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	assert.Equal(t, http.StatusBadRequest, s.do(req, s.apiKey).Code)
}
