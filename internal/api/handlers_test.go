// Vigil - Safety Violation Forensics and Evidence Review
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/vigil/internal/audit"
	"github.com/tomtom215/vigil/internal/auth"
	"github.com/tomtom215/vigil/internal/authz"
	"github.com/tomtom215/vigil/internal/config"
	"github.com/tomtom215/vigil/internal/forensics"
	"github.com/tomtom215/vigil/internal/middleware"
	"github.com/tomtom215/vigil/internal/models"
)

var testNow = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

const testSecret = "test-secret-with-at-least-32-characters!"

type testServer struct {
	handler http.Handler
	store   *forensics.MemoryStore
	audit   *audit.Logger
	jwt     *auth.JWTManager
	checks  map[string]HealthCheck
}

// testEnvelope mirrors models.APIResponse with raw data.
type testEnvelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

// apiViolation builds a violation in site-001/zone-001/cam-001 detected
// n hours before testNow.
func apiViolation(n int, sev models.Severity, confidence float64) models.Violation {
	id := fmt.Sprintf("VIO-%05d", n)
	at := testNow.Add(-time.Duration(n) * time.Hour)
	return models.Violation{
		ID:              id,
		DetectionType:   models.DetectionPPEHardhat,
		Severity:        sev,
		ConfidenceScore: confidence,
		Description:     "Worker without hardhat",
		SiteID:          "site-001",
		SiteName:        "Main Construction Site",
		ZoneID:          "zone-001",
		ZoneName:        "Heavy Equipment Area",
		CameraID:        "cam-001",
		CameraName:      "Entrance Camera",
		DetectedAt:      at,
		Status:          models.StatusActive,
		Evidence: []models.Evidence{{
			ID:           fmt.Sprintf("EVD-%05d-001", n),
			ViolationID:  id,
			Type:         models.MediaImage,
			OriginalURL:  fmt.Sprintf("/media/evidence/%05d_original.jpg", n),
			BlurredURL:   fmt.Sprintf("/media/evidence/%05d_blurred.jpg", n),
			ThumbnailURL: fmt.Sprintf("/media/evidence/%05d_thumb.jpg", n),
			CreatedAt:    at,
		}},
		Comments: []models.Comment{},
	}
}

// apiPopulation returns 100 violations; the first 20 are critical and the
// first 10 have confidence 0.97.
func apiPopulation() []models.Violation {
	out := make([]models.Violation, 0, 100)
	for i := 1; i <= 100; i++ {
		sev := models.SeverityLow
		if i <= 20 {
			sev = models.SeverityCritical
		}
		conf := 0.80
		if i <= 10 {
			conf = 0.97
		}
		out = append(out, apiViolation(i, sev, conf))
	}
	return out
}

func newTestServer(t *testing.T, mode auth.AuthMode, creds *auth.CredentialStore) *testServer {
	t.Helper()

	enforcer, err := authz.NewEnforcer(authz.DefaultEnforcerConfig())
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	t.Cleanup(enforcer.Close)

	auditLogger := audit.NewLogger(audit.NewMemoryStore(1000), audit.DefaultConfig())
	t.Cleanup(func() { _ = auditLogger.Close() })

	jwtManager, err := auth.NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret, SessionTimeout: time.Hour})
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}

	store := forensics.NewMemoryStore(apiPopulation()...)
	engine := forensics.New(store, forensics.Config{
		PageSize:    12,
		MaxPageSize: 100,
		Directory:   forensics.DefaultDirectory(),
		Authorizer:  enforcer,
		Recorder:    auditLogger,
		Clock:       func() time.Time { return testNow },
	})

	checks := map[string]HealthCheck{}
	monitor := middleware.NewMonitor(100, time.Minute)
	h := NewHandler(HandlerDeps{
		Engine:       engine,
		Audit:        auditLogger,
		JWT:          jwtManager,
		Credentials:  creds,
		Lockout:      auth.NewLockoutManager(auth.LockoutConfig{MaxAttempts: 2, LockoutDuration: time.Minute}),
		Enforcer:     enforcer,
		Monitor:      monitor,
		AuthMode:     mode,
		Version:      "test",
		HealthChecks: checks,
	})

	authn := auth.NewMiddleware(jwtManager, mode)
	authn.SetFailureObserver(auditLogger)
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true

	router := NewRouter(h, authn, authz.NewMiddleware(enforcer), NewChiMiddleware(cfg), monitor)
	return &testServer{
		handler: router.Setup(),
		store:   store,
		audit:   auditLogger,
		jwt:     jwtManager,
		checks:  checks,
	}
}

func (s *testServer) token(t *testing.T, role string) string {
	t.Helper()
	token, _, err := s.jwt.GenerateToken(auth.User{
		ID:          "local:" + role,
		Username:    role,
		DisplayName: strings.ToUpper(role[:1]) + role[1:],
		Role:        role,
	})
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return token
}

func (s *testServer) do(t *testing.T, method, path, role string, body interface{}) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", "Bearer "+s.token(t, role))
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var env testEnvelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode envelope: %v (body %s)", err, rec.Body.String())
		}
	}
	return rec, env
}

func decodeData(t *testing.T, env testEnvelope, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v (data %s)", err, env.Data)
	}
}

func TestSearch_QueryParams(t *testing.T) {
	s := newTestServer(t, auth.AuthModeJWT, nil)

	tests := []struct {
		name        string
		query       string
		wantTotal   int
		wantPages   int
		wantItems   int
		wantHasNext bool
		wantFirstID string
	}{
		{"critical first page", "severity=critical", 20, 2, 12, true, "VIO-00001"},
		{"critical second page", "severity=critical&page=2", 20, 2, 8, false, "VIO-00013"},
		{"min confidence 95", "min_confidence=95", 10, 1, 10, false, "VIO-00001"},
		{"page beyond end", "severity=critical&page=5", 20, 2, 0, false, ""},
		{"max int page", "severity=critical&page=9223372036854775807", 20, 2, 0, false, ""},
		{"huge page", "page=4611686018427387904&page_size=7", 100, 15, 0, false, ""},
		{"inverted dates", "date_from=2026-03-10&date_to=2026-03-01", 0, 0, 0, false, ""},
		{"whole day date_to", "date_from=2026-03-15&date_to=2026-03-15", 12, 1, 12, false, "VIO-00001"},
		{"text search", "search_text=HARDHAT&page_size=5", 100, 20, 5, true, "VIO-00001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, "/api/v1/forensics/violations?"+tt.query, "viewer", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if env.Metadata.RequestID == "" {
				t.Error("metadata.request_id is empty")
			}

			var res models.PagedResult
			decodeData(t, env, &res)
			if res.Total != tt.wantTotal || res.TotalPages != tt.wantPages || len(res.Items) != tt.wantItems {
				t.Errorf("total/pages/items = %d/%d/%d, want %d/%d/%d",
					res.Total, res.TotalPages, len(res.Items), tt.wantTotal, tt.wantPages, tt.wantItems)
			}
			if res.HasNext != tt.wantHasNext {
				t.Errorf("HasNext = %v, want %v", res.HasNext, tt.wantHasNext)
			}
			if tt.wantFirstID != "" && len(res.Items) > 0 && res.Items[0].ID != tt.wantFirstID {
				t.Errorf("first item = %s, want %s", res.Items[0].ID, tt.wantFirstID)
			}
			for _, v := range res.Items {
				for _, ev := range v.Evidence {
					if ev.OriginalURL != "" {
						t.Fatalf("search leaked original URL for %s", ev.ID)
					}
				}
			}
		})
	}
}

func TestSearch_PostBody(t *testing.T) {
	s := newTestServer(t, auth.AuthModeJWT, nil)

	pct := 95
	rec, env := s.do(t, http.MethodPost, "/api/v1/forensics/search", "viewer", FilterRequest{
		Severity:      "critical",
		MinConfidence: &pct,
		PageSize:      5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var res models.PagedResult
	decodeData(t, env, &res)
	if res.Total != 10 || len(res.Items) != 5 || res.TotalPages != 2 {
		t.Errorf("total/items/pages = %d/%d/%d, want 10/5/2", res.Total, len(res.Items), res.TotalPages)
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/forensics/search", "viewer", `{"severity":"critical","page":9223372036854775807}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("max int page status = %d, body %s", rec.Code, rec.Body.String())
	}
	decodeData(t, env, &res)
	if res.Total != 20 || len(res.Items) != 0 || res.HasNext {
		t.Errorf("max int page total/items/next = %d/%d/%v, want 20/0/false", res.Total, len(res.Items), res.HasNext)
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/forensics/search", "viewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("empty body status = %d", rec.Code)
	}
	decodeData(t, env, &res)
	if res.Total != 100 || res.PageSize != 12 {
		t.Errorf("unfiltered total/page_size = %d/%d, want 100/12", res.Total, res.PageSize)
	}
}

func TestSearch_ValidationErrors(t *testing.T) {
	s := newTestServer(t, auth.AuthModeJWT, nil)

	tests := []struct {
		name      string
		query     string
		wantField string
	}{
		{"non-integer confidence", "min_confidence=high", "min_confidence"},
		{"confidence above range", "min_confidence=101", "min_confidence"},
		{"unknown severity", "severity=urgent", "severity"},
		{"bad date", "date_from=15/03/2026", "date_from"},
		{"bad boolean", "is_false_positive=maybe", "is_false_positive"},
		{"zone outside site", "site_id=site-002&zone_id=zone-001", "zone_id"},
		{"page size too large", "page_size=500", "page_size"},
		{"page beyond int range", "page=99999999999999999999", "page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, "/api/v1/forensics/violations?"+tt.query, "viewer", nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
			if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
				t.Fatalf("error = %+v, want VALIDATION_ERROR", env.Error)
			}
			if got, _ := env.Error.Details["field"].(string); got != tt.wantField {
				t.Errorf("details.field = %q, want %q", got, tt.wantField)
			}
		})
	}
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t, auth.AuthModeJWT, nil)

	rec, env := s.do(t, http.MethodGet, "/api/v1/forensics/violations", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "UNAUTHORIZED" {
		t.Errorf("error = %+v", env.Error)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/forensics/violations", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token status = %d, want 401", rec.Code)
	}
}

func TestAuthModeNone(t *testing.T) {
	s := newTestServer(t, auth.AuthModeNone, nil)

	rec, env := s.do(t, http.MethodGet, "/api/v1/forensics/violations/VIO-00001/evidence/EVD-00001-001/download?reveal_original=true", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var ticket models.DownloadTicket
	decodeData(t, env, &ticket)
	if ticket.Blurred || !strings.HasSuffix(ticket.DownloadURL, "_original.jpg") {
		t.Errorf("ticket = %+v, want original", ticket)
	}
}

func TestGetViolation(t *testing.T) {
	s := newTestServer(t, auth.AuthModeJWT, nil)

	rec, env := s.do(t, http.MethodGet, "/api/v1/forensics/violations/VIO-00003", "viewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var v models.Violation
	decodeData(t, env, &v)
	if v.ID != "VIO-00003" || len(v.Evidence) != 1 {
		t.Fatalf("violation = %+v", v)
	}
	if v.Evidence[0].OriginalURL != "" {
		t.Error("detail leaked original URL")
	}
	if v.Evidence[0].BlurredURL == "" {
		t.Error("blurred URL missing")
	}

	rec, env = s.do(t, http.MethodGet, "/api/v1/forensics/violations/VIO-99999", "viewer", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing status = %d, want 404", rec.Code)
	}
	if env.Error == nil || env.Error.Code != "NOT_FOUND" || env.Error.Details["kind"] != "violation" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestComments(t *testing.T) {
	s := newTestServer(t, auth.AuthModeJWT, nil)
	base := "/api/v1/forensics/violations/VIO-00002/comments"

	rec, _ := s.do(t, http.MethodPost, base, "viewer", models.CommentRequest{Content: "looks fine"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("viewer comment status = %d, want 403", rec.Code)
	}

	rec, env := s.do(t, http.MethodPost, base, "reviewer", models.CommentRequest{Content: "   "})
	if rec.Code != http.StatusBadRequest || env.Error.Details["field"] != "content" {
		t.Errorf("blank comment status = %d, error %+v", rec.Code, env.Error)
	}

	rec, env = s.do(t, http.MethodPost, base, "reviewer", models.CommentRequest{Content: "Supervisor notified"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add status = %d, body %s", rec.Code, rec.Body.String())
	}
	var c models.Comment
	decodeData(t, env, &c)
	if c.ID == "" || c.UserID != "local:reviewer" || c.Content != "Supervisor notified" {
		t.Fatalf("comment = %+v", c)
	}

	ackPath := base + "/" + c.ID + "/acknowledge"
	rec, env = s.do(t, http.MethodPost, ackPath, "investigator", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ack status = %d", rec.Code)
	}
	var acked models.Comment
	decodeData(t, env, &acked)
	if acked.AcknowledgedAt == nil || acked.AcknowledgedBy != "local:investigator" {
		t.Fatalf("acked = %+v", acked)
	}

	rec, env = s.do(t, http.MethodPost, ackPath, "reviewer", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second ack status = %d, want 409", rec.Code)
	}
	var again models.Comment
	decodeData(t, env, &again)
	if again.AcknowledgedBy != "local:investigator" || !again.AcknowledgedAt.Equal(*acked.AcknowledgedAt) {
		t.Errorf("second ack changed the comment: %+v", again)
	}

	rec, _ = s.do(t, http.MethodPost, base+"/CMT-MISSING/acknowledge", "reviewer", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown comment status = %d, want 404", rec.Code)
	}

	_, env = s.do(t, http.MethodGet, "/api/v1/forensics/violations/VIO-00002", "viewer", nil)
	var v models.Violation
	decodeData(t, env, &v)
	if len(v.Comments) != 1 || v.CommentCount != 1 {
		t.Errorf("comments = %d, count = %d; want 1, 1", len(v.Comments), v.CommentCount)
	}
}

func TestDisposition(t *testing.T) {
	s := newTestServer(t, auth.AuthModeJWT, nil)
	base := "/api/v1/forensics/violations/VIO-00004"

	rec, _ := s.do(t, http.MethodPost, base+"/false-positive", "reviewer", models.FalsePositiveRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing reason status = %d, want 400", rec.Code)
	}

	rec, env := s.do(t, http.MethodPost, base+"/false-positive", "reviewer", models.FalsePositiveRequest{Reason: "Shadow on camera"})
	if rec.Code != http.StatusOK {
		t.Fatalf("mark status = %d, body %s", rec.Code, rec.Body.String())
	}
	var v models.Violation
	decodeData(t, env, &v)
	if !v.IsFalsePositive || v.FalsePositiveReason != "Shadow on camera" || v.Status != models.StatusActive {
		t.Errorf("marked = %+v, want false positive with status unchanged", v)
	}

	rec, env = s.do(t, http.MethodDelete, base+"/false-positive", "reviewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("unmark status = %d", rec.Code)
	}
	decodeData(t, env, &v)
	if v.IsFalsePositive || v.FalsePositiveReason != "" {
		t.Errorf("unmarked = %+v", v)
	}

	rec, env = s.do(t, http.MethodPost, base+"/resolve", "reviewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve status = %d", rec.Code)
	}
	decodeData(t, env, &v)
	if v.Status != models.StatusResolved || v.ResolvedAt == nil {
		t.Errorf("resolved = %+v", v)
	}

	rec, _ = s.do(t, http.MethodPost, base+"/resolve", "reviewer", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("double resolve status = %d, want 400", rec.Code)
	}

	rec, env = s.do(t, http.MethodPost, base+"/reopen", "reviewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reopen status = %d", rec.Code)
	}
	decodeData(t, env, &v)
	if v.Status != models.StatusActive || v.ResolvedAt != nil {
		t.Errorf("reopened = %+v", v)
	}

	rec, _ = s.do(t, http.MethodPost, base+"/resolve", "viewer", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("viewer resolve status = %d, want 403", rec.Code)
	}
}

func TestEvidence(t *testing.T) {
	s := newTestServer(t, auth.AuthModeJWT, nil)
	base := "/api/v1/forensics/violations/VIO-00005/evidence"

	rec, env := s.do(t, http.MethodGet, base, "viewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var evidence []models.Evidence
	decodeData(t, env, &evidence)
	if len(evidence) != 1 || evidence[0].OriginalURL != "" {
		t.Fatalf("evidence = %+v", evidence)
	}

	tests := []struct {
		name        string
		role        string
		query       string
		wantStatus  int
		wantBlurred bool
	}{
		{"viewer blurred by default", "viewer", "", http.StatusOK, true},
		{"explicit false", "reviewer", "?reveal_original=false", http.StatusOK, true},
		{"reviewer cannot reveal", "reviewer", "?reveal_original=true", http.StatusForbidden, false},
		{"investigator reveals", "investigator", "?reveal_original=true", http.StatusOK, false},
		{"bad flag", "investigator", "?reveal_original=please", http.StatusBadRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, base+"/EVD-00005-001/download"+tt.query, tt.role, nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if rec.Code != http.StatusOK {
				return
			}
			var ticket models.DownloadTicket
			decodeData(t, env, &ticket)
			if ticket.Blurred != tt.wantBlurred {
				t.Errorf("Blurred = %v, want %v", ticket.Blurred, tt.wantBlurred)
			}
			wantSuffix := "_original.jpg"
			if tt.wantBlurred {
				wantSuffix = "_blurred.jpg"
			}
			if !strings.HasSuffix(ticket.DownloadURL, wantSuffix) {
				t.Errorf("DownloadURL = %q, want suffix %q", ticket.DownloadURL, wantSuffix)
			}
		})
	}

	rec, _ = s.do(t, http.MethodGet, base+"/EVD-NOPE/download", "viewer", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown evidence status = %d, want 404", rec.Code)
	}

	reveals, err := s.audit.Query(context.Background(), audit.QueryFilter{
		Types:    []audit.EventType{audit.EventTypeOriginalRevealed},
		TargetID: "VIO-00005",
	})
	if err != nil {
		t.Fatalf("audit Query() error = %v", err)
	}
	if len(reveals) != 1 || reveals[0].Actor.Role != "investigator" {
		t.Errorf("original reveals in audit = %+v, want one by investigator", reveals)
	}
}

func TestExport(t *testing.T) {
	s := newTestServer(t, auth.AuthModeJWT, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/forensics/export?format=csv", strings.NewReader(`{"severity":"critical","page":3,"page_size":5}`))
	req.Header.Set("Authorization", "Bearer "+s.token(t, "reviewer"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") || !strings.Contains(cd, ".csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\r\n"), "\r\n")
	if len(lines) != 21 {
		t.Fatalf("csv lines = %d, want header + 20 (pagination ignored)", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,detection_type,severity") {
		t.Errorf("header = %q", lines[0])
	}

	rec2, env := s.do(t, http.MethodPost, "/api/v1/forensics/export?format=csv", "viewer", nil)
	if rec2.Code != http.StatusForbidden || env.Error.Code != "FORBIDDEN" {
		t.Errorf("viewer export status = %d, error %+v", rec2.Code, env.Error)
	}

	rec3, _ := s.do(t, http.MethodPost, "/api/v1/forensics/export?format=xml", "reviewer", nil)
	if rec3.Code != http.StatusBadRequest {
		t.Errorf("xml export status = %d, want 400", rec3.Code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(t, auth.AuthModeJWT, nil)

	rec, env := s.do(t, http.MethodGet, "/api/v1/forensics/detection-types", "viewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("detection types status = %d", rec.Code)
	}
	var types []models.DetectionTypeOption
	decodeData(t, env, &types)
	if len(types) != 11 {
		t.Errorf("detection types = %d, want 11", len(types))
	}

	tests := []struct {
		path       string
		wantStatus int
		wantLen    int
	}{
		{"/api/v1/forensics/directory/zones", http.StatusOK, 4},
		{"/api/v1/forensics/directory/zones?site_id=site-001", http.StatusOK, 2},
		{"/api/v1/forensics/directory/zones?site_id=site-999", http.StatusBadRequest, 0},
		{"/api/v1/forensics/directory/sites", http.StatusOK, 3},
		{"/api/v1/forensics/directory/cameras?site_id=site-001", http.StatusOK, 2},
		{"/api/v1/forensics/directory/cameras?site_id=site-001&zone_id=zone-002", http.StatusOK, 1},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec, env := s.do(t, http.MethodGet, tt.path, "viewer", nil)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Code != http.StatusOK {
				return
			}
			var items []map[string]interface{}
			decodeData(t, env, &items)
			if len(items) != tt.wantLen {
				t.Errorf("len = %d, want %d", len(items), tt.wantLen)
			}
		})
	}
}

func TestSummary(t *testing.T) {
	s := newTestServer(t, auth.AuthModeJWT, nil)

	rec, env := s.do(t, http.MethodGet, "/api/v1/forensics/stats/summary?days=1", "viewer", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var sum models.StatsSummary
	decodeData(t, env, &sum)
	if sum.Days != 1 || sum.TotalViolations != 24 {
		t.Errorf("days/total = %d/%d, want 1/24", sum.Days, sum.TotalViolations)
	}
	if sum.HighConfidenceCount != 10 {
		t.Errorf("HighConfidenceCount = %d, want 10", sum.HighConfidenceCount)
	}

	for _, days := range []string{"0", "366", "week"} {
		rec, _ := s.do(t, http.MethodGet, "/api/v1/forensics/stats/summary?days="+days, "viewer", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("days=%s status = %d, want 400", days, rec.Code)
		}
	}
}

func TestLogin(t *testing.T) {
	creds, err := auth.NewCredentialStore()
	if err != nil {
		t.Fatal(err)
	}
	if err := creds.AddUser(auth.User{Username: "jane", DisplayName: "Jane", Role: "reviewer"}, "correct-horse-battery"); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, auth.AuthModeJWT, creds)

	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Username: "jane", Password: "wrong-password"})
	if rec.Code != http.StatusUnauthorized || env.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("wrong password status = %d, error %+v", rec.Code, env.Error)
	}

	rec, _ = s.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Username: "jane"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing password status = %d, want 400", rec.Code)
	}

	rec, env = s.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Username: "jane", Password: "correct-horse-battery"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var login models.LoginResponse
	decodeData(t, env, &login)
	if login.Token == "" || login.Role != "reviewer" {
		t.Fatalf("login = %+v", login)
	}
	var cookieSet bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" && c.HttpOnly && c.Value == login.Token {
			cookieSet = true
		}
	}
	if !cookieSet {
		t.Error("token cookie not set")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	me := httptest.NewRecorder()
	s.handler.ServeHTTP(me, req)
	if me.Code != http.StatusOK {
		t.Fatalf("me status = %d", me.Code)
	}
	var meEnv testEnvelope
	if err := json.Unmarshal(me.Body.Bytes(), &meEnv); err != nil {
		t.Fatal(err)
	}
	var id Identity
	decodeData(t, meEnv, &id)
	if id.UserID != "local:jane" || id.Role != "reviewer" || len(id.Permissions) < 3 {
		t.Errorf("identity = %+v", id)
	}
}

func TestLogin_Lockout(t *testing.T) {
	creds, err := auth.NewCredentialStore()
	if err != nil {
		t.Fatal(err)
	}
	if err := creds.AddUser(auth.User{Username: "sam", Role: "viewer"}, "right-password"); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, auth.AuthModeJWT, creds)

	for i := 0; i < 2; i++ {
		s.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Username: "sam", Password: "wrong-password"})
	}
	rec, env := s.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Username: "sam", Password: "right-password"})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("locked login status = %d, want 429", rec.Code)
	}
	if env.Error.Code != "RATE_LIMIT_EXCEEDED" || rec.Header().Get("Retry-After") == "" {
		t.Errorf("error = %+v, Retry-After = %q", env.Error, rec.Header().Get("Retry-After"))
	}
}

func TestLogin_DisabledWithoutJWT(t *testing.T) {
	s := newTestServer(t, auth.AuthModeNone, nil)
	rec, _ := s.do(t, http.MethodPost, "/api/v1/auth/login", "", models.LoginRequest{Username: "a", Password: "password1"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestAuditEndpoints(t *testing.T) {
	s := newTestServer(t, auth.AuthModeJWT, nil)

	s.do(t, http.MethodGet, "/api/v1/forensics/violations/VIO-00007/evidence/EVD-00007-001/download", "viewer", nil)
	s.do(t, http.MethodGet, "/api/v1/forensics/violations/VIO-00008/evidence/EVD-00008-001/download", "viewer", nil)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/audit/events", "reviewer", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("reviewer audit status = %d, want 403", rec.Code)
	}

	rec, env := s.do(t, http.MethodGet, "/api/v1/audit/violations/VIO-00007", "investigator", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit status = %d, body %s", rec.Code, rec.Body.String())
	}
	var page AuditPage
	decodeData(t, env, &page)
	if page.Total != 1 || len(page.Events) != 1 || page.Events[0].Type != audit.EventTypeEvidenceViewed {
		t.Errorf("page = %+v", page)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/v1/audit/events?limit=0", "admin", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("limit=0 status = %d, want 400", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, auth.AuthModeJWT, nil)
	s.checks["database"] = func(context.Context) error { return nil }

	rec, env := s.do(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d", rec.Code)
	}
	var status HealthStatus
	decodeData(t, env, &status)
	if status.Status != "healthy" || status.Components["database"] != "ok" {
		t.Errorf("status = %+v", status)
	}

	s.checks["ingest"] = func(context.Context) error { return errors.New("nats disconnected") }
	rec, env = s.do(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded ready status = %d, want 503", rec.Code)
	}
	decodeData(t, env, &status)
	if status.Status != "degraded" || status.Components["ingest"] != "nats disconnected" {
		t.Errorf("status = %+v", status)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200 even when degraded", rec.Code)
	}

	rec, _ = s.do(t, http.MethodGet, "/api/v1/health/live", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}
}

func TestRouting_NotFoundEnvelope(t *testing.T) {
	s := newTestServer(t, auth.AuthModeJWT, nil)
	rec, env := s.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	if rec.Code != http.StatusNotFound || env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("status = %d, error = %+v", rec.Code, env.Error)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		endOfDay bool
		want     time.Time
		wantErr  bool
	}{
		{"empty", "", false, time.Time{}, false},
		{"date start", "2026-03-01", false, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), false},
		{"date end of day", "2026-03-01", true, time.Date(2026, 3, 1, 23, 59, 59, 999999999, time.UTC), false},
		{"rfc3339 kept exact", "2026-03-01T08:30:00+02:00", true, time.Date(2026, 3, 1, 6, 30, 0, 0, time.UTC), false},
		{"garbage", "yesterday", false, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDate("date", tt.value, tt.endOfDay)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !forensics.IsValidation(err) {
					t.Errorf("err = %T, want *forensics.ValidationError", err)
				}
				return
			}
			if tt.want.IsZero() {
				if got != nil {
					t.Errorf("got %v, want nil", got)
				}
				return
			}
			if got == nil || !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
