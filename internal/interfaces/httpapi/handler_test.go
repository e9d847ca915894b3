package httpapi_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/waiver-wire/internal/domain/player"
	"github.com/riskibarqy/waiver-wire/internal/domain/team"
	"github.com/riskibarqy/waiver-wire/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/waiver-wire/internal/interfaces/httpapi"
	"github.com/riskibarqy/waiver-wire/internal/platform/scheduler"
	"github.com/riskibarqy/waiver-wire/internal/usecase"
)

const testJobToken = "internal-test-token"

type envelope struct {
	APIVersion string          `json:"apiVersion"`
	Data       json.RawMessage `json:"data"`
	Error      *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestRouter(t *testing.T, store *memory.Store, now time.Time) http.Handler {
	t.Helper()

	directory, err := team.NewDirectory(memory.SeedDirectory())
	if err != nil {
		t.Fatalf("build directory: %v", err)
	}

	clock := func() time.Time { return now }
	priority := usecase.NewPriorityService(store, nil)
	playerSvc := usecase.NewPlayerService(store, directory, nil).WithNow(clock)
	claimSvc := usecase.NewClaimService(store, nil, priority, directory, nil).WithNow(clock)
	announcer := usecase.NewAnnouncementService(store, nil, usecase.AnnouncementConfig{
		WindowStartHour: 17,
		WindowEndHour:   22,
		Location:        time.UTC,
		ClearingOffset:  24 * time.Hour,
	}, nil).WithNow(clock)
	clearer := usecase.NewClearingService(store, nil, priority, directory, "", nil).WithNow(clock)

	sched := scheduler.New(scheduler.RetryPolicy{}, nil)
	for _, name := range []string{"announce", "clearing"} {
		if err := sched.Register(scheduler.Job{
			Name:     name,
			Interval: time.Hour,
			Run:      func(context.Context) error { return nil },
		}); err != nil {
			t.Fatalf("register job %s: %v", name, err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := httpapi.NewHandler(playerSvc, claimSvc, priority, announcer, clearer, sched, logger)

	return httpapi.NewRouter(handler, logger, nil, testJobToken, 0)
}

func doRequest(t *testing.T, router http.Handler, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := sonic.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("unmarshal envelope: %v (body %s)", err, rec.Body.String())
		}
	}

	return rec, env
}

func TestRouter_Healthz(t *testing.T) {
	now := time.Date(2026, 8, 14, 19, 0, 0, 0, time.UTC)
	router := newTestRouter(t, memory.NewStore(nil, nil, memory.SeedTeams()), now)

	rec, env := doRequest(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if env.APIVersion != "2.0" {
		t.Fatalf("unexpected api version %q", env.APIVersion)
	}
}

func TestRouter_PlayerLifecycle(t *testing.T) {
	now := time.Date(2026, 8, 14, 19, 0, 0, 0, time.UTC)
	store := memory.NewStore(nil, nil, memory.SeedTeams())
	router := newTestRouter(t, store, now)

	rec, env := doRequest(t, router, http.MethodPost, "/v1/players",
		`{"name":"Mack Truck","position":"rb","rosterPageUrl":"https://rosters.example/players/mack-truck"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	if err := sonic.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("unmarshal created player: %v", err)
	}
	if created.ID != 1 || created.Status != string(player.StatusPending) {
		t.Fatalf("unexpected created player: %+v", created)
	}

	rec, env = doRequest(t, router, http.MethodGet, "/v1/players/pending", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var pending []struct {
		ID int64 `json:"id"`
	}
	if err := sonic.Unmarshal(env.Data, &pending); err != nil {
		t.Fatalf("unmarshal pending players: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != 1 {
		t.Fatalf("unexpected pending list: %+v", pending)
	}

	rec, _ = doRequest(t, router, http.MethodDelete, "/v1/players/1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", rec.Code)
	}
	rec, _ = doRequest(t, router, http.MethodDelete, "/v1/players/1", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on repeated delete, got %d", rec.Code)
	}
}

func TestRouter_ClaimFlow(t *testing.T) {
	now := time.Date(2026, 8, 14, 19, 0, 0, 0, time.UTC)
	clearing := now.Add(6 * time.Hour)
	announced := now.Add(-time.Hour)

	p := player.Player{
		ID:            1,
		Name:          "Mack Truck",
		Position:      player.PositionRunningBack,
		RosterPageURL: "https://rosters.example/players/mack-truck",
		TimeEntered:   now.Add(-2 * time.Hour),
		Status:        player.StatusAvailable,
		Announced:     true,
		TimeAnnounced: &announced,
		TimeClearing:  &clearing,
	}
	store := memory.NewStore([]player.Player{p}, nil, memory.SeedTeams())
	router := newTestRouter(t, store, now)

	rec, _ := doRequest(t, router, http.MethodPost, "/v1/claims",
		`{"teamCode":"KCC","playerId":1,"orderPreference":1}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Unknown JSON fields are rejected.
	rec, _ = doRequest(t, router, http.MethodPost, "/v1/claims",
		`{"teamCode":"DAL","playerId":1,"bogus":true}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}

	// Quick claims are reserved for the top-priority team.
	rec, env := doRequest(t, router, http.MethodPost, "/v1/claims/quick",
		`{"teamCode":"KCC","playerId":1}`, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if env.Error == nil || env.Error.Message == "" {
		t.Fatalf("expected error body, got %s", rec.Body.String())
	}

	rec, env = doRequest(t, router, http.MethodGet, "/v1/teams/KCC/claims", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var details []struct {
		Claim struct {
			PlayerID        int64 `json:"playerId"`
			OrderPreference int   `json:"orderPreference"`
		} `json:"claim"`
	}
	if err := sonic.Unmarshal(env.Data, &details); err != nil {
		t.Fatalf("unmarshal team claims: %v", err)
	}
	if len(details) != 1 || details[0].Claim.PlayerID != 1 {
		t.Fatalf("unexpected team claims: %+v", details)
	}

	rec, _ = doRequest(t, router, http.MethodPost, "/v1/claims/withdraw",
		`{"teamCode":"KCC","playerId":1}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on withdraw, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_InternalRoutesRequireToken(t *testing.T) {
	now := time.Date(2026, 8, 14, 19, 0, 0, 0, time.UTC)
	router := newTestRouter(t, memory.NewStore(nil, nil, memory.SeedTeams()), now)

	rec, _ := doRequest(t, router, http.MethodGet, "/v1/internal/jobs", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec, env := doRequest(t, router, http.MethodGet, "/v1/internal/jobs", "",
		map[string]string{"X-Internal-Job-Token": testJobToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rec.Code)
	}
	var jobs []struct {
		Name   string `json:"name"`
		Paused bool   `json:"paused"`
	}
	if err := sonic.Unmarshal(env.Data, &jobs); err != nil {
		t.Fatalf("unmarshal jobs: %v", err)
	}
	if len(jobs) != 2 || jobs[0].Name != "announce" || jobs[1].Name != "clearing" {
		t.Fatalf("unexpected jobs: %+v", jobs)
	}

	rec, _ = doRequest(t, router, http.MethodPost, "/v1/internal/jobs/clearing/pause", "",
		map[string]string{"X-Internal-Job-Token": testJobToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on pause, got %d", rec.Code)
	}
}

func TestRouter_InternalClearingRun(t *testing.T) {
	now := time.Date(2026, 8, 15, 18, 0, 0, 0, time.UTC)
	cleared := now.Add(-time.Minute)
	announced := cleared.Add(-24 * time.Hour)

	p := player.Player{
		ID:            1,
		Name:          "Mack Truck",
		Position:      player.PositionRunningBack,
		RosterPageURL: "https://rosters.example/players/mack-truck",
		TimeEntered:   announced.Add(-time.Hour),
		Status:        player.StatusAvailable,
		Announced:     true,
		TimeAnnounced: &announced,
		TimeClearing:  &cleared,
	}
	store := memory.NewStore([]player.Player{p}, nil, memory.SeedTeams())
	router := newTestRouter(t, store, now)

	rec, _ := doRequest(t, router, http.MethodPost, "/v1/claims",
		`{"teamCode":"KCC","playerId":1,"orderPreference":1}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec, env := doRequest(t, router, http.MethodPost, "/v1/internal/jobs/clearing/run", "",
		map[string]string{"X-Internal-Job-Token": testJobToken})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result struct {
		Resolved bool `json:"resolved"`
	}
	if err := sonic.Unmarshal(env.Data, &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if !result.Resolved {
		t.Fatal("expected the clearing run to resolve the claim")
	}
}
