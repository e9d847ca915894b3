package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/waiver-wire/internal/domain/claim"
	"github.com/riskibarqy/waiver-wire/internal/domain/player"
	"github.com/riskibarqy/waiver-wire/internal/domain/team"
	"github.com/riskibarqy/waiver-wire/internal/usecase"
)

// JobController is the slice of the scheduler the API needs for the
// pause and resume endpoints.
type JobController interface {
	Pause(name string) error
	Resume(name string) error
	PauseAll()
	ResumeAll()
	Paused(name string) bool
	Jobs() []string
}

type Handler struct {
	playerService   *usecase.PlayerService
	claimService    *usecase.ClaimService
	priorityService *usecase.PriorityService
	announcer       *usecase.AnnouncementService
	clearer         *usecase.ClearingService
	jobs            JobController
	logger          *slog.Logger
	validator       *validator.Validate
}

func NewHandler(
	playerService *usecase.PlayerService,
	claimService *usecase.ClaimService,
	priorityService *usecase.PriorityService,
	announcer *usecase.AnnouncementService,
	clearer *usecase.ClearingService,
	jobs JobController,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		playerService:   playerService,
		claimService:    claimService,
		priorityService: priorityService,
		announcer:       announcer,
		clearer:         clearer,
		jobs:            jobs,
		logger:          logger,
		validator:       validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) RegisterPlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RegisterPlayer")
	defer span.End()

	var req registerPlayerRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	p, err := h.playerService.Register(ctx, usecase.RegisterPlayerInput{
		Name:          req.Name,
		Position:      player.Position(strings.ToUpper(strings.TrimSpace(req.Position))),
		RosterPageURL: req.RosterPageURL,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "register player failed", "name", req.Name, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, playerToDTO(p))
}

func (h *Handler) RemovePlayer(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemovePlayer")
	defer span.End()

	playerID, err := parsePlayerID(r.PathValue("playerID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.playerService.Remove(ctx, playerID); err != nil {
		h.logger.WarnContext(ctx, "remove player failed", "player_id", playerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int64{"removedPlayerId": playerID})
}

func (h *Handler) ListEligiblePlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListEligiblePlayers")
	defer span.End()

	players, err := h.playerService.ListEligible(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list eligible players failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playersToDTOs(players))
}

func (h *Handler) ListPendingPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPendingPlayers")
	defer span.End()

	players, err := h.playerService.ListPending(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list pending players failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, playersToDTOs(players))
}

func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitClaim")
	defer span.End()

	var req submitClaimRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	c, err := h.claimService.SubmitNormal(ctx, req.TeamCode, req.PlayerID, req.OrderPreference)
	if err != nil {
		h.logger.WarnContext(ctx, "submit claim failed", "team", req.TeamCode, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, claimToDTO(c))
}

func (h *Handler) SubmitQuickClaim(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitQuickClaim")
	defer span.End()

	var req claimTargetRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	c, err := h.claimService.SubmitQuick(ctx, req.TeamCode, req.PlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "submit quick claim failed", "team", req.TeamCode, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, claimToDTO(c))
}

func (h *Handler) SubmitFreeClaim(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitFreeClaim")
	defer span.End()

	var req claimTargetRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	c, err := h.claimService.SubmitFree(ctx, req.TeamCode, req.PlayerID)
	if err != nil {
		h.logger.WarnContext(ctx, "submit free claim failed", "team", req.TeamCode, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, claimToDTO(c))
}

func (h *Handler) AdjustClaim(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdjustClaim")
	defer span.End()

	var req adjustClaimRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.claimService.Adjust(ctx, req.TeamCode, req.PlayerID, req.OrderPreference); err != nil {
		h.logger.WarnContext(ctx, "adjust claim failed", "team", req.TeamCode, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"orderPreference": req.OrderPreference})
}

func (h *Handler) WithdrawClaim(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.WithdrawClaim")
	defer span.End()

	var req claimTargetRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := h.claimService.Withdraw(ctx, req.TeamCode, req.PlayerID); err != nil {
		h.logger.WarnContext(ctx, "withdraw claim failed", "team", req.TeamCode, "player_id", req.PlayerID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int64{"withdrawnPlayerId": req.PlayerID})
}

func (h *Handler) ListTeamClaims(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamClaims")
	defer span.End()

	teamCode := strings.ToUpper(strings.TrimSpace(r.PathValue("teamCode")))
	details, err := h.playerService.TeamClaims(ctx, teamCode)
	if err != nil {
		h.logger.WarnContext(ctx, "list team claims failed", "team", teamCode, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamClaimDTO, 0, len(details))
	for _, d := range details {
		items = append(items, teamClaimDTO{
			Claim:  claimToDTO(d.Claim),
			Player: playerToDTO(d.Player),
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListTeamClaimHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamClaimHistory")
	defer span.End()

	teamCode := strings.ToUpper(strings.TrimSpace(r.PathValue("teamCode")))
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(ctx, w, fmt.Errorf("%w: invalid limit %q", usecase.ErrInvalidInput, raw))
			return
		}
		limit = parsed
	}

	claims, err := h.playerService.ClaimHistory(ctx, teamCode, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list claim history failed", "team", teamCode, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]claimDTO, 0, len(claims))
	for _, c := range claims {
		items = append(items, claimToDTO(c))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListPriorities(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListPriorities")
	defer span.End()

	teams, err := h.priorityService.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list priorities failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]teamPriorityDTO, 0, len(teams))
	for _, t := range teams {
		items = append(items, teamToPriorityDTO(t))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) SetPriorities(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetPriorities")
	defer span.End()

	var req setPrioritiesRequest
	if err := h.decodeRequest(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	codes := make([]string, 0, len(req.Codes))
	for _, code := range req.Codes {
		codes = append(codes, strings.ToUpper(strings.TrimSpace(code)))
	}

	if err := h.priorityService.SetAll(ctx, codes); err != nil {
		h.logger.WarnContext(ctx, "set priorities failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]int{"teams": len(codes)})
}

func (h *Handler) RunAnnounceJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunAnnounceJob")
	defer span.End()

	if err := h.announcer.RunOnce(ctx); err != nil {
		h.logger.ErrorContext(ctx, "announce run failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "completed"})
}

func (h *Handler) RunClearingJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunClearingJob")
	defer span.End()

	resolved, err := h.clearer.RunOnce(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "clearing run failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]bool{"resolved": resolved})
}

func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListJobs")
	defer span.End()

	names := h.jobs.Jobs()
	items := make([]jobStatusDTO, 0, len(names))
	for _, name := range names {
		items = append(items, jobStatusDTO{
			Name:   name,
			Paused: h.jobs.Paused(name),
		})
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) PauseJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PauseJob")
	defer span.End()

	name := strings.TrimSpace(r.PathValue("jobName"))
	if err := h.jobs.Pause(name); err != nil {
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "job paused", "job", name)
	writeSuccess(ctx, w, http.StatusOK, jobStatusDTO{Name: name, Paused: true})
}

func (h *Handler) ResumeJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResumeJob")
	defer span.End()

	name := strings.TrimSpace(r.PathValue("jobName"))
	if err := h.jobs.Resume(name); err != nil {
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "job resumed", "job", name)
	writeSuccess(ctx, w, http.StatusOK, jobStatusDTO{Name: name, Paused: false})
}

func (h *Handler) PauseAllJobs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PauseAllJobs")
	defer span.End()

	h.jobs.PauseAll()
	h.logger.InfoContext(ctx, "all jobs paused")
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "paused"})
}

func (h *Handler) ResumeAllJobs(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResumeAllJobs")
	defer span.End()

	h.jobs.ResumeAll()
	h.logger.InfoContext(ctx, "all jobs resumed")
	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "resumed"})
}

func (h *Handler) decodeRequest(ctx context.Context, r *http.Request, payload any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(payload); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return h.validateRequest(ctx, payload)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func parsePlayerID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid player id %q", usecase.ErrInvalidInput, raw)
	}

	return id, nil
}

type registerPlayerRequest struct {
	Name          string `json:"name" validate:"required,max=100"`
	Position      string `json:"position" validate:"required,max=3"`
	RosterPageURL string `json:"rosterPageUrl" validate:"omitempty,url"`
}

type submitClaimRequest struct {
	TeamCode        string `json:"teamCode" validate:"required,len=3,alpha"`
	PlayerID        int64  `json:"playerId" validate:"required,gt=0"`
	OrderPreference int    `json:"orderPreference" validate:"gte=0"`
}

type claimTargetRequest struct {
	TeamCode string `json:"teamCode" validate:"required,len=3,alpha"`
	PlayerID int64  `json:"playerId" validate:"required,gt=0"`
}

type adjustClaimRequest struct {
	TeamCode        string `json:"teamCode" validate:"required,len=3,alpha"`
	PlayerID        int64  `json:"playerId" validate:"required,gt=0"`
	OrderPreference int    `json:"orderPreference" validate:"required,gte=1"`
}

type setPrioritiesRequest struct {
	Codes []string `json:"codes" validate:"required,min=1,dive,required"`
}

type playerDTO struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Position       string `json:"position"`
	RosterPageURL  string `json:"rosterPageUrl,omitempty"`
	TimeEntered    string `json:"timeEntered"`
	Status         string `json:"status"`
	Announced      bool   `json:"announced"`
	TimeAnnounced  string `json:"timeAnnounced,omitempty"`
	TimeClearing   string `json:"timeClearing,omitempty"`
	Cleared        bool   `json:"cleared"`
	Claimed        bool   `json:"claimed"`
	SuccessfulTeam string `json:"successfulTeam,omitempty"`
}

type claimDTO struct {
	PlayerID        int64  `json:"playerId"`
	TeamCode        string `json:"teamCode"`
	PlayerName      string `json:"playerName"`
	Time            string `json:"time"`
	Type            string `json:"type"`
	OrderPreference int    `json:"orderPreference,omitempty"`
	Outcome         string `json:"outcome"`
}

type teamClaimDTO struct {
	Claim  claimDTO  `json:"claim"`
	Player playerDTO `json:"player"`
}

type teamPriorityDTO struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	RoleID   string `json:"roleId"`
	Priority int    `json:"priority"`
}

type jobStatusDTO struct {
	Name   string `json:"name"`
	Paused bool   `json:"paused"`
}

func playerToDTO(v player.Player) playerDTO {
	dto := playerDTO{
		ID:             v.ID,
		Name:           v.Name,
		Position:       string(v.Position),
		RosterPageURL:  v.RosterPageURL,
		TimeEntered:    v.TimeEntered.UTC().Format(time.RFC3339),
		Status:         string(v.Status),
		Announced:      v.Announced,
		Cleared:        v.Cleared,
		Claimed:        v.Claimed,
		SuccessfulTeam: v.SuccessfulTeam,
	}
	if v.TimeAnnounced != nil {
		dto.TimeAnnounced = v.TimeAnnounced.UTC().Format(time.RFC3339)
	}
	if v.TimeClearing != nil {
		dto.TimeClearing = v.TimeClearing.UTC().Format(time.RFC3339)
	}

	return dto
}

func playersToDTOs(players []player.Player) []playerDTO {
	items := make([]playerDTO, 0, len(players))
	for _, p := range players {
		items = append(items, playerToDTO(p))
	}

	return items
}

func claimToDTO(v claim.Claim) claimDTO {
	return claimDTO{
		PlayerID:        v.PlayerID,
		TeamCode:        v.TeamID,
		PlayerName:      v.PlayerName,
		Time:            v.Time.UTC().Format(time.RFC3339),
		Type:            string(v.Type),
		OrderPreference: v.OrderPreference,
		Outcome:         string(v.Outcome),
	}
}

func teamToPriorityDTO(v team.Team) teamPriorityDTO {
	return teamPriorityDTO{
		Code:     v.Code,
		Name:     v.Name,
		RoleID:   v.RoleID,
		Priority: v.Priority,
	}
}
