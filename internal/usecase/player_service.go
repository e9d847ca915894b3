package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/waiver-wire/internal/domain/claim"
	"github.com/riskibarqy/waiver-wire/internal/domain/player"
	"github.com/riskibarqy/waiver-wire/internal/domain/team"
	"github.com/riskibarqy/waiver-wire/internal/platform/logging"
)

// PlayerService covers the registration and query surface the command
// layer exposes around the claim engine.
type PlayerService struct {
	store     Store
	directory *team.Directory
	logger    *logging.Logger
	now       func() time.Time
}

func NewPlayerService(store Store, directory *team.Directory, logger *logging.Logger) *PlayerService {
	if logger == nil {
		logger = logging.Default()
	}

	return &PlayerService{
		store:     store,
		directory: directory,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *PlayerService) WithNow(now func() time.Time) *PlayerService {
	s.now = now
	return s
}

type RegisterPlayerInput struct {
	Name          string
	Position      player.Position
	RosterPageURL string
}

// Register creates a Pending player with the next monotonic ID.
func (s *PlayerService) Register(ctx context.Context, in RegisterPlayerInput) (player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.Register")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.RosterPageURL = strings.TrimSpace(in.RosterPageURL)
	if in.Name == "" {
		return player.Player{}, fmt.Errorf("%w: player name is required", ErrInvalidInput)
	}
	if in.RosterPageURL == "" {
		return player.Player{}, fmt.Errorf("%w: roster page url is required", ErrInvalidInput)
	}
	if _, ok := player.AllPositions[in.Position]; !ok {
		return player.Player{}, fmt.Errorf("%w: invalid position %s", ErrInvalidInput, in.Position)
	}

	var created player.Player
	err := s.store.InTx(ctx, func(st Store) error {
		maxID, err := st.Players().MaxID(ctx)
		if err != nil {
			return fmt.Errorf("next player id: %w", err)
		}

		created = player.Player{
			ID:            maxID + 1,
			Name:          in.Name,
			Position:      in.Position,
			RosterPageURL: in.RosterPageURL,
			TimeEntered:   s.now(),
			Status:        player.StatusPending,
		}
		if err := st.Players().Insert(ctx, created); err != nil {
			return fmt.Errorf("insert player: %w", err)
		}

		return nil
	})
	if err != nil {
		return player.Player{}, err
	}

	s.logger.InfoContext(ctx, "player registered", "player_id", created.ID, "name", created.Name, "position", created.Position)

	return created, nil
}

// Remove hard-deletes a player and every claim on them.
func (s *PlayerService) Remove(ctx context.Context, playerID int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.Remove")
	defer span.End()

	return s.store.InTx(ctx, func(st Store) error {
		_, ok, err := st.Players().Get(ctx, playerID)
		if err != nil {
			return fmt.Errorf("get player %d: %w", playerID, err)
		}
		if !ok {
			return fmt.Errorf("%w: player %d", ErrNotFound, playerID)
		}

		if err := st.Claims().DeleteByPlayer(ctx, playerID); err != nil {
			return fmt.Errorf("delete claims for player %d: %w", playerID, err)
		}
		if err := st.Players().Delete(ctx, playerID); err != nil {
			return fmt.Errorf("delete player %d: %w", playerID, err)
		}

		s.logger.InfoContext(ctx, "player removed", "player_id", playerID)

		return nil
	})
}

// ListEligible returns announced players still open for claims.
func (s *PlayerService) ListEligible(ctx context.Context) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.ListEligible")
	defer span.End()

	players, err := s.store.Players().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	out := make([]player.Player, 0, len(players))
	for _, p := range players {
		if p.Claimable() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// ListPending returns registered players not yet announced.
func (s *PlayerService) ListPending(ctx context.Context) ([]player.Player, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.ListPending")
	defer span.End()

	players, err := s.store.Players().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}

	out := make([]player.Player, 0, len(players))
	for _, p := range players {
		if !p.Announced && p.Status == player.StatusPending {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

// ClaimDetail pairs a claim with the current player row it targets.
type ClaimDetail struct {
	Claim  claim.Claim
	Player player.Player
}

// TeamClaims returns the team's open claims on not-yet-cleared players,
// ordered by claim order preference.
func (s *PlayerService) TeamClaims(ctx context.Context, teamCode string) ([]ClaimDetail, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.TeamClaims")
	defer span.End()

	if _, ok := s.directory.ByCode(teamCode); !ok {
		return nil, fmt.Errorf("%w: team %s", ErrNotFound, teamCode)
	}

	claims, err := s.store.Claims().ListByTeam(ctx, teamCode, 0)
	if err != nil {
		return nil, fmt.Errorf("list team claims: %w", err)
	}

	out := make([]ClaimDetail, 0, len(claims))
	for _, c := range claims {
		if !c.Open() {
			continue
		}
		p, ok, err := s.store.Players().Get(ctx, c.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("get player %d: %w", c.PlayerID, err)
		}
		if !ok || p.Cleared || p.Claimed {
			continue
		}
		out = append(out, ClaimDetail{Claim: c, Player: p})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Claim.OrderPreference < out[j].Claim.OrderPreference
	})

	return out, nil
}

const defaultHistoryLimit = 10

// ClaimHistory returns the team's most recent claims, newest first.
func (s *PlayerService) ClaimHistory(ctx context.Context, teamCode string, limit int) ([]claim.Claim, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PlayerService.ClaimHistory")
	defer span.End()

	if _, ok := s.directory.ByCode(teamCode); !ok {
		return nil, fmt.Errorf("%w: team %s", ErrNotFound, teamCode)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	claims, err := s.store.Claims().ListByTeam(ctx, teamCode, limit)
	if err != nil {
		return nil, fmt.Errorf("list team claim history: %w", err)
	}

	return claims, nil
}
