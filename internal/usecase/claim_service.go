package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/riskibarqy/waiver-wire/internal/domain/claim"
	"github.com/riskibarqy/waiver-wire/internal/domain/player"
	"github.com/riskibarqy/waiver-wire/internal/domain/team"
	"github.com/riskibarqy/waiver-wire/internal/platform/logging"
)

// ClaimService handles claim submission, adjustment and withdrawal. The
// caller (the chat front-end) has already authenticated the requester
// and resolved their team; the service still re-checks player
// eligibility before mutating.
type ClaimService struct {
	store     Store
	notifier  Notifier
	priority  *PriorityService
	directory *team.Directory
	logger    *logging.Logger
	now       func() time.Time
}

func NewClaimService(
	store Store,
	notifier Notifier,
	priority *PriorityService,
	directory *team.Directory,
	logger *logging.Logger,
) *ClaimService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &ClaimService{
		store:     store,
		notifier:  notifier,
		priority:  priority,
		directory: directory,
		logger:    logger,
		now:       time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (s *ClaimService) WithNow(now func() time.Time) *ClaimService {
	s.now = now
	return s
}

// SubmitNormal registers a ranked claim consumed later by the clearing
// process. It never changes player status.
func (s *ClaimService) SubmitNormal(ctx context.Context, teamCode string, playerID int64, orderPreference int) (claim.Claim, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClaimService.SubmitNormal")
	defer span.End()

	if _, ok := s.directory.ByCode(teamCode); !ok {
		return claim.Claim{}, fmt.Errorf("%w: team %s", ErrNotFound, teamCode)
	}
	if orderPreference < 0 || orderPreference > s.directory.Len() {
		return claim.Claim{}, fmt.Errorf("%w: order preference must be between 1 and %d", ErrInvalidInput, s.directory.Len())
	}

	var created claim.Claim
	err := s.store.InTx(ctx, func(st Store) error {
		p, err := s.claimablePlayer(ctx, st, playerID)
		if err != nil {
			return err
		}
		if _, exists, err := st.Claims().Get(ctx, playerID, teamCode); err != nil {
			return fmt.Errorf("get existing claim: %w", err)
		} else if exists {
			return fmt.Errorf("%w: team %s already has a claim on player %d", ErrNotEligible, teamCode, playerID)
		}

		taken, err := s.openPreferences(ctx, st, teamCode)
		if err != nil {
			return err
		}

		pref := orderPreference
		if pref == 0 {
			// Next slot after the highest held, falling back to the
			// lowest free slot so the assignment stays in range.
			pref = 1
			for used := range taken {
				if used >= pref {
					pref = used + 1
				}
			}
			if pref > s.directory.Len() {
				pref = lowestFreePreference(taken, s.directory.Len())
			}
			if pref == 0 {
				return fmt.Errorf("%w: team %s has no free order preference", ErrNotEligible, teamCode)
			}
		} else if _, inUse := taken[pref]; inUse {
			return fmt.Errorf("%w: order preference %d is already in use by %s", ErrInvalidInput, pref, teamCode)
		}

		created = claim.Claim{
			PlayerID:        playerID,
			TeamID:          teamCode,
			PlayerName:      p.Name,
			Time:            s.now(),
			Type:            claim.TypeNormal,
			OrderPreference: pref,
			Outcome:         claim.OutcomePending,
		}
		if err := st.Claims().Insert(ctx, created); err != nil {
			return fmt.Errorf("insert claim: %w", err)
		}

		return nil
	})
	if err != nil {
		return claim.Claim{}, err
	}

	s.logger.InfoContext(ctx, "normal claim lodged",
		"team", teamCode, "player_id", playerID, "order_preference", created.OrderPreference)

	return created, nil
}

// SubmitQuick resolves immediately for the team currently holding
// priority 1, bypassing the clearing window entirely.
func (s *ClaimService) SubmitQuick(ctx context.Context, teamCode string, playerID int64) (claim.Claim, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClaimService.SubmitQuick")
	defer span.End()

	if _, ok := s.directory.ByCode(teamCode); !ok {
		return claim.Claim{}, fmt.Errorf("%w: team %s", ErrNotFound, teamCode)
	}

	var created claim.Claim
	var playerName string
	err := s.store.InTx(ctx, func(st Store) error {
		t, ok, err := st.Teams().GetByCode(ctx, teamCode)
		if err != nil {
			return fmt.Errorf("get team %s: %w", teamCode, err)
		}
		if !ok || t.Priority != 1 {
			return fmt.Errorf("%w: only the top-priority team can make a quick claim", ErrNotEligible)
		}

		p, err := s.claimablePlayer(ctx, st, playerID)
		if err != nil {
			return err
		}
		playerName = p.Name

		if _, exists, err := st.Claims().Get(ctx, playerID, teamCode); err != nil {
			return fmt.Errorf("get existing claim: %w", err)
		} else if exists {
			return fmt.Errorf("%w: team %s already has a claim on player %d", ErrNotEligible, teamCode, playerID)
		}

		if err := s.markClaimed(ctx, st, p, teamCode); err != nil {
			return err
		}

		created = claim.Claim{
			PlayerID:        playerID,
			TeamID:          teamCode,
			PlayerName:      p.Name,
			Time:            s.now(),
			Type:            claim.TypeQuick,
			OrderPreference: claim.PreferenceNone,
			Outcome:         claim.OutcomeWon,
		}
		if err := st.Claims().Insert(ctx, created); err != nil {
			return fmt.Errorf("insert claim: %w", err)
		}
		if err := st.Claims().MarkLostExcept(ctx, playerID, teamCode); err != nil {
			return fmt.Errorf("mark losing claims: %w", err)
		}

		return s.priority.rotateToBottom(ctx, st, teamCode)
	})
	if err != nil {
		return claim.Claim{}, err
	}

	s.logger.InfoContext(ctx, "quick claim resolved", "team", teamCode, "player_id", playerID)
	s.announce(ctx, fmt.Sprintf("%s with ID %d has been quick claimed by %s!", playerName, playerID, s.mention(teamCode)))

	return created, nil
}

// SubmitFree claims a player nobody else wanted. Free claims are
// uncontested, so they cost no priority.
func (s *ClaimService) SubmitFree(ctx context.Context, teamCode string, playerID int64) (claim.Claim, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClaimService.SubmitFree")
	defer span.End()

	if _, ok := s.directory.ByCode(teamCode); !ok {
		return claim.Claim{}, fmt.Errorf("%w: team %s", ErrNotFound, teamCode)
	}

	var created claim.Claim
	var playerName string
	err := s.store.InTx(ctx, func(st Store) error {
		p, ok, err := st.Players().Get(ctx, playerID)
		if err != nil {
			return fmt.Errorf("get player %d: %w", playerID, err)
		}
		if !ok {
			return fmt.Errorf("%w: player %d", ErrNotFound, playerID)
		}
		if p.Status != player.StatusFreeClaim {
			return fmt.Errorf("%w: player %d is not available for free claim", ErrNotEligible, playerID)
		}
		playerName = p.Name

		if _, exists, err := st.Claims().Get(ctx, playerID, teamCode); err != nil {
			return fmt.Errorf("get existing claim: %w", err)
		} else if exists {
			return fmt.Errorf("%w: team %s already has a claim on player %d", ErrNotEligible, teamCode, playerID)
		}

		if err := s.markClaimed(ctx, st, p, teamCode); err != nil {
			return err
		}

		created = claim.Claim{
			PlayerID:        playerID,
			TeamID:          teamCode,
			PlayerName:      p.Name,
			Time:            s.now(),
			Type:            claim.TypeFree,
			OrderPreference: claim.PreferenceNone,
			Outcome:         claim.OutcomeWon,
		}
		if err := st.Claims().Insert(ctx, created); err != nil {
			return fmt.Errorf("insert claim: %w", err)
		}

		return nil
	})
	if err != nil {
		return claim.Claim{}, err
	}

	s.logger.InfoContext(ctx, "free claim resolved", "team", teamCode, "player_id", playerID)
	s.announce(ctx, fmt.Sprintf("%s with ID %d has been free claimed by %s!", playerName, playerID, s.mention(teamCode)))

	return created, nil
}

// Adjust moves an open claim to a new order preference, shifting the
// team's other claims in the affected range to keep preferences dense
// and unique. Only valid while the player has not yet cleared.
func (s *ClaimService) Adjust(ctx context.Context, teamCode string, playerID int64, newPreference int) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClaimService.Adjust")
	defer span.End()

	if _, ok := s.directory.ByCode(teamCode); !ok {
		return fmt.Errorf("%w: team %s", ErrNotFound, teamCode)
	}
	if newPreference < 1 || newPreference > s.directory.Len() {
		return fmt.Errorf("%w: order preference must be between 1 and %d", ErrInvalidInput, s.directory.Len())
	}

	return s.store.InTx(ctx, func(st Store) error {
		c, err := s.openClaimOnUnclearedPlayer(ctx, st, teamCode, playerID)
		if err != nil {
			return err
		}
		if c.OrderPreference == newPreference {
			return nil
		}

		if newPreference > c.OrderPreference {
			err = st.Claims().ShiftPreferences(ctx, teamCode, c.OrderPreference, newPreference, -1)
		} else {
			err = st.Claims().ShiftPreferences(ctx, teamCode, newPreference, c.OrderPreference, +1)
		}
		if err != nil {
			return fmt.Errorf("shift preferences: %w", err)
		}

		c.OrderPreference = newPreference
		if err := st.Claims().Update(ctx, c); err != nil {
			return fmt.Errorf("update claim: %w", err)
		}

		s.logger.InfoContext(ctx, "claim order preference adjusted",
			"team", teamCode, "player_id", playerID, "order_preference", newPreference)

		return nil
	})
}

// Withdraw deletes an open claim and renumbers the team's remaining
// claims so preferences stay dense.
func (s *ClaimService) Withdraw(ctx context.Context, teamCode string, playerID int64) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClaimService.Withdraw")
	defer span.End()

	if _, ok := s.directory.ByCode(teamCode); !ok {
		return fmt.Errorf("%w: team %s", ErrNotFound, teamCode)
	}

	return s.store.InTx(ctx, func(st Store) error {
		c, err := s.openClaimOnUnclearedPlayer(ctx, st, teamCode, playerID)
		if err != nil {
			return err
		}

		if err := st.Claims().ShiftPreferences(ctx, teamCode, c.OrderPreference+1, maxPreference, -1); err != nil {
			return fmt.Errorf("shift preferences: %w", err)
		}
		if err := st.Claims().Delete(ctx, playerID, teamCode); err != nil {
			return fmt.Errorf("delete claim: %w", err)
		}

		s.logger.InfoContext(ctx, "claim withdrawn", "team", teamCode, "player_id", playerID)

		return nil
	})
}

const maxPreference = 1 << 30

// lowestFreePreference returns the smallest preference in [1, max] not
// present in taken, or 0 when the team holds them all.
func lowestFreePreference(taken map[int]struct{}, max int) int {
	for pref := 1; pref <= max; pref++ {
		if _, inUse := taken[pref]; !inUse {
			return pref
		}
	}
	return 0
}

func (s *ClaimService) claimablePlayer(ctx context.Context, st Store, playerID int64) (player.Player, error) {
	p, ok, err := st.Players().Get(ctx, playerID)
	if err != nil {
		return player.Player{}, fmt.Errorf("get player %d: %w", playerID, err)
	}
	if !ok {
		return player.Player{}, fmt.Errorf("%w: player %d", ErrNotFound, playerID)
	}
	if !p.Announced {
		return player.Player{}, fmt.Errorf("%w: player %d has not been announced yet", ErrNotEligible, playerID)
	}
	if !p.Claimable() {
		return player.Player{}, fmt.Errorf("%w: player %d is not available for claim", ErrNotEligible, playerID)
	}

	return p, nil
}

// openClaimOnUnclearedPlayer fetches the team's open claim, rejecting
// adjustment once the target player has cleared.
func (s *ClaimService) openClaimOnUnclearedPlayer(ctx context.Context, st Store, teamCode string, playerID int64) (claim.Claim, error) {
	p, ok, err := st.Players().Get(ctx, playerID)
	if err != nil {
		return claim.Claim{}, fmt.Errorf("get player %d: %w", playerID, err)
	}
	if !ok {
		return claim.Claim{}, fmt.Errorf("%w: player %d", ErrNotFound, playerID)
	}
	if p.Cleared || p.Claimed {
		return claim.Claim{}, fmt.Errorf("%w: player %d has already cleared", ErrNotEligible, playerID)
	}

	c, ok, err := st.Claims().Get(ctx, playerID, teamCode)
	if err != nil {
		return claim.Claim{}, fmt.Errorf("get claim: %w", err)
	}
	if !ok || !c.Open() {
		return claim.Claim{}, fmt.Errorf("%w: team %s has no open claim on player %d", ErrNotFound, teamCode, playerID)
	}

	return c, nil
}

// openPreferences collects the order preferences currently held by the
// team's open normal claims on not-yet-cleared players.
func (s *ClaimService) openPreferences(ctx context.Context, st Store, teamCode string) (map[int]struct{}, error) {
	claims, err := st.Claims().ListByTeam(ctx, teamCode, 0)
	if err != nil {
		return nil, fmt.Errorf("list team claims: %w", err)
	}

	out := make(map[int]struct{})
	for _, c := range claims {
		if !c.Open() || c.Type != claim.TypeNormal {
			continue
		}
		p, ok, err := st.Players().Get(ctx, c.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("get player %d: %w", c.PlayerID, err)
		}
		if !ok || p.Cleared || p.Claimed {
			continue
		}
		out[c.OrderPreference] = struct{}{}
	}

	return out, nil
}

// markClaimed applies the terminal claimed transition on the player row.
func (s *ClaimService) markClaimed(ctx context.Context, st Store, p player.Player, teamCode string) error {
	if p.Claimed {
		return fmt.Errorf("%w: player %d is already claimed", ErrStaleState, p.ID)
	}

	p.Status = player.StatusClaimed
	p.Cleared = true
	p.Claimed = true
	p.SuccessfulTeam = teamCode
	if err := st.Players().Update(ctx, p); err != nil {
		return fmt.Errorf("update player %d: %w", p.ID, err)
	}

	return nil
}

func (s *ClaimService) mention(teamCode string) string {
	if e, ok := s.directory.ByCode(teamCode); ok {
		return fmt.Sprintf("<@&%s>", e.RoleID)
	}
	return teamCode
}

func (s *ClaimService) announce(ctx context.Context, text string) {
	if err := s.notifier.Send(ctx, ChannelAnnouncements, text); err != nil {
		s.logger.WarnContext(ctx, "announcement delivery failed", "error", err)
	}
}
