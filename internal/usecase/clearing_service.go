package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/riskibarqy/waiver-wire/internal/domain/claim"
	"github.com/riskibarqy/waiver-wire/internal/domain/player"
	"github.com/riskibarqy/waiver-wire/internal/domain/team"
	"github.com/riskibarqy/waiver-wire/internal/platform/logging"
)

// ClearingService drives the clearing deadline: it promotes unclaimed
// players to free agency and resolves expired claim windows one winner
// per round.
type ClearingService struct {
	store     Store
	notifier  Notifier
	priority  *PriorityService
	directory *team.Directory
	// mentionRoleID tags free-agency promotions, mirroring announcements.
	mentionRoleID string
	logger        *logging.Logger
	now           func() time.Time
}

func NewClearingService(
	store Store,
	notifier Notifier,
	priority *PriorityService,
	directory *team.Directory,
	mentionRoleID string,
	logger *logging.Logger,
) *ClearingService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if logger == nil {
		logger = logging.Default()
	}

	return &ClearingService{
		store:         store,
		notifier:      notifier,
		priority:      priority,
		directory:     directory,
		mentionRoleID: mentionRoleID,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *ClearingService) WithNow(now func() time.Time) *ClearingService {
	s.now = now
	return s
}

// RunOnce performs one clearing pass. It returns true when a claim was
// resolved, signalling the scheduler to re-kick the job after the
// cooldown so remaining players drain one winner per round.
func (s *ClearingService) RunOnce(ctx context.Context) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClearingService.RunOnce")
	defer span.End()

	players, err := s.store.Players().List(ctx)
	if err != nil {
		return false, fmt.Errorf("list players: %w", err)
	}
	claims, err := s.store.Claims().List(ctx)
	if err != nil {
		return false, fmt.Errorf("list claims: %w", err)
	}

	now := s.now()
	var clearing []player.Player
	for _, p := range players {
		if p.ClearingDue(now) {
			clearing = append(clearing, p)
		}
	}
	if len(clearing) == 0 {
		return false, nil
	}

	claimsByPlayer := make(map[int64][]claim.Claim)
	for _, c := range claims {
		claimsByPlayer[c.PlayerID] = append(claimsByPlayer[c.PlayerID], c)
	}

	if err := s.promoteFreeAgents(ctx, clearing, claimsByPlayer); err != nil {
		return false, err
	}

	var clearingClaims []claim.Claim
	for _, p := range clearing {
		for _, c := range claimsByPlayer[p.ID] {
			if c.Open() {
				clearingClaims = append(clearingClaims, c)
			}
		}
	}
	if len(clearingClaims) == 0 {
		return false, nil
	}

	return s.resolve(ctx, clearingClaims, clearing)
}

// promoteFreeAgents moves every clearing player that attracted no claims
// at all to free agency, announcing each one.
func (s *ClearingService) promoteFreeAgents(ctx context.Context, clearing []player.Player, claimsByPlayer map[int64][]claim.Claim) error {
	for _, p := range clearing {
		if len(claimsByPlayer[p.ID]) > 0 || p.Status == player.StatusFreeClaim {
			continue
		}

		promoted := p
		promoted.Status = player.StatusFreeClaim
		err := s.store.InTx(ctx, func(st Store) error {
			return st.Players().Update(ctx, promoted)
		})
		if err != nil {
			return fmt.Errorf("promote player %d to free claim: %w", p.ID, err)
		}

		s.logger.InfoContext(ctx, "player promoted to free claim", "player_id", p.ID)
		s.send(ctx, fmt.Sprintf("%s%s with ID %d is now available for Free Claim!", s.mentionPrefix(), p.Name, p.ID))
	}

	return nil
}

// resolve picks the single winning claim for this round: team priority
// ascending, then order preference ascending. A team's overall waiver
// rank always outranks any other team's per-player preference.
func (s *ClearingService) resolve(ctx context.Context, clearingClaims []claim.Claim, clearing []player.Player) (bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ClearingService.resolve")
	defer span.End()

	anyAvailable := false
	for _, p := range clearing {
		if p.Status == player.StatusAvailable {
			anyAvailable = true
			break
		}
	}
	if !anyAvailable {
		s.logger.InfoContext(ctx, "no clearing players left to resolve")
		return false, nil
	}

	teams, err := s.store.Teams().List(ctx)
	if err != nil {
		return false, fmt.Errorf("list teams: %w", err)
	}
	priorityByTeam := make(map[string]int, len(teams))
	for _, t := range teams {
		priorityByTeam[t.Code] = t.Priority
	}
	priorityOf := func(code string) int {
		if p, ok := priorityByTeam[code]; ok {
			return p
		}
		s.logger.WarnContext(ctx, "claim from team missing in priority table, ranking last", "team", code)
		return PriorityUnknown
	}

	sort.SliceStable(clearingClaims, func(i, j int) bool {
		pi, pj := priorityOf(clearingClaims[i].TeamID), priorityOf(clearingClaims[j].TeamID)
		if pi != pj {
			return pi < pj
		}
		return clearingClaims[i].OrderPreference < clearingClaims[j].OrderPreference
	})

	top := clearingClaims[0]

	var winnerName string
	err = s.store.InTx(ctx, func(st Store) error {
		p, ok, err := st.Players().Get(ctx, top.PlayerID)
		if err != nil {
			return fmt.Errorf("get player %d: %w", top.PlayerID, err)
		}
		if !ok {
			return fmt.Errorf("%w: player %d vanished before resolution", ErrStaleState, top.PlayerID)
		}
		if p.Status != player.StatusAvailable {
			return fmt.Errorf("%w: player %d is %s, not available", ErrStaleState, p.ID, p.Status)
		}
		winnerName = p.Name

		p.Status = player.StatusClaimed
		p.Cleared = true
		p.Claimed = true
		p.SuccessfulTeam = top.TeamID
		if err := st.Players().Update(ctx, p); err != nil {
			return fmt.Errorf("update player %d: %w", p.ID, err)
		}

		top.Outcome = claim.OutcomeWon
		if err := st.Claims().Update(ctx, top); err != nil {
			return fmt.Errorf("mark winning claim: %w", err)
		}
		if err := st.Claims().MarkLostExcept(ctx, top.PlayerID, top.TeamID); err != nil {
			return fmt.Errorf("mark losing claims: %w", err)
		}

		if err := s.priority.rotateToBottom(ctx, st, top.TeamID); err != nil {
			if errors.Is(err, ErrNotFound) {
				s.logger.WarnContext(ctx, "winning team missing from priority table, skipping rotation", "team", top.TeamID)
				return nil
			}
			return err
		}

		return nil
	})
	if err != nil {
		// A stale target means another path resolved the player between
		// our load and this transaction. Abort the round without
		// mutation; the next tick retries. Deliberately no fall-through
		// to the next-ranked claim.
		if errors.Is(err, ErrStaleState) {
			s.logger.WarnContext(ctx, "resolution round aborted", "player_id", top.PlayerID, "error", err)
			return false, nil
		}
		return false, err
	}

	s.logger.InfoContext(ctx, "claim resolved", "player_id", top.PlayerID, "team", top.TeamID)
	s.send(ctx, fmt.Sprintf("%s with ID: %d has been claimed by %s!", winnerName, top.PlayerID, s.mention(top.TeamID)))

	return true, nil
}

func (s *ClearingService) mention(teamCode string) string {
	if e, ok := s.directory.ByCode(teamCode); ok {
		return fmt.Sprintf("<@&%s>", e.RoleID)
	}
	return teamCode
}

func (s *ClearingService) mentionPrefix() string {
	if s.mentionRoleID == "" {
		return ""
	}
	return fmt.Sprintf("<@&%s> ", s.mentionRoleID)
}

func (s *ClearingService) send(ctx context.Context, text string) {
	if err := s.notifier.Send(ctx, ChannelAnnouncements, text); err != nil {
		s.logger.WarnContext(ctx, "announcement delivery failed", "error", err)
	}
}
