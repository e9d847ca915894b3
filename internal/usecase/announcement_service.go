package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/waiver-wire/internal/domain/player"
	"github.com/riskibarqy/waiver-wire/internal/platform/logging"
)

// AnnouncementConfig pins the daily window in which new players may be
// surfaced, and how long they stay claimable once announced.
type AnnouncementConfig struct {
	WindowStartHour int
	WindowEndHour   int
	Location        *time.Location
	ClearingOffset  time.Duration
	// MentionRoleID is the chat role tagged on announcements.
	MentionRoleID string
}

// AnnouncementService promotes newly registered players into the
// claimable pool. One run announces every eligible pending player in a
// single commit and a single combined message.
type AnnouncementService struct {
	store    Store
	notifier Notifier
	cfg      AnnouncementConfig
	logger   *logging.Logger
	now      func() time.Time
}

func NewAnnouncementService(store Store, notifier Notifier, cfg AnnouncementConfig, logger *logging.Logger) *AnnouncementService {
	if notifier == nil {
		notifier = NewNoopNotifier()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.ClearingOffset <= 0 {
		cfg.ClearingOffset = 24 * time.Hour
	}

	return &AnnouncementService{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *AnnouncementService) WithNow(now func() time.Time) *AnnouncementService {
	s.now = now
	return s
}

// RunOnce performs one announcement pass. While any player is still
// Available the run is skipped entirely: an in-flight claim window must
// fully drain before new players are surfaced.
func (s *AnnouncementService) RunOnce(ctx context.Context) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AnnouncementService.RunOnce")
	defer span.End()

	players, err := s.store.Players().List(ctx)
	if err != nil {
		return fmt.Errorf("list players: %w", err)
	}

	var pending []player.Player
	for _, p := range players {
		if p.Status == player.StatusAvailable {
			s.logger.WarnContext(ctx, "claim window still open, skipping announcement run", "player_id", p.ID)
			return nil
		}
		if !p.Announced {
			pending = append(pending, p)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	now := s.now()
	var announce []player.Player
	for _, p := range pending {
		if !s.withinWindow(now) {
			s.logger.WarnContext(ctx, "outside announcement window, deferring player",
				"player_id", p.ID, "hour", now.In(s.cfg.Location).Hour())
			continue
		}
		announce = append(announce, p)
	}
	if len(announce) == 0 {
		return nil
	}

	clearing := now.Add(s.cfg.ClearingOffset)
	err = s.store.InTx(ctx, func(st Store) error {
		for i := range announce {
			p := announce[i]
			announcedAt := now
			clearingAt := clearing
			p.Status = player.StatusAvailable
			p.Announced = true
			p.TimeAnnounced = &announcedAt
			p.TimeClearing = &clearingAt
			if err := st.Players().Update(ctx, p); err != nil {
				return fmt.Errorf("announce player %d: %w", p.ID, err)
			}
			announce[i] = p
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "players announced", "count", len(announce), "clearing_at", clearing)
	s.send(ctx, s.composeMessage(announce))

	return nil
}

func (s *AnnouncementService) withinWindow(now time.Time) bool {
	hour := now.In(s.cfg.Location).Hour()
	return hour >= s.cfg.WindowStartHour && hour <= s.cfg.WindowEndHour
}

// composeMessage builds the single combined announcement, stamped with
// the earliest clearing time among the batch.
func (s *AnnouncementService) composeMessage(announced []player.Player) string {
	earliest := *announced[0].TimeClearing
	for _, p := range announced[1:] {
		if p.TimeClearing.Before(earliest) {
			earliest = *p.TimeClearing
		}
	}

	var b strings.Builder
	if s.cfg.MentionRoleID != "" {
		fmt.Fprintf(&b, "<@&%s>\n", s.cfg.MentionRoleID)
	}
	fmt.Fprintf(&b, "The following waivers are now available to claim and clear on <t:%d:F>:\n\n", earliest.Unix())
	for i, p := range announced {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "ID: %d - %s - %s - %s", p.ID, p.Name, p.Position, p.RosterPageURL)
	}

	return b.String()
}

func (s *AnnouncementService) send(ctx context.Context, text string) {
	if err := s.notifier.Send(ctx, ChannelAnnouncements, text); err != nil {
		s.logger.WarnContext(ctx, "announcement delivery failed", "error", err)
	}
}
