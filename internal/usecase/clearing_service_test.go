package usecase_test

import (
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/waiver-wire/internal/domain/claim"
	"github.com/riskibarqy/waiver-wire/internal/domain/player"
	"github.com/riskibarqy/waiver-wire/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/waiver-wire/internal/usecase"
)

func newClearingService(t *testing.T, store *memory.Store, notifier *captureNotifier, now time.Time) *usecase.ClearingService {
	t.Helper()

	priority := usecase.NewPriorityService(store, nil)
	return usecase.NewClearingService(store, notifier, priority, testDirectory(t), "", nil).
		WithNow(func() time.Time { return now })
}

func TestClearingService_RunOnce_NothingDue(t *testing.T) {
	now := time.Date(2026, 8, 15, 18, 0, 0, 0, time.UTC)
	clearing := now.Add(6 * time.Hour)

	store := memory.NewStore(
		[]player.Player{announcedPlayer(1, "Mack Truck", clearing)},
		[]claim.Claim{normalClaim(1, "KCC", 1, now)},
		memory.SeedTeams(),
	)
	notifier := &captureNotifier{}
	service := newClearingService(t, store, notifier, now)

	resolved, err := service.RunOnce(t.Context())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if resolved {
		t.Fatal("nothing due, but a claim resolved")
	}
	if len(notifier.messages) != 0 {
		t.Fatalf("unexpected messages: %v", notifier.messages)
	}
}

func TestClearingService_TeamPriorityOutranksPreference(t *testing.T) {
	now := time.Date(2026, 8, 15, 18, 0, 0, 0, time.UTC)
	cleared := now.Add(-time.Minute)

	// DAL (priority 4) holds its first preference, KCC (priority 3) only
	// its second. KCC still wins: waiver rank beats per-player preference.
	store := memory.NewStore(
		[]player.Player{announcedPlayer(1, "Mack Truck", cleared)},
		[]claim.Claim{
			normalClaim(1, "DAL", 1, now.Add(-25*time.Hour)),
			normalClaim(1, "KCC", 2, now.Add(-25*time.Hour)),
		},
		memory.SeedTeams(),
	)
	notifier := &captureNotifier{}
	service := newClearingService(t, store, notifier, now)

	resolved, err := service.RunOnce(t.Context())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if !resolved {
		t.Fatal("expected a resolved claim")
	}

	p, _, _ := store.Players().Get(t.Context(), 1)
	if p.SuccessfulTeam != "KCC" || p.Status != player.StatusClaimed {
		t.Fatalf("expected KCC to win, got %+v", p)
	}

	won, _, _ := store.Claims().Get(t.Context(), 1, "KCC")
	lost, _, _ := store.Claims().Get(t.Context(), 1, "DAL")
	if won.Outcome != claim.OutcomeWon || lost.Outcome != claim.OutcomeLost {
		t.Fatalf("unexpected outcomes: KCC=%s DAL=%s", won.Outcome, lost.Outcome)
	}

	// The winner rotates to the bottom of the order.
	priority := usecase.NewPriorityService(store, nil)
	got, _ := priority.PriorityOf(t.Context(), "KCC")
	if got != len(memory.SeedTeams()) {
		t.Fatalf("expected KCC at the bottom, got priority %d", got)
	}

	if len(notifier.messages) != 1 || !strings.Contains(notifier.messages[0], "claimed by") {
		t.Fatalf("expected resolution announcement, got %v", notifier.messages)
	}
}

func TestClearingService_PreferenceBreaksTiesWithinTeam(t *testing.T) {
	now := time.Date(2026, 8, 15, 18, 0, 0, 0, time.UTC)
	cleared := now.Add(-time.Minute)

	store := memory.NewStore(
		[]player.Player{
			announcedPlayer(1, "Mack Truck", cleared),
			announcedPlayer(2, "Sharky Waters", cleared),
		},
		[]claim.Claim{
			normalClaim(1, "KCC", 2, now.Add(-25*time.Hour)),
			normalClaim(2, "KCC", 1, now.Add(-25*time.Hour)),
		},
		memory.SeedTeams(),
	)
	service := newClearingService(t, store, &captureNotifier{}, now)

	resolved, err := service.RunOnce(t.Context())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if !resolved {
		t.Fatal("expected a resolved claim")
	}

	p2, _, _ := store.Players().Get(t.Context(), 2)
	if p2.SuccessfulTeam != "KCC" {
		t.Fatalf("expected the first-preference player to resolve, got %+v", p2)
	}
	p1, _, _ := store.Players().Get(t.Context(), 1)
	if p1.Claimed {
		t.Fatalf("second-preference player resolved in the same round: %+v", p1)
	}
}

func TestClearingService_DrainsOneWinnerPerRound(t *testing.T) {
	now := time.Date(2026, 8, 15, 18, 0, 0, 0, time.UTC)
	cleared := now.Add(-time.Minute)

	store := memory.NewStore(
		[]player.Player{
			announcedPlayer(1, "Mack Truck", cleared),
			announcedPlayer(2, "Sharky Waters", cleared),
		},
		[]claim.Claim{
			normalClaim(1, "KCC", 1, now.Add(-25*time.Hour)),
			normalClaim(2, "DAL", 1, now.Add(-25*time.Hour)),
		},
		memory.SeedTeams(),
	)
	service := newClearingService(t, store, &captureNotifier{}, now)

	for i, wantTeam := range []string{"KCC", "DAL"} {
		resolved, err := service.RunOnce(t.Context())
		if err != nil {
			t.Fatalf("round %d: %v", i+1, err)
		}
		if !resolved {
			t.Fatalf("round %d: expected a resolution", i+1)
		}

		p, _, _ := store.Players().Get(t.Context(), int64(i+1))
		if p.SuccessfulTeam != wantTeam {
			t.Fatalf("round %d: want %s, got %+v", i+1, wantTeam, p)
		}
	}

	resolved, err := service.RunOnce(t.Context())
	if err != nil {
		t.Fatalf("final round: %v", err)
	}
	if resolved {
		t.Fatal("no claims left, but a claim resolved")
	}
}

func TestClearingService_PromotesUnclaimedToFreeAgency(t *testing.T) {
	now := time.Date(2026, 8, 15, 18, 0, 0, 0, time.UTC)
	cleared := now.Add(-time.Minute)

	store := memory.NewStore(
		[]player.Player{announcedPlayer(1, "Mack Truck", cleared)},
		nil,
		memory.SeedTeams(),
	)
	notifier := &captureNotifier{}
	priority := usecase.NewPriorityService(store, nil)
	service := usecase.NewClearingService(store, notifier, priority, testDirectory(t), "55443322", nil).
		WithNow(func() time.Time { return now })

	resolved, err := service.RunOnce(t.Context())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if resolved {
		t.Fatal("free agency promotion must not count as a resolution")
	}

	p, _, _ := store.Players().Get(t.Context(), 1)
	if p.Status != player.StatusFreeClaim {
		t.Fatalf("expected free_claim status, got %s", p.Status)
	}
	if p.Claimed || p.SuccessfulTeam != "" {
		t.Fatalf("promotion mutated claim fields: %+v", p)
	}

	if len(notifier.messages) != 1 {
		t.Fatalf("expected one promotion message, got %v", notifier.messages)
	}
	if !strings.Contains(notifier.messages[0], "Free Claim") || !strings.Contains(notifier.messages[0], "<@&55443322>") {
		t.Fatalf("unexpected promotion message: %q", notifier.messages[0])
	}

	// A second pass is a no-op: the promotion already happened.
	if _, err := service.RunOnce(t.Context()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("promotion announced twice: %v", notifier.messages)
	}
}

func TestClearingService_StaleTargetAbortsRound(t *testing.T) {
	now := time.Date(2026, 8, 15, 18, 0, 0, 0, time.UTC)
	cleared := now.Add(-time.Minute)

	// The top-ranked claim targets a player that already left the
	// available pool. The round aborts without falling through to the
	// next-ranked claim.
	stale := announcedPlayer(1, "Mack Truck", cleared)
	stale.Status = player.StatusFreeClaim

	store := memory.NewStore(
		[]player.Player{stale, announcedPlayer(2, "Sharky Waters", cleared)},
		[]claim.Claim{
			normalClaim(1, "BBB", 1, now.Add(-25*time.Hour)),
			normalClaim(2, "NOR", 1, now.Add(-25*time.Hour)),
		},
		memory.SeedTeams(),
	)
	notifier := &captureNotifier{}
	service := newClearingService(t, store, notifier, now)

	resolved, err := service.RunOnce(t.Context())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if resolved {
		t.Fatal("stale round must not report a resolution")
	}

	p2, _, _ := store.Players().Get(t.Context(), 2)
	if p2.Claimed {
		t.Fatalf("round fell through to the next claim: %+v", p2)
	}

	c, _, _ := store.Claims().Get(t.Context(), 2, "NOR")
	if c.Outcome != claim.OutcomePending {
		t.Fatalf("claim mutated by aborted round: %s", c.Outcome)
	}

	if len(notifier.messages) != 0 {
		t.Fatalf("aborted round must not announce: %v", notifier.messages)
	}
}

func TestClearingService_UnknownTeamRanksLast(t *testing.T) {
	now := time.Date(2026, 8, 15, 18, 0, 0, 0, time.UTC)
	cleared := now.Add(-time.Minute)

	store := memory.NewStore(
		[]player.Player{announcedPlayer(1, "Mack Truck", cleared)},
		[]claim.Claim{
			normalClaim(1, "ZZZ", 1, now.Add(-25*time.Hour)),
			normalClaim(1, "TIJ", 1, now.Add(-25*time.Hour)),
		},
		memory.SeedTeams(),
	)
	service := newClearingService(t, store, &captureNotifier{}, now)

	resolved, err := service.RunOnce(t.Context())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if !resolved {
		t.Fatal("expected a resolved claim")
	}

	p, _, _ := store.Players().Get(t.Context(), 1)
	if p.SuccessfulTeam != "TIJ" {
		t.Fatalf("expected known team to outrank unknown team, got %+v", p)
	}
}
