package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/waiver-wire/internal/domain/claim"
	"github.com/riskibarqy/waiver-wire/internal/domain/player"
	"github.com/riskibarqy/waiver-wire/internal/domain/team"
	"github.com/riskibarqy/waiver-wire/internal/infrastructure/repository/memory"
)

// captureNotifier records every message instead of delivering it.
type captureNotifier struct {
	messages []string
}

func (n *captureNotifier) Send(_ context.Context, _ string, text string) error {
	n.messages = append(n.messages, text)
	return nil
}

func testDirectory(t *testing.T) *team.Directory {
	t.Helper()

	d, err := team.NewDirectory(memory.SeedDirectory())
	if err != nil {
		t.Fatalf("build directory: %v", err)
	}

	return d
}

func pendingPlayer(id int64, name string, entered time.Time) player.Player {
	return player.Player{
		ID:            id,
		Name:          name,
		Position:      player.PositionRunningBack,
		RosterPageURL: "https://rosters.example/players/" + name,
		TimeEntered:   entered,
		Status:        player.StatusPending,
	}
}

func announcedPlayer(id int64, name string, clearing time.Time) player.Player {
	announced := clearing.Add(-24 * time.Hour)
	p := pendingPlayer(id, name, announced.Add(-time.Hour))
	p.Status = player.StatusAvailable
	p.Announced = true
	p.TimeAnnounced = &announced
	p.TimeClearing = &clearing

	return p
}

func normalClaim(playerID int64, teamCode string, pref int, at time.Time) claim.Claim {
	return claim.Claim{
		PlayerID:        playerID,
		TeamID:          teamCode,
		Time:            at,
		Type:            claim.TypeNormal,
		OrderPreference: pref,
		Outcome:         claim.OutcomePending,
	}
}
