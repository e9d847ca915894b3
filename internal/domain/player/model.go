package player

import (
	"fmt"
	"time"
)

// Status tracks where a player sits in the waiver lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAvailable Status = "available"
	StatusFreeClaim Status = "free_claim"
	StatusClaimed   Status = "claimed"
)

var AllStatuses = map[Status]struct{}{
	StatusPending:   {},
	StatusAvailable: {},
	StatusFreeClaim: {},
	StatusClaimed:   {},
}

// Position restricts registrations to the league's roster slots.
type Position string

const (
	PositionQuarterback   Position = "QB"
	PositionRunningBack   Position = "RB"
	PositionWideReceiver  Position = "WR"
	PositionTightEnd      Position = "TE"
	PositionOffensiveLine Position = "OL"
	PositionDefensiveEnd  Position = "DE"
	PositionDefensiveTack Position = "DT"
	PositionLinebacker    Position = "LB"
	PositionCornerback    Position = "CB"
	PositionSafety        Position = "S"
	PositionKickerPunter  Position = "K/P"
)

var AllPositions = map[Position]struct{}{
	PositionQuarterback:   {},
	PositionRunningBack:   {},
	PositionWideReceiver:  {},
	PositionTightEnd:      {},
	PositionOffensiveLine: {},
	PositionDefensiveEnd:  {},
	PositionDefensiveTack: {},
	PositionLinebacker:    {},
	PositionCornerback:    {},
	PositionSafety:        {},
	PositionKickerPunter:  {},
}

// Player is one entry on the waiver wire.
//
// TimeClearing is set exactly when the player has been announced at least
// once. Claimed is terminal: once set the row accepts no further claim
// mutation.
type Player struct {
	ID             int64
	Name           string
	Position       Position
	RosterPageURL  string
	TimeEntered    time.Time
	Status         Status
	Announced      bool
	TimeAnnounced  *time.Time
	TimeClearing   *time.Time
	Cleared        bool
	Claimed        bool
	SuccessfulTeam string
}

func (p Player) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("player id must be positive")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if _, ok := AllPositions[p.Position]; !ok {
		return fmt.Errorf("invalid player position: %s", p.Position)
	}
	if _, ok := AllStatuses[p.Status]; !ok {
		return fmt.Errorf("invalid player status: %s", p.Status)
	}
	if p.Announced && p.TimeClearing == nil {
		return fmt.Errorf("announced player must have a clearing time")
	}
	if !p.Announced && p.TimeClearing != nil {
		return fmt.Errorf("unannounced player cannot have a clearing time")
	}

	return nil
}

// Claimable reports whether the player can accept a new claim.
func (p Player) Claimable() bool {
	return p.Announced && (p.Status == StatusAvailable || p.Status == StatusFreeClaim)
}

// ClearingDue reports whether the clearing deadline has passed at now.
func (p Player) ClearingDue(now time.Time) bool {
	return !p.Claimed && p.TimeClearing != nil && !p.TimeClearing.After(now)
}
