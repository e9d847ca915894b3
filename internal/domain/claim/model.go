package claim

import (
	"fmt"
	"time"
)

// Type selects the resolution path for a claim.
type Type string

const (
	TypeNormal Type = "normal"
	TypeQuick  Type = "quick"
	TypeFree   Type = "free"
)

var AllTypes = map[Type]struct{}{
	TypeNormal: {},
	TypeQuick:  {},
	TypeFree:   {},
}

// Outcome records how a claim resolved. A claim is open while its
// outcome is still pending; it is marked won or lost exactly once.
type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomeWon     Outcome = "won"
	OutcomeLost    Outcome = "lost"
)

// PreferenceNone is the order-preference sentinel for quick and free
// claims, which never compete on preference.
const PreferenceNone = 0

// Claim is one team's bid on one player. The (PlayerID, TeamID) pair is
// unique while the claim is open. PlayerName is a deliberate snapshot of
// the name at claim time, kept for the audit trail.
type Claim struct {
	PlayerID        int64
	TeamID          string
	PlayerName      string
	Time            time.Time
	Type            Type
	OrderPreference int
	Outcome         Outcome
}

func (c Claim) Validate() error {
	if c.PlayerID <= 0 {
		return fmt.Errorf("claim player id must be positive")
	}
	if c.TeamID == "" {
		return fmt.Errorf("claim team id is required")
	}
	if _, ok := AllTypes[c.Type]; !ok {
		return fmt.Errorf("invalid claim type: %s", c.Type)
	}
	if c.Type == TypeNormal && c.OrderPreference < 1 {
		return fmt.Errorf("normal claim requires an order preference >= 1")
	}
	if c.Type != TypeNormal && c.OrderPreference != PreferenceNone {
		return fmt.Errorf("%s claim cannot carry an order preference", c.Type)
	}

	return nil
}

// Open reports whether the claim is still awaiting resolution.
func (c Claim) Open() bool {
	return c.Outcome == OutcomePending || c.Outcome == ""
}
