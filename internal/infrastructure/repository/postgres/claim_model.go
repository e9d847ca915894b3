package postgres

import (
	"time"

	"github.com/riskibarqy/waiver-wire/internal/domain/claim"
)

type claimTableModel struct {
	ID              int64     `db:"id"`
	PlayerID        int64     `db:"player_id"`
	TeamCode        string    `db:"team_code"`
	PlayerName      string    `db:"player_name"`
	ClaimTime       time.Time `db:"claim_time"`
	ClaimType       string    `db:"claim_type"`
	OrderPreference int       `db:"order_preference"`
	Outcome         string    `db:"outcome"`
}

// claimInsertModel omits the serial id so the database assigns it.
type claimInsertModel struct {
	PlayerID        int64     `db:"player_id"`
	TeamCode        string    `db:"team_code"`
	PlayerName      string    `db:"player_name"`
	ClaimTime       time.Time `db:"claim_time"`
	ClaimType       string    `db:"claim_type"`
	OrderPreference int       `db:"order_preference"`
	Outcome         string    `db:"outcome"`
}

func (m claimTableModel) toDomain() claim.Claim {
	return claim.Claim{
		PlayerID:        m.PlayerID,
		TeamID:          m.TeamCode,
		PlayerName:      m.PlayerName,
		Time:            m.ClaimTime,
		Type:            claim.Type(m.ClaimType),
		OrderPreference: m.OrderPreference,
		Outcome:         claim.Outcome(m.Outcome),
	}
}

func claimToInsertModel(c claim.Claim) claimInsertModel {
	outcome := c.Outcome
	if outcome == "" {
		outcome = claim.OutcomePending
	}
	return claimInsertModel{
		PlayerID:        c.PlayerID,
		TeamCode:        c.TeamID,
		PlayerName:      c.PlayerName,
		ClaimTime:       c.Time,
		ClaimType:       string(c.Type),
		OrderPreference: c.OrderPreference,
		Outcome:         string(outcome),
	}
}
