package claim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClaimValidate(t *testing.T) {
	now := time.Date(2026, 8, 14, 19, 0, 0, 0, time.UTC)

	valid := Claim{
		PlayerID:        1,
		TeamID:          "KCC",
		Time:            now,
		Type:            TypeNormal,
		OrderPreference: 1,
		Outcome:         OutcomePending,
	}
	require.NoError(t, valid.Validate())

	quick := valid
	quick.Type = TypeQuick
	quick.OrderPreference = PreferenceNone
	require.NoError(t, quick.Validate())

	tests := []struct {
		name   string
		mutate func(*Claim)
	}{
		{"zero player id", func(c *Claim) { c.PlayerID = 0 }},
		{"empty team", func(c *Claim) { c.TeamID = "" }},
		{"bad type", func(c *Claim) { c.Type = "blind" }},
		{"normal without preference", func(c *Claim) { c.OrderPreference = 0 }},
		{"quick with preference", func(c *Claim) {
			c.Type = TypeQuick
			c.OrderPreference = 2
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}

func TestClaimOpen(t *testing.T) {
	require.True(t, Claim{Outcome: OutcomePending}.Open())
	require.True(t, Claim{}.Open())
	require.False(t, Claim{Outcome: OutcomeWon}.Open())
	require.False(t, Claim{Outcome: OutcomeLost}.Open())
}
