package postgres

import (
	"database/sql"
	"time"

	"github.com/riskibarqy/waiver-wire/internal/domain/player"
)

type playerTableModel struct {
	ID             int64          `db:"id"`
	Name           string         `db:"name"`
	Position       string         `db:"position"`
	RosterPageURL  string         `db:"roster_page_url"`
	TimeEntered    time.Time      `db:"time_entered"`
	Status         string         `db:"status"`
	Announced      bool           `db:"announced"`
	TimeAnnounced  *time.Time     `db:"time_announced"`
	TimeClearing   *time.Time     `db:"time_clearing"`
	Cleared        bool           `db:"cleared"`
	Claimed        bool           `db:"claimed"`
	SuccessfulTeam sql.NullString `db:"successful_team"`
}

func (m playerTableModel) toDomain() player.Player {
	return player.Player{
		ID:             m.ID,
		Name:           m.Name,
		Position:       player.Position(m.Position),
		RosterPageURL:  m.RosterPageURL,
		TimeEntered:    m.TimeEntered,
		Status:         player.Status(m.Status),
		Announced:      m.Announced,
		TimeAnnounced:  m.TimeAnnounced,
		TimeClearing:   m.TimeClearing,
		Cleared:        m.Cleared,
		Claimed:        m.Claimed,
		SuccessfulTeam: m.SuccessfulTeam.String,
	}
}

func playerToTableModel(p player.Player) playerTableModel {
	return playerTableModel{
		ID:             p.ID,
		Name:           p.Name,
		Position:       string(p.Position),
		RosterPageURL:  p.RosterPageURL,
		TimeEntered:    p.TimeEntered,
		Status:         string(p.Status),
		Announced:      p.Announced,
		TimeAnnounced:  p.TimeAnnounced,
		TimeClearing:   p.TimeClearing,
		Cleared:        p.Cleared,
		Claimed:        p.Claimed,
		SuccessfulTeam: sql.NullString{String: p.SuccessfulTeam, Valid: p.SuccessfulTeam != ""},
	}
}
