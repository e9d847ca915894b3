package postgres

import (
	"context"
	"fmt"

	"github.com/riskibarqy/waiver-wire/internal/domain/player"
	qb "github.com/riskibarqy/waiver-wire/internal/platform/querybuilder"
)

type PlayerRepository struct {
	db execer
}

var playerSelectColumns = []string{
	"id",
	"name",
	"position",
	"roster_page_url",
	"time_entered",
	"status",
	"announced",
	"time_announced",
	"time_clearing",
	"cleared",
	"claimed",
	"successful_team",
}

func NewPlayerRepository(db execer) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) List(ctx context.Context) ([]player.Player, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select players query: %w", err)
	}

	var rows []playerTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storeErr("select players", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *PlayerRepository) Get(ctx context.Context, id int64) (player.Player, bool, error) {
	query, args, err := qb.Select(playerSelectColumns...).From("players").
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return player.Player{}, false, fmt.Errorf("build select player query: %w", err)
	}

	var row playerTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return player.Player{}, false, nil
		}
		return player.Player{}, false, storeErr(fmt.Sprintf("select player id=%d", id), err)
	}

	return row.toDomain(), true, nil
}

func (r *PlayerRepository) MaxID(ctx context.Context) (int64, error) {
	query, args, err := qb.Select("COALESCE(MAX(id), 0)").From("players").ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build max player id query: %w", err)
	}

	var max int64
	if err := r.db.GetContext(ctx, &max, query, args...); err != nil {
		return 0, storeErr("select max player id", err)
	}

	return max, nil
}

func (r *PlayerRepository) Insert(ctx context.Context, p player.Player) error {
	query, args, err := qb.InsertModel("players", playerToTableModel(p), "")
	if err != nil {
		return fmt.Errorf("build insert player query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr(fmt.Sprintf("insert player id=%d", p.ID), err)
	}

	return nil
}

func (r *PlayerRepository) Update(ctx context.Context, p player.Player) error {
	query, args, err := qb.Update("players").
		Set("name", p.Name).
		Set("position", string(p.Position)).
		Set("roster_page_url", p.RosterPageURL).
		Set("time_entered", p.TimeEntered).
		Set("status", string(p.Status)).
		Set("announced", p.Announced).
		Set("time_announced", p.TimeAnnounced).
		Set("time_clearing", p.TimeClearing).
		Set("cleared", p.Cleared).
		Set("claimed", p.Claimed).
		Set("successful_team", playerToTableModel(p).SuccessfulTeam).
		Where(qb.Eq("id", p.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update player query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr(fmt.Sprintf("update player id=%d", p.ID), err)
	}

	return nil
}

func (r *PlayerRepository) Delete(ctx context.Context, id int64) error {
	query, args, err := qb.DeleteFrom("players").Where(qb.Eq("id", id)).ToSQL()
	if err != nil {
		return fmt.Errorf("build delete player query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr(fmt.Sprintf("delete player id=%d", id), err)
	}

	return nil
}
