package postgres

import (
	"context"
	"fmt"

	"github.com/riskibarqy/waiver-wire/internal/domain/team"
	qb "github.com/riskibarqy/waiver-wire/internal/platform/querybuilder"
)

type TeamRepository struct {
	db execer
}

var teamSelectColumns = []string{
	"code",
	"name",
	"role_id",
	"priority",
}

func NewTeamRepository(db execer) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) List(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select(teamSelectColumns...).From("teams").
		OrderBy("priority").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams query: %w", err)
	}

	var rows []teamTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storeErr("select teams", err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}

func (r *TeamRepository) GetByCode(ctx context.Context, code string) (team.Team, bool, error) {
	query, args, err := qb.Select(teamSelectColumns...).From("teams").
		Where(qb.Eq("code", code)).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team query: %w", err)
	}

	var row teamTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return team.Team{}, false, nil
		}
		return team.Team{}, false, storeErr(fmt.Sprintf("select team code=%s", code), err)
	}

	return row.toDomain(), true, nil
}

func (r *TeamRepository) MaxPriority(ctx context.Context) (int, error) {
	query, args, err := qb.Select("COALESCE(MAX(priority), 0)").From("teams").ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build max team priority query: %w", err)
	}

	var max int
	if err := r.db.GetContext(ctx, &max, query, args...); err != nil {
		return 0, storeErr("select max team priority", err)
	}

	return max, nil
}

func (r *TeamRepository) UpdatePriority(ctx context.Context, code string, priority int) error {
	query, args, err := qb.Update("teams").
		Set("priority", priority).
		Where(qb.Eq("code", code)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update team priority query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr(fmt.Sprintf("update team priority code=%s", code), err)
	}

	return nil
}

func (r *TeamRepository) ShiftPriorities(ctx context.Context, lo, hi, delta int) error {
	query, args, err := qb.Update("teams").
		SetExpr("priority", "priority + ?", delta).
		Where(
			qb.Gt("priority", lo),
			qb.Lte("priority", hi),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build shift team priorities query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr("shift team priorities", err)
	}

	return nil
}
