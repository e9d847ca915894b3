package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/waiver-wire/internal/domain/team"
	"github.com/riskibarqy/waiver-wire/internal/infrastructure/repository/memory"
)

// BootstrapSeed inserts the configured league's teams on first start,
// falling back to the development league when none are given. An
// already populated priority table is left untouched.
func BootstrapSeed(ctx context.Context, db *sqlx.DB, teams []team.Team) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM teams`); err != nil {
		return storeErr("count teams for bootstrap seed", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return storeErr("begin seed tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, t := range bootstrapTeams(teams) {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO teams (code, name, role_id, priority)
VALUES (:code, :name, :role_id, :priority)
ON CONFLICT (code) DO NOTHING`, map[string]any{
			"code":     t.Code,
			"name":     t.Name,
			"role_id":  t.RoleID,
			"priority": t.Priority,
		})
		if err != nil {
			return fmt.Errorf("bind seed team %s query: %w", t.Code, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return storeErr(fmt.Sprintf("seed team %s", t.Code), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit seed tx", err)
	}

	return nil
}

func bootstrapTeams(teams []team.Team) []team.Team {
	if len(teams) == 0 {
		return memory.SeedTeams()
	}
	return teams
}
