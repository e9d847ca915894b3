package postgres

import (
	"context"
	"fmt"

	"github.com/riskibarqy/waiver-wire/internal/domain/claim"
	qb "github.com/riskibarqy/waiver-wire/internal/platform/querybuilder"
)

type ClaimRepository struct {
	db execer
}

var claimSelectColumns = []string{
	"id",
	"player_id",
	"team_code",
	"player_name",
	"claim_time",
	"claim_type",
	"order_preference",
	"outcome",
}

func NewClaimRepository(db execer) *ClaimRepository {
	return &ClaimRepository{db: db}
}

func (r *ClaimRepository) List(ctx context.Context) ([]claim.Claim, error) {
	query, args, err := qb.Select(claimSelectColumns...).From("claims").
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select claims query: %w", err)
	}

	return r.selectClaims(ctx, "select claims", query, args)
}

func (r *ClaimRepository) ListByPlayer(ctx context.Context, playerID int64) ([]claim.Claim, error) {
	query, args, err := qb.Select(claimSelectColumns...).From("claims").
		Where(qb.Eq("player_id", playerID)).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select claims by player query: %w", err)
	}

	return r.selectClaims(ctx, fmt.Sprintf("select claims player_id=%d", playerID), query, args)
}

func (r *ClaimRepository) ListByTeam(ctx context.Context, teamID string, limit int) ([]claim.Claim, error) {
	query, args, err := qb.Select(claimSelectColumns...).From("claims").
		Where(qb.Eq("team_code", teamID)).
		OrderBy("id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select claims by team query: %w", err)
	}

	return r.selectClaims(ctx, fmt.Sprintf("select claims team=%s", teamID), query, args)
}

func (r *ClaimRepository) Get(ctx context.Context, playerID int64, teamID string) (claim.Claim, bool, error) {
	query, args, err := qb.Select(claimSelectColumns...).From("claims").
		Where(
			qb.Eq("player_id", playerID),
			qb.Eq("team_code", teamID),
		).
		ToSQL()
	if err != nil {
		return claim.Claim{}, false, fmt.Errorf("build select claim query: %w", err)
	}

	var row claimTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return claim.Claim{}, false, nil
		}
		return claim.Claim{}, false, storeErr(fmt.Sprintf("select claim player_id=%d team=%s", playerID, teamID), err)
	}

	return row.toDomain(), true, nil
}

func (r *ClaimRepository) Insert(ctx context.Context, c claim.Claim) error {
	query, args, err := qb.InsertModel("claims", claimToInsertModel(c), "")
	if err != nil {
		return fmt.Errorf("build insert claim query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr(fmt.Sprintf("insert claim player_id=%d team=%s", c.PlayerID, c.TeamID), err)
	}

	return nil
}

func (r *ClaimRepository) Update(ctx context.Context, c claim.Claim) error {
	query, args, err := qb.Update("claims").
		Set("player_name", c.PlayerName).
		Set("claim_time", c.Time).
		Set("claim_type", string(c.Type)).
		Set("order_preference", c.OrderPreference).
		Set("outcome", string(c.Outcome)).
		Where(
			qb.Eq("player_id", c.PlayerID),
			qb.Eq("team_code", c.TeamID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update claim query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr(fmt.Sprintf("update claim player_id=%d team=%s", c.PlayerID, c.TeamID), err)
	}

	return nil
}

func (r *ClaimRepository) Delete(ctx context.Context, playerID int64, teamID string) error {
	query, args, err := qb.DeleteFrom("claims").
		Where(
			qb.Eq("player_id", playerID),
			qb.Eq("team_code", teamID),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete claim query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr(fmt.Sprintf("delete claim player_id=%d team=%s", playerID, teamID), err)
	}

	return nil
}

func (r *ClaimRepository) DeleteByPlayer(ctx context.Context, playerID int64) error {
	query, args, err := qb.DeleteFrom("claims").
		Where(qb.Eq("player_id", playerID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete claims by player query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr(fmt.Sprintf("delete claims player_id=%d", playerID), err)
	}

	return nil
}

func (r *ClaimRepository) MarkLostExcept(ctx context.Context, playerID int64, winnerTeamID string) error {
	query, args, err := qb.Update("claims").
		Set("outcome", string(claim.OutcomeLost)).
		Where(
			qb.Eq("player_id", playerID),
			qb.Neq("team_code", winnerTeamID),
			qb.Eq("outcome", string(claim.OutcomePending)),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build mark claims lost query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr(fmt.Sprintf("mark claims lost player_id=%d", playerID), err)
	}

	return nil
}

func (r *ClaimRepository) ShiftPreferences(ctx context.Context, teamID string, lo, hi, delta int) error {
	query, args, err := qb.Update("claims").
		SetExpr("order_preference", "order_preference + ?", delta).
		Where(
			qb.Eq("team_code", teamID),
			qb.Eq("claim_type", string(claim.TypeNormal)),
			qb.Eq("outcome", string(claim.OutcomePending)),
			qb.Gte("order_preference", lo),
			qb.Lte("order_preference", hi),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build shift preferences query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return storeErr(fmt.Sprintf("shift preferences team=%s", teamID), err)
	}

	return nil
}

func (r *ClaimRepository) selectClaims(ctx context.Context, op, query string, args []any) ([]claim.Claim, error) {
	var rows []claimTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, storeErr(op, err)
	}

	out := make([]claim.Claim, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}

	return out, nil
}
