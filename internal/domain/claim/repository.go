package claim

import "context"

// Repository describes claim-ledger persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Claim, error)
	ListByPlayer(ctx context.Context, playerID int64) ([]Claim, error)
	// ListByTeam returns the team's claims newest first.
	ListByTeam(ctx context.Context, teamID string, limit int) ([]Claim, error)
	Get(ctx context.Context, playerID int64, teamID string) (Claim, bool, error)
	Insert(ctx context.Context, c Claim) error
	Update(ctx context.Context, c Claim) error
	Delete(ctx context.Context, playerID int64, teamID string) error
	DeleteByPlayer(ctx context.Context, playerID int64) error
	// MarkLostExcept closes every open claim on the player except the
	// winner's, in one statement.
	MarkLostExcept(ctx context.Context, playerID int64, winnerTeamID string) error
	// ShiftPreferences adds delta to the order preference of the team's
	// open normal claims whose preference lies in [lo, hi].
	ShiftPreferences(ctx context.Context, teamID string, lo, hi, delta int) error
}
