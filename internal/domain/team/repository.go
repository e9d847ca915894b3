package team

import "context"

// Repository describes priority-table persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Team, error)
	GetByCode(ctx context.Context, code string) (Team, bool, error)
	MaxPriority(ctx context.Context) (int, error)
	UpdatePriority(ctx context.Context, code string, priority int) error
	// ShiftPriorities adds delta to the priority of every team whose
	// priority lies in (lo, hi], in one statement.
	ShiftPriorities(ctx context.Context, lo, hi, delta int) error
}
