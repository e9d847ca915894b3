package player

import "context"

// Repository describes player persistence needs from use cases.
type Repository interface {
	List(ctx context.Context) ([]Player, error)
	Get(ctx context.Context, id int64) (Player, bool, error)
	MaxID(ctx context.Context) (int64, error)
	Insert(ctx context.Context, p Player) error
	Update(ctx context.Context, p Player) error
	Delete(ctx context.Context, id int64) error
}
