package usecase

import (
	"context"

	"github.com/riskibarqy/waiver-wire/internal/domain/claim"
	"github.com/riskibarqy/waiver-wire/internal/domain/player"
	"github.com/riskibarqy/waiver-wire/internal/domain/team"
)

// Store is the transactional boundary the engine is written against.
// InTx runs fn against a store view whose mutations commit as one unit;
// every logical operation (submit, resolve, rotate, withdraw, announce
// batch) goes through it.
type Store interface {
	Players() player.Repository
	Claims() claim.Repository
	Teams() team.Repository
	InTx(ctx context.Context, fn func(Store) error) error
}

// Notifier is the fire-and-forget message capability. The engine does
// not react to delivery failure beyond logging.
type Notifier interface {
	Send(ctx context.Context, channel, text string) error
}

// ChannelAnnouncements is the single channel the engine publishes to.
const ChannelAnnouncements = "announcements"

type noopNotifier struct{}

func (noopNotifier) Send(context.Context, string, string) error { return nil }

func NewNoopNotifier() Notifier {
	return noopNotifier{}
}
