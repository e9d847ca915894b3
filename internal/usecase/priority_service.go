package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/riskibarqy/waiver-wire/internal/domain/team"
	"github.com/riskibarqy/waiver-wire/internal/platform/logging"
)

// PriorityUnknown is the effective priority of a team missing from the
// priority table: large enough to always lose. The lookup logs the
// inconsistency instead of failing the caller.
const PriorityUnknown = 1 << 30

// PriorityService owns the waiver priority order and its rotation rule.
type PriorityService struct {
	store  Store
	logger *logging.Logger
}

func NewPriorityService(store Store, logger *logging.Logger) *PriorityService {
	if logger == nil {
		logger = logging.Default()
	}

	return &PriorityService{store: store, logger: logger}
}

// List returns all teams ordered by priority, best first.
func (s *PriorityService) List(ctx context.Context) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PriorityService.List")
	defer span.End()

	teams, err := s.store.Teams().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Priority < teams[j].Priority })

	return teams, nil
}

// PriorityOf looks up the team's current priority. Unknown teams rank
// effectively last.
func (s *PriorityService) PriorityOf(ctx context.Context, code string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PriorityService.PriorityOf")
	defer span.End()

	t, ok, err := s.store.Teams().GetByCode(ctx, code)
	if err != nil {
		return 0, fmt.Errorf("get team %s: %w", code, err)
	}
	if !ok {
		s.logger.WarnContext(ctx, "team missing from priority table, ranking last", "team", code)
		return PriorityUnknown, nil
	}

	return t.Priority, nil
}

// RotateToBottom moves the team to the back of the line: every team that
// sat below it moves up one slot and the team takes the maximum
// priority. Calling it again with no intervening change is a no-op.
func (s *PriorityService) RotateToBottom(ctx context.Context, code string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PriorityService.RotateToBottom")
	defer span.End()

	return s.store.InTx(ctx, func(st Store) error {
		return s.rotateToBottom(ctx, st, code)
	})
}

// rotateToBottom applies the rotation inside an existing transaction so
// claim resolution can commit it atomically with the player update.
func (s *PriorityService) rotateToBottom(ctx context.Context, st Store, code string) error {
	t, ok, err := st.Teams().GetByCode(ctx, code)
	if err != nil {
		return fmt.Errorf("get team %s: %w", code, err)
	}
	if !ok {
		return fmt.Errorf("%w: team %s", ErrNotFound, code)
	}

	max, err := st.Teams().MaxPriority(ctx)
	if err != nil {
		return fmt.Errorf("max priority: %w", err)
	}
	if t.Priority == max {
		return nil
	}

	if err := st.Teams().ShiftPriorities(ctx, t.Priority, max, -1); err != nil {
		return fmt.Errorf("shift priorities: %w", err)
	}
	if err := st.Teams().UpdatePriority(ctx, code, max); err != nil {
		return fmt.Errorf("set priority: %w", err)
	}

	s.logger.InfoContext(ctx, "team rotated to bottom priority", "team", code, "from", t.Priority, "to", max)

	return nil
}

// SetAll replaces the whole priority order. The input must be a
// permutation of every known team or nothing is applied.
func (s *PriorityService) SetAll(ctx context.Context, codes []string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.PriorityService.SetAll")
	defer span.End()

	return s.store.InTx(ctx, func(st Store) error {
		teams, err := st.Teams().List(ctx)
		if err != nil {
			return fmt.Errorf("list teams: %w", err)
		}
		if len(codes) != len(teams) {
			return fmt.Errorf("%w: expected %d teams, got %d", ErrInvalidInput, len(teams), len(codes))
		}

		known := make(map[string]struct{}, len(teams))
		for _, t := range teams {
			known[t.Code] = struct{}{}
		}
		seen := make(map[string]struct{}, len(codes))
		for _, code := range codes {
			if _, ok := known[code]; !ok {
				return fmt.Errorf("%w: unknown team %s", ErrInvalidInput, code)
			}
			if _, dup := seen[code]; dup {
				return fmt.Errorf("%w: duplicate team %s", ErrInvalidInput, code)
			}
			seen[code] = struct{}{}
		}

		for i, code := range codes {
			if err := st.Teams().UpdatePriority(ctx, code, i+1); err != nil {
				return fmt.Errorf("set priority for %s: %w", code, err)
			}
		}

		s.logger.InfoContext(ctx, "priority order reset", "teams", len(codes))

		return nil
	})
}
