package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/example/schemakit/internal/revision"
)

// Symbolic migration targets accepted alongside concrete revision ids.
const (
	// TargetHead resolves to the single head of the revision graph.
	TargetHead = "head"
	// TargetBase resolves to the "no revisions applied" sentinel.
	TargetBase = "base"
)

// Direction identifies which step of a revision a plan executes.
type Direction string

const (
	DirectionUp   Direction = "upgrade"
	DirectionDown Direction = "downgrade"
)

// Plan is the ordered list of revisions to execute to reach a target from
// the current schema state. An empty plan means the schema is already at the
// target.
type Plan struct {
	Direction Direction
	Steps     []*revision.Revision
	Target    string // resolved target id, revision.Base for a full downgrade
}

// Empty reports whether the plan has no steps.
func (p *Plan) Empty() bool {
	return len(p.Steps) == 0
}

// Engine resolves migration targets against the persisted schema marker and
// executes the resulting plans transactionally.
type Engine struct {
	db      *sql.DB
	store   *revision.Store
	tracker *Tracker
	locker  Locker
	logger  *slog.Logger
}

// NewEngine creates an Engine over db and the given revision store. A nil
// locker falls back to a process-local mutex; a nil logger falls back to
// slog.Default().
func NewEngine(db *sql.DB, store *revision.Store, locker Locker, logger *slog.Logger) *Engine {
	if locker == nil {
		locker = NewMutexLocker()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		db:      db,
		store:   store,
		tracker: NewTracker(db),
		locker:  locker,
		logger:  logger,
	}
}

// Store returns the engine's revision store.
func (e *Engine) Store() *revision.Store {
	return e.store
}

// Current returns the identifier of the revision currently applied to the
// live schema, or revision.Base when none is.
func (e *Engine) Current(ctx context.Context) (string, error) {
	if err := e.tracker.Ensure(ctx); err != nil {
		return revision.Base, err
	}
	return e.tracker.Read(ctx)
}

// PlanTo computes the plan from the current schema state to target. Planning
// is detect-before-mutate: it performs no writes, and a target equal to the
// current revision yields an empty plan, not an error.
func (e *Engine) PlanTo(ctx context.Context, target string) (*Plan, error) {
	current, err := e.Current(ctx)
	if err != nil {
		return nil, err
	}
	return e.plan(current, target)
}

func (e *Engine) plan(current, target string) (*Plan, error) {
	if err := e.store.Validate(); err != nil {
		return nil, err
	}

	// An unresolved branch is rejected at resolution time, whatever the
	// target, until a merge revision joins the heads.
	if heads := e.store.Heads(); len(heads) > 1 {
		ids := make([]string, len(heads))
		for i, h := range heads {
			ids[i] = h.ID
		}
		return nil, fmt.Errorf("%w: multiple heads (%s), author a merge revision",
			ErrAmbiguousHistory, strings.Join(ids, ", "))
	}

	resolved, err := e.resolveTarget(target)
	if err != nil {
		return nil, err
	}

	if resolved == current {
		return &Plan{Target: resolved}, nil
	}

	applied, err := e.ancestorSet(current)
	if err != nil {
		// A marker pointing at a revision the store no longer knows means
		// the authored history and the live schema have diverged.
		return nil, fmt.Errorf("current revision %w", err)
	}
	wanted, err := e.ancestorSet(resolved)
	if err != nil {
		return nil, err
	}

	ordered, err := e.store.List()
	if err != nil {
		return nil, err
	}

	switch {
	case resolved != revision.Base && (current == revision.Base || wanted[current]):
		// Walk forward: apply every ancestor of target not yet applied.
		var steps []*revision.Revision
		for _, rev := range ordered {
			if wanted[rev.ID] && !applied[rev.ID] {
				steps = append(steps, rev)
			}
		}
		return &Plan{Direction: DirectionUp, Steps: steps, Target: resolved}, nil

	case current != revision.Base && (resolved == revision.Base || applied[resolved]):
		// Walk backward: revert applied revisions above the target, newest
		// first.
		var steps []*revision.Revision
		for i := len(ordered) - 1; i >= 0; i-- {
			rev := ordered[i]
			if applied[rev.ID] && !wanted[rev.ID] {
				steps = append(steps, rev)
			}
		}
		return &Plan{Direction: DirectionDown, Steps: steps, Target: resolved}, nil

	default:
		return nil, fmt.Errorf("%w: no path between %s and %s", ErrAmbiguousHistory,
			displayID(current), displayID(resolved))
	}
}

// Migrate executes the plan to target. Each step runs in its own transaction
// together with the marker update; a step failure rolls that transaction back
// and abandons the rest of the plan, leaving the marker at the last committed
// revision. Migrate is serialized process-wide through the engine's Locker.
func (e *Engine) Migrate(ctx context.Context, target string) error {
	release, err := e.locker.Acquire(ctx, "schemakit_migrate")
	if err != nil {
		return err
	}
	defer release()

	current, err := e.Current(ctx)
	if err != nil {
		return err
	}

	plan, err := e.plan(current, target)
	if err != nil {
		return err
	}

	if plan.Empty() {
		e.logger.Info("schema already at target", "revision", displayID(current))
		return nil
	}

	e.logger.Info("starting migration",
		"direction", string(plan.Direction),
		"from", displayID(current),
		"to", displayID(plan.Target),
		"steps", len(plan.Steps))

	for i, step := range plan.Steps {
		// Cancellation between steps is safe: the marker stays at the last
		// committed revision.
		if err := ctx.Err(); err != nil {
			return &StepError{RevisionID: step.ID, Direction: plan.Direction, Current: current,
				Err: fmt.Errorf("%w: %v", ErrStepFailed, err)}
		}

		marker := step.ID
		if plan.Direction == DirectionDown {
			if i+1 < len(plan.Steps) {
				marker = plan.Steps[i+1].ID
			} else {
				marker = plan.Target
			}
		}

		if err := e.runStep(ctx, step, plan.Direction, marker, current); err != nil {
			e.logger.Error("migration step failed",
				"revision", step.ID,
				"direction", string(plan.Direction),
				"schema_at", displayID(current),
				"error", err)
			return err
		}

		current = marker
		e.logger.Info("migration step committed",
			"revision", step.ID,
			"direction", string(plan.Direction),
			"label", step.Label,
			"schema_at", displayID(current))
	}

	e.logger.Info("migration complete", "revision", displayID(current))
	return nil
}

// runStep executes one revision step and the marker update in a single
// transaction. The transaction boundary is the unit of atomicity: a step that
// fails partway leaves no committed effects.
func (e *Engine) runStep(ctx context.Context, step *revision.Revision, direction Direction, marker, current string) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return &StepError{RevisionID: step.ID, Direction: direction, Current: current,
			Err: fmt.Errorf("%w: begin transaction: %v", ErrStepFailed, err)}
	}

	var stepErr error
	if direction == DirectionUp {
		stepErr = step.Apply(ctx, tx)
	} else {
		stepErr = step.Revert(ctx, tx)
	}
	if stepErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			stepErr = fmt.Errorf("%v (rollback: %v)", stepErr, rbErr)
		}
		return &StepError{RevisionID: step.ID, Direction: direction, Current: current,
			Err: fmt.Errorf("%w: %v", ErrStepFailed, stepErr)}
	}

	if err := e.tracker.Write(ctx, tx, marker); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = fmt.Errorf("%v (rollback: %v)", err, rbErr)
		}
		return &StepError{RevisionID: step.ID, Direction: direction, Current: current,
			Err: fmt.Errorf("%w: %v", ErrStepFailed, err)}
	}

	if err := tx.Commit(); err != nil {
		// Both the schema change and the marker update were issued; whether
		// they took effect is unknown until the operator inspects the store.
		return &StepError{RevisionID: step.ID, Direction: direction, Current: current,
			Err: fmt.Errorf("%w: commit: %v", ErrMarkerWriteUncertain, err)}
	}

	return nil
}

// resolveTarget maps symbolic targets onto revision identifiers. The single
// remaining head is resolved for TargetHead; multiple heads were already
// rejected by plan.
func (e *Engine) resolveTarget(target string) (string, error) {
	switch target {
	case TargetHead:
		heads := e.store.Heads()
		if len(heads) == 0 {
			return revision.Base, fmt.Errorf("%w: store has no revisions", ErrUnknownRevision)
		}
		return heads[0].ID, nil
	case TargetBase, revision.Base:
		return revision.Base, nil
	default:
		rev, err := e.store.Get(target)
		if err != nil {
			return revision.Base, err
		}
		return rev.ID, nil
	}
}

// ancestorSet returns the set of revisions reachable from id, including id.
// The Base sentinel has an empty ancestry.
func (e *Engine) ancestorSet(id string) (map[string]bool, error) {
	if id == revision.Base {
		return map[string]bool{}, nil
	}
	return e.store.Ancestors(id)
}

func displayID(id string) string {
	if id == revision.Base {
		return "<base>"
	}
	return id
}
