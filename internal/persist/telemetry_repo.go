package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Sample kinds recorded per entity per tick.
const (
	KindForce      = "force"
	KindTorque     = "torque"
	KindLinearCmd  = "linear_cmd"
	KindAngularCmd = "angular_cmd"
)

// Sample is one vector-valued command observed on an entity.
type Sample struct {
	Iteration uint64
	SimTime   time.Duration
	Entity    string
	Kind      string
	X, Y, Z   float64
}

type TelemetryRepo struct {
	db    *DB
	runID int64
}

func NewTelemetryRepo(db *DB) *TelemetryRepo {
	return &TelemetryRepo{db: db}
}

// StartRun registers a simulation run; later samples are attached to it.
func (r *TelemetryRepo) StartRun(ctx context.Context, scene string, step time.Duration) (int64, error) {
	err := r.db.Pool.QueryRow(ctx,
		`INSERT INTO sim_runs (scene, step_ns) VALUES ($1, $2) RETURNING id`,
		scene, step.Nanoseconds(),
	).Scan(&r.runID)
	if err != nil {
		return 0, fmt.Errorf("start run: %w", err)
	}
	return r.runID, nil
}

// WriteSamples bulk-copies a batch inside a single transaction.
func (r *TelemetryRepo) WriteSamples(ctx context.Context, samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}
	if r.runID == 0 {
		return fmt.Errorf("write samples: no run started")
	}
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("samples begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"command_samples"},
		[]string{"run_id", "iteration", "sim_time_ns", "entity", "kind", "x", "y", "z"},
		pgx.CopyFromSlice(len(samples), func(i int) ([]any, error) {
			s := samples[i]
			return []any{r.runID, int64(s.Iteration), s.SimTime.Nanoseconds(), s.Entity, s.Kind, s.X, s.Y, s.Z}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("samples copy: %w", err)
	}
	return tx.Commit(ctx)
}
