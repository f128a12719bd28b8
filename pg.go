package timefit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type (
	// PgTimelineConfig names the table and columns that hold occupant
	// ranges in postgres
	PgTimelineConfig struct {
		Table       string
		KeyColumn   string
		StartColumn string
		StopColumn  string
	}

	// PgTimeline reads occupant ranges from a postgres table so fitted
	// events can be streamlined against rows owned by another system
	PgTimeline struct {
		pool   *pgxpool.Pool
		config PgTimelineConfig
		query  string
	}
)

func DefaultPgTimelineConfig() PgTimelineConfig {
	return PgTimelineConfig{
		Table:       "events",
		KeyColumn:   "timeline",
		StartColumn: "start",
		StopColumn:  "stop",
	}
}

// NewPgTimeline connects a pool to the given DSN and prepares the
// overlap query for the configured table
func NewPgTimeline(
	ctx context.Context, dsn string, cfg PgTimelineConfig,
) (*PgTimeline, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PgTimeline{
		pool:   pool,
		config: cfg,
		query:  overlapQuery(cfg),
	}, nil
}

func (p *PgTimeline) Close() {
	p.pool.Close()
}

// Between returns the stored (start, stop) pairs overlapping the window
// under the timeline key, in start order
func (p *PgTimeline) Between(
	ctx context.Context, id string, window TimeRange,
) ([][2]time.Time, error) {
	rows, err := p.pool.Query(ctx, p.query, id, window.Start, window.Stop)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][2]time.Time
	for rows.Next() {
		var start, stop time.Time
		if err := rows.Scan(&start, &stop); err != nil {
			return nil, err
		}
		out = append(out, [2]time.Time{start, stop})
	}
	return out, rows.Err()
}

// Occupants lifts Between into a Timeline for direct use as fitter input
func (p *PgTimeline) Occupants(
	ctx context.Context, id string, window TimeRange,
) (Timeline, error) {
	pairs, err := p.Between(ctx, id, window)
	if err != nil {
		return nil, err
	}

	tl := make(Timeline, len(pairs))
	for i, pair := range pairs {
		tl[i] = NewTimeRange(pair[0], pair[1])
	}
	return tl, nil
}

// overlapQuery builds the half-open overlap query for the configured
// table and columns. Identifiers are sanitized since they come from
// configuration, not from a query parameter
func overlapQuery(cfg PgTimelineConfig) string {
	start := pgx.Identifier{cfg.StartColumn}.Sanitize()
	stop := pgx.Identifier{cfg.StopColumn}.Sanitize()
	return fmt.Sprintf(
		"SELECT %s, %s FROM %s WHERE %s = $1 AND %s < $3 AND %s > $2 "+
			"ORDER BY %s",
		start, stop,
		pgx.Identifier{cfg.Table}.Sanitize(),
		pgx.Identifier{cfg.KeyColumn}.Sanitize(),
		start, stop, start,
	)
}
