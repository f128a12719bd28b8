package timefit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type (
	// Store persists streamlined ranges into a redis sorted set per
	// timeline key, scored by start time. It gives the fitter a durable
	// occupant source and an atomic claim primitive for callers placing
	// events against a shared timeline
	Store struct {
		tf       *TimeFit
		client   *redis.Client
		prefix   string
		claimLua *redis.Script
		drainLua *redis.Script
		worker   *persistWorker
		config   StoreConfig
		log      *zap.Logger
	}

	// RangeClaimedError indicates an atomic claim lost to a range
	// already placed on the timeline
	RangeClaimedError struct {
		Timeline string
		Wanted   TimeRange
		Existing TimeRange
	}

	rangeMember struct {
		Start int64 `json:"start"`
		Stop  int64 `json:"stop"`
	}
)

const (
	RedisConnectTimeout = 5 * time.Second

	rangesSuffix = ":ranges"
)

var (
	// ErrUnexpectedLuaResult indicates a Lua script returned a shape the
	// store does not understand
	ErrUnexpectedLuaResult = errors.New("unexpected result from Lua script")

	// ErrEmptyRange indicates an attempt to persist a range that is not
	// forward-directed
	ErrEmptyRange = errors.New("range is empty or reversed")
)

// NewStore creates a Store bound to the TimeFit's configuration
func (tf *TimeFit) NewStore(cfg StoreConfig) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(
		context.Background(), RedisConnectTimeout,
	)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Store{
		tf:       tf,
		client:   client,
		prefix:   cfg.Prefix,
		claimLua: redis.NewScript(luaClaimRange),
		drainLua: redis.NewScript(luaDrainRanges),
		config:   cfg,
		log:      log,
	}
	s.worker = newPersistWorker(s, cfg)
	return s, nil
}

func (s *Store) Close() error {
	if s.worker != nil {
		s.worker.Stop()
	}
	return s.client.Close()
}

// Claim atomically places the range on the timeline, failing with
// *RangeClaimedError if it overlaps a range already placed. Boundaries
// are truncated to microsecond precision by the score encoding
func (s *Store) Claim(ctx context.Context, id string, r TimeRange) error {
	if !r.Valid() {
		return ErrEmptyRange
	}

	member, err := json.Marshal(rangeMember{
		Start: r.Start.UnixMicro(),
		Stop:  r.Stop.UnixMicro(),
	})
	if err != nil {
		return err
	}

	keys := []string{s.buildKey(id)}
	args := []any{r.Start.UnixMicro(), r.Stop.UnixMicro(), string(member)}

	result, err := s.claimLua.Run(ctx, s.client, keys, args...).Result()
	if err != nil {
		return err
	}

	res, ok := result.([]any)
	if !ok || len(res) == 0 {
		return ErrUnexpectedLuaResult
	}
	success, ok := res[0].(int64)
	if !ok {
		return ErrUnexpectedLuaResult
	}
	if success == 1 {
		return nil
	}
	if len(res) < 2 {
		return ErrUnexpectedLuaResult
	}

	payload, ok := res[1].(string)
	if !ok {
		return ErrUnexpectedLuaResult
	}
	existing, err := decodeMember(payload)
	if err != nil {
		return err
	}
	return &RangeClaimedError{Timeline: id, Wanted: r, Existing: existing}
}

// ClaimAsync queues the range for a background claim through the persist
// worker, reporting whether the queue accepted it
func (s *Store) ClaimAsync(id string, r TimeRange) bool {
	return s.worker.enqueue(id, r)
}

// Place streamlines the event against the occupants persisted under id,
// claims the fitted range, and returns it. Extra timelines are consulted
// ahead of the persisted occupants, so occlusions can be threaded
// through
func (s *Store) Place(
	ctx context.Context, id string, event any, extra ...Timeline,
) (TimeRange, error) {
	span, err := s.tf.EventRange(event)
	if err != nil {
		return TimeRange{}, err
	}

	occupants, err := s.Occupants(ctx, id, span)
	if err != nil {
		return TimeRange{}, err
	}

	timelines := append(append([]Timeline{}, extra...), occupants)
	fitted, err := s.tf.StreamlineTimes(event, timelines...)
	if err != nil {
		return TimeRange{}, err
	}

	if err := s.Claim(ctx, id, fitted); err != nil {
		return TimeRange{}, err
	}
	return fitted, nil
}

// Between returns the placed (start, stop) pairs overlapping the window,
// in start order — the persisted counterpart of Ranges
func (s *Store) Between(
	ctx context.Context, id string, window TimeRange,
) ([][2]time.Time, error) {
	members, err := s.client.ZRangeByScore(
		ctx, s.buildKey(id), &redis.ZRangeBy{
			Min: "-inf",
			Max: "(" + strconv.FormatInt(window.Stop.UnixMicro(), 10),
		},
	).Result()
	if err != nil {
		return nil, err
	}

	var out [][2]time.Time
	for _, m := range members {
		r, err := decodeMember(m)
		if err != nil {
			return nil, err
		}
		if r.Stop.After(window.Start) {
			out = append(out, r.Pair())
		}
	}
	return out, nil
}

// Occupants lifts Between into a Timeline for direct use as fitter input
func (s *Store) Occupants(
	ctx context.Context, id string, window TimeRange,
) (Timeline, error) {
	pairs, err := s.Between(ctx, id, window)
	if err != nil {
		return nil, err
	}

	tl := make(Timeline, len(pairs))
	for i, p := range pairs {
		tl[i] = NewTimeRange(p[0], p[1])
	}
	return tl, nil
}

// Release removes a previously claimed range from the timeline
func (s *Store) Release(ctx context.Context, id string, r TimeRange) error {
	member, err := json.Marshal(rangeMember{
		Start: r.Start.UnixMicro(),
		Stop:  r.Stop.UnixMicro(),
	})
	if err != nil {
		return err
	}
	return s.client.ZRem(ctx, s.buildKey(id), string(member)).Err()
}

// Clear removes every placed range under id
func (s *Store) Clear(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.buildKey(id)).Err()
}

// Len returns the number of ranges placed under id
func (s *Store) Len(ctx context.Context, id string) (int64, error) {
	return s.client.ZCard(ctx, s.buildKey(id)).Result()
}

// Archive drains the timeline's placed ranges into the Archiver and
// removes the redis key in the same script round-trip
func (s *Store) Archive(ctx context.Context, id string, a Archiver) error {
	result, err := s.drainLua.Run(
		ctx, s.client, []string{s.buildKey(id)},
	).Result()
	if err != nil {
		return err
	}

	raw, ok := result.([]any)
	if !ok {
		return ErrUnexpectedLuaResult
	}

	ranges := make([]TimeRange, 0, len(raw))
	for _, m := range raw {
		str, ok := m.(string)
		if !ok {
			return ErrUnexpectedLuaResult
		}
		r, err := decodeMember(str)
		if err != nil {
			return err
		}
		ranges = append(ranges, r)
	}

	if err := a.Put(ctx, id, ranges); err != nil {
		return err
	}
	s.log.Debug("timeline archived",
		zap.String("timeline", id),
		zap.Int("ranges", len(ranges)),
	)
	return nil
}

// Restore loads a timeline's archived ranges back into redis and deletes
// them from the Archiver
func (s *Store) Restore(ctx context.Context, id string, a Archiver) error {
	ranges, err := a.Get(ctx, id)
	if err != nil {
		return err
	}

	for _, r := range ranges {
		if err := s.Claim(ctx, id, r); err != nil {
			return err
		}
	}
	return a.Delete(ctx, id)
}

func (e *RangeClaimedError) Error() string {
	return fmt.Sprintf(
		"range %s already claimed on timeline %q by %s",
		e.Wanted, e.Timeline, e.Existing,
	)
}

func (s *Store) buildKey(id string) string {
	return fmt.Sprintf("%s:%s%s", s.prefix, id, rangesSuffix)
}

func decodeMember(data string) (TimeRange, error) {
	var m rangeMember
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return TimeRange{}, err
	}
	return TimeRange{
		Start: time.UnixMicro(m.Start).UTC(),
		Stop:  time.UnixMicro(m.Stop).UTC(),
	}, nil
}
