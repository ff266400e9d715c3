package tracking

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/expresslane/courier-booking/internal/core/domain"
)

const (
	defaultMaxAttempts      = 10
	defaultFallbackAttempts = 5
	lockKeyPrefix           = "lock:tracking:"
)

// Registry is the read side of the set of issued identifiers.
type Registry interface {
	// Issued lists identifiers starting with prefix.
	Issued(ctx context.Context, prefix string) ([]string, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// Locker serializes allocations across processes. The returned func
// releases the lock and must be called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// CommitFunc persists the record that owns id. It must return an error
// wrapping domain.ErrDuplicateTrackingID when storage rejects id as taken.
type CommitFunc func(ctx context.Context, id string) error

// Allocation describes an issued identifier.
type Allocation struct {
	ID       string
	Sequence int // 0 for fallback identifiers
	Fallback bool
	Attempts int
}

// Options tune an Allocator. Zero values pick the defaults.
type Options struct {
	Location         *time.Location
	MaxAttempts      int
	FallbackAttempts int
	Locker           Locker
	// FallbackSuffix builds the collision-resistant suffix used once the
	// sequential budget is spent.
	FallbackSuffix func() string
}

type daySlot struct {
	sem  chan struct{}
	refs int
}

// Allocator issues unique tracking identifiers.
type Allocator struct {
	registry         Registry
	locker           Locker
	loc              *time.Location
	maxAttempts      int
	fallbackAttempts int
	fallbackSuffix   func() string
	log              zerolog.Logger

	mu    sync.Mutex
	slots map[string]*daySlot
}

// NewAllocator returns an Allocator reading issued identifiers from registry.
func NewAllocator(registry Registry, opts Options, log zerolog.Logger) *Allocator {
	a := &Allocator{
		registry:         registry,
		locker:           opts.Locker,
		loc:              opts.Location,
		maxAttempts:      opts.MaxAttempts,
		fallbackAttempts: opts.FallbackAttempts,
		fallbackSuffix:   opts.FallbackSuffix,
		log:              log,
		slots:            make(map[string]*daySlot),
	}
	if a.loc == nil {
		a.loc = time.UTC
	}
	if a.maxAttempts <= 0 {
		a.maxAttempts = defaultMaxAttempts
	}
	if a.fallbackAttempts <= 0 {
		a.fallbackAttempts = defaultFallbackAttempts
	}
	if a.fallbackSuffix == nil {
		a.fallbackSuffix = randomSuffix
	}
	return a
}

// Allocate issues the next free identifier for the day of now and hands it
// to commit while still holding the day's lock, so the read-max-then-write
// sequence never interleaves with another allocation for the same day.
// With a nil commit the identifier is only checked free and returned;
// nothing is persisted.
func (a *Allocator) Allocate(ctx context.Context, now time.Time, commit CommitFunc) (Allocation, error) {
	prefix := Prefix(now.In(a.loc))

	release, err := a.acquire(ctx, prefix)
	if err != nil {
		return Allocation{}, fmt.Errorf("allocate tracking id: lock %s: %w", prefix, err)
	}
	defer release()

	issued, err := a.registry.Issued(ctx, prefix)
	if err != nil {
		return Allocation{}, fmt.Errorf("allocate tracking id: list issued: %w", err)
	}

	seq := NextSequence(prefix, issued)
	attempts := 0
	for i := 0; i < a.maxAttempts; i++ {
		attempts++
		id := Format(prefix, seq)
		ok, err := a.claim(ctx, id, commit)
		if err != nil {
			return Allocation{}, err
		}
		if ok {
			return Allocation{ID: id, Sequence: seq, Attempts: attempts}, nil
		}
		a.log.Debug().Str("tracking_id", id).Msg("tracking id taken, trying next sequence")
		seq++
	}

	a.log.Warn().Str("prefix", prefix).Int("attempts", attempts).Msg("sequential allocation exhausted, using fallback")

	for i := 0; i < a.fallbackAttempts; i++ {
		attempts++
		id := prefix + a.fallbackSuffix()
		ok, err := a.claim(ctx, id, commit)
		if err != nil {
			return Allocation{}, err
		}
		if ok {
			return Allocation{ID: id, Fallback: true, Attempts: attempts}, nil
		}
	}

	return Allocation{}, fmt.Errorf("%w: prefix %s after %d attempts", domain.ErrAllocationExhausted, prefix, attempts)
}

// claim re-checks id and commits it. It reports false when id turned out to
// be taken, either by the existence check or by the storage constraint.
func (a *Allocator) claim(ctx context.Context, id string, commit CommitFunc) (bool, error) {
	exists, err := a.registry.Exists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("allocate tracking id: check %s: %w", id, err)
	}
	if exists {
		return false, nil
	}
	if commit == nil {
		return true, nil
	}
	if err := commit(ctx, id); err != nil {
		if errors.Is(err, domain.ErrDuplicateTrackingID) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (a *Allocator) acquire(ctx context.Context, prefix string) (func(), error) {
	a.mu.Lock()
	slot, ok := a.slots[prefix]
	if !ok {
		slot = &daySlot{sem: make(chan struct{}, 1)}
		a.slots[prefix] = slot
	}
	slot.refs++
	a.mu.Unlock()

	select {
	case slot.sem <- struct{}{}:
	case <-ctx.Done():
		a.drop(prefix, slot)
		return nil, ctx.Err()
	}

	unlock := func() {}
	if a.locker != nil {
		u, err := a.locker.Lock(ctx, lockKeyPrefix+prefix)
		if err != nil {
			<-slot.sem
			a.drop(prefix, slot)
			return nil, err
		}
		unlock = u
	}

	return func() {
		unlock()
		<-slot.sem
		a.drop(prefix, slot)
	}, nil
}

// drop forgets the slot once nobody holds or waits on it, so past days do
// not accumulate.
func (a *Allocator) drop(prefix string, slot *daySlot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(a.slots, prefix)
	}
}

// randomSuffix combines a nanosecond timestamp with random bits.
func randomSuffix() string {
	ts := strings.ToUpper(strconv.FormatInt(time.Now().UnixNano(), 36))
	rnd := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return ts + "-" + rnd
}
