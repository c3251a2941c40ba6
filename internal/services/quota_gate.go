package services

import (
	"context"
	"sync"
	"time"

	"github.com/pratik-mahalle/altseo/internal/domain/subscription"
	"github.com/pratik-mahalle/altseo/internal/domain/usage"
	"github.com/pratik-mahalle/altseo/internal/pkg/errors"
	"github.com/pratik-mahalle/altseo/internal/pkg/logger"
	"github.com/pratik-mahalle/altseo/internal/pkg/metrics"
)

// QuotaGate enforces the daily generation limit of the free plan
type QuotaGate struct {
	usage     usage.Repository
	plans     subscription.PlanReader
	freeLimit int
	now       usage.Clock
	logger    *logger.Logger

	mu    sync.Mutex
	slots map[slotKey]*slot
}

type slotKey struct {
	userID int64
	day    string
}

// slot serializes gate decisions for one user and day
type slot struct {
	mu       sync.Mutex
	inflight int
	refs     int
}

// NewQuotaGate creates a gate. A nil clock uses time.Now.
func NewQuotaGate(usageRepo usage.Repository, plans subscription.PlanReader, freeLimit int, now usage.Clock, log *logger.Logger) *QuotaGate {
	if now == nil {
		now = time.Now
	}
	return &QuotaGate{
		usage:     usageRepo,
		plans:     plans,
		freeLimit: freeLimit,
		now:       now,
		logger:    log,
		slots:     make(map[slotKey]*slot),
	}
}

func (g *QuotaGate) limitFor(plan string) int {
	if plan == subscription.PlanPro {
		return usage.Unlimited
	}
	return g.freeLimit
}

// CheckRateLimit reports the caller's quota for today without changing it
func (g *QuotaGate) CheckRateLimit(ctx context.Context, userID int64) (*usage.RateLimitResult, error) {
	now := g.now()
	plan, err := g.plans.Plan(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := g.usage.Get(ctx, userID, usage.DayOf(now))
	if err != nil {
		return nil, err
	}
	return usage.Compute(plan, g.limitFor(plan), count, usage.NextReset(now)), nil
}

// IncrementRateLimit counts one generation for today
func (g *QuotaGate) IncrementRateLimit(ctx context.Context, userID int64) error {
	_, err := g.increment(ctx, userID, usage.DayOf(g.now()))
	return err
}

func (g *QuotaGate) increment(ctx context.Context, userID int64, day string) (int, error) {
	count, err := g.usage.Increment(ctx, userID, day)
	if err != nil {
		metrics.RecordQuotaIncrement("error")
		return 0, err
	}
	metrics.RecordQuotaIncrement("ok")
	return count, nil
}

func (g *QuotaGate) acquire(key slotKey) *slot {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.slots[key]
	if !ok {
		s = &slot{}
		g.slots[key] = s
	}
	s.refs++
	return s
}

func (g *QuotaGate) release(key slotKey, s *slot) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(g.slots, key)
	}
}

// Reserve admits one gated action or rejects it with RATE_LIMITED.
// The reservation counts against the limit until it is committed or released.
func (g *QuotaGate) Reserve(ctx context.Context, userID int64) (usage.Reservation, error) {
	now := g.now()
	plan, err := g.plans.Plan(ctx, userID)
	if err != nil {
		return nil, err
	}

	key := slotKey{userID: userID, day: usage.DayOf(now)}
	s := g.acquire(key)

	limit := g.limitFor(plan)
	if limit != usage.Unlimited {
		s.mu.Lock()
		count, err := g.usage.Get(ctx, userID, key.day)
		if err != nil {
			s.mu.Unlock()
			g.release(key, s)
			return nil, err
		}
		if count+s.inflight >= limit {
			remaining := limit - count - s.inflight
			if remaining < 0 {
				remaining = 0
			}
			s.mu.Unlock()
			g.release(key, s)
			metrics.RecordQuotaDecision(plan, "denied")
			if g.logger != nil {
				g.logger.WithFields(map[string]interface{}{
					"user_id": userID,
					"count":   count,
					"limit":   limit,
				}).Debug("Quota exhausted")
			}
			return nil, errors.RateLimitedWithDetails(
				"Daily limit reached. Upgrade to Pro for unlimited generations.",
				usage.LimitDetails{Limit: limit, Remaining: remaining, ResetsAt: usage.NextReset(now)},
			)
		}
		s.inflight++
		s.mu.Unlock()
	} else {
		s.mu.Lock()
		s.inflight++
		s.mu.Unlock()
	}

	metrics.RecordQuotaDecision(plan, "allowed")
	return &reservation{gate: g, key: key, slot: s, plan: plan}, nil
}

type reservation struct {
	gate *QuotaGate
	key  slotKey
	slot *slot
	plan string
	once sync.Once
}

func (r *reservation) Plan() string { return r.plan }

// Commit increments the counter of the day the reservation was admitted on
func (r *reservation) Commit(ctx context.Context) (int, error) {
	var (
		count int
		err   error
		done  bool
	)
	r.once.Do(func() {
		done = true
		r.slot.mu.Lock()
		count, err = r.gate.increment(ctx, r.key.userID, r.key.day)
		r.slot.inflight--
		r.slot.mu.Unlock()
		r.gate.release(r.key, r.slot)
	})
	if !done {
		return 0, errors.Conflict("Reservation already settled")
	}
	return count, err
}

func (r *reservation) Release() {
	r.once.Do(func() {
		r.slot.mu.Lock()
		r.slot.inflight--
		r.slot.mu.Unlock()
		r.gate.release(r.key, r.slot)
	})
}
