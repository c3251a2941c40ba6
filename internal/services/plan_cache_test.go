package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pratik-mahalle/altseo/internal/domain/subscription"
	"github.com/pratik-mahalle/altseo/internal/testutil"
)

func TestPlanCache_ServesFromCache(t *testing.T) {
	subs := testutil.NewMockSubscriptionRepository()
	subs.Seed(1, subscription.PlanPro, subscription.StatusActive)
	cache := NewPlanCache(subs, 10, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		plan, err := cache.Plan(ctx, 1)
		if err != nil {
			t.Fatalf("Plan() error = %v", err)
		}
		if plan != subscription.PlanPro {
			t.Errorf("Plan() = %q, want pro", plan)
		}
	}
	if subs.GetCalls != 1 {
		t.Errorf("GetCalls = %d, want 1", subs.GetCalls)
	}
}

func TestPlanCache_Invalidate(t *testing.T) {
	subs := testutil.NewMockSubscriptionRepository()
	subs.Seed(1, subscription.PlanFree, "")
	cache := NewPlanCache(subs, 10, time.Minute)
	ctx := context.Background()

	if plan, _ := cache.Plan(ctx, 1); plan != subscription.PlanFree {
		t.Fatalf("Plan() = %q, want free", plan)
	}

	subs.Seed(1, subscription.PlanPro, subscription.StatusActive)
	if plan, _ := cache.Plan(ctx, 1); plan != subscription.PlanFree {
		t.Errorf("Plan() before invalidation = %q, want cached free", plan)
	}

	cache.Invalidate(1)
	if plan, _ := cache.Plan(ctx, 1); plan != subscription.PlanPro {
		t.Errorf("Plan() after invalidation = %q, want pro", plan)
	}
}

func TestPlanCache_Expiry(t *testing.T) {
	subs := testutil.NewMockSubscriptionRepository()
	subs.Seed(1, subscription.PlanFree, "")
	cache := NewPlanCache(subs, 10, 20*time.Millisecond)
	ctx := context.Background()

	_, _ = cache.Plan(ctx, 1)
	subs.Seed(1, subscription.PlanPro, subscription.StatusActive)
	time.Sleep(60 * time.Millisecond)

	if plan, _ := cache.Plan(ctx, 1); plan != subscription.PlanPro {
		t.Errorf("Plan() after ttl = %q, want pro", plan)
	}
}

func TestPlanCache_UnknownPlanIsFree(t *testing.T) {
	subs := testutil.NewMockSubscriptionRepository()
	subs.Seed(1, "enterprise", "")
	cache := NewPlanCache(subs, 10, time.Minute)

	plan, err := cache.Plan(context.Background(), 1)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if plan != subscription.PlanFree {
		t.Errorf("Plan() = %q, want free", plan)
	}
}

// gatedSubscriptions holds the first read open until release is closed,
// after the record has already been loaded.
type gatedSubscriptions struct {
	*testutil.MockSubscriptionRepository
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (g *gatedSubscriptions) GetByUserID(ctx context.Context, userID int64) (*subscription.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := g.MockSubscriptionRepository.GetByUserID(ctx, userID)
	first := false
	g.once.Do(func() { first = true })
	if first {
		close(g.read)
		<-g.release
	}
	return rec, err
}

func TestPlanCache_InvalidateDuringLoad(t *testing.T) {
	mock := testutil.NewMockSubscriptionRepository()
	mock.Seed(1, subscription.PlanFree, "")
	subs := &gatedSubscriptions{
		MockSubscriptionRepository: mock,
		read:                       make(chan struct{}),
		release:                    make(chan struct{}),
	}
	cache := NewPlanCache(subs, 10, time.Minute)
	ctx := context.Background()

	done := make(chan string)
	go func() {
		plan, _ := cache.Plan(ctx, 1)
		done <- plan
	}()

	<-subs.read
	mock.Seed(1, subscription.PlanPro, subscription.StatusActive)
	cache.Invalidate(1)
	close(subs.release)

	if plan := <-done; plan != subscription.PlanFree {
		t.Errorf("in-flight Plan() = %q, want the free it read", plan)
	}
	if plan, _ := cache.Plan(ctx, 1); plan != subscription.PlanPro {
		t.Errorf("Plan() after invalidation = %q, want pro", plan)
	}
}

func TestPlanCache_LoadSurvivesCancelledCaller(t *testing.T) {
	mock := testutil.NewMockSubscriptionRepository()
	mock.Seed(1, subscription.PlanPro, subscription.StatusActive)
	subs := &gatedSubscriptions{
		MockSubscriptionRepository: mock,
		read:                       make(chan struct{}),
		release:                    make(chan struct{}),
	}
	close(subs.release)
	cache := NewPlanCache(subs, 10, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	plan, err := cache.Plan(ctx, 1)
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if plan != subscription.PlanPro {
		t.Errorf("Plan() = %q, want pro", plan)
	}
}
