package worker_test

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"snapbee/internal/cache"
	"snapbee/internal/model"
	"snapbee/internal/queue"
	"snapbee/internal/worker"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeGraph struct {
	followers map[int64][]int64
	posts     map[int64][]model.TimelineEntry
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		followers: make(map[int64][]int64),
		posts:     make(map[int64][]model.TimelineEntry),
	}
}

func (g *fakeGraph) GetFollowerIDs(_ context.Context, userID int64) ([]int64, error) {
	return append([]int64(nil), g.followers[userID]...), nil
}

func (g *fakeGraph) GetTimelineEntries(_ context.Context, ownerIDs []int64, limit int) ([]model.TimelineEntry, error) {
	var entries []model.TimelineEntry
	for _, id := range ownerIDs {
		entries = append(entries, g.posts[id]...)
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// memTimelines is a map-backed cache.TimelineCache.
type memTimelines struct {
	mu    sync.Mutex
	lines map[int64]map[int64]int64
}

func newMemTimelines() *memTimelines {
	return &memTimelines{lines: make(map[int64]map[int64]int64)}
}

func (m *memTimelines) Push(_ context.Context, userID int64, entries ...model.TimelineEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lines[userID] == nil {
		m.lines[userID] = make(map[int64]int64)
	}
	for _, e := range entries {
		m.lines[userID][e.PostID] = e.Score
	}
	return nil
}

func (m *memTimelines) Remove(_ context.Context, userID int64, postIDs ...int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range postIDs {
		delete(m.lines[userID], id)
	}
	return nil
}

func (m *memTimelines) Page(_ context.Context, userID int64, before *int64, limit int) ([]model.TimelineEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var entries []model.TimelineEntry
	for id, score := range m.lines[userID] {
		if before == nil || score < *before {
			entries = append(entries, model.TimelineEntry{PostID: id, Score: score})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (m *memTimelines) Exists(_ context.Context, userID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.lines[userID]
	return ok, nil
}

func (m *memTimelines) Len(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.lines[userID])), nil
}

func (m *memTimelines) has(userID, postID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.lines[userID][postID]
	return ok
}

// =============================================================================
// Handler
// =============================================================================

func TestHandler_PostLifecycle(t *testing.T) {
	ctx := context.Background()
	graph := newFakeGraph()
	graph.followers[1] = []int64{2, 3}
	timelines := newMemTimelines()
	h := worker.NewHandler(timelines, graph, graph, zap.NewNop())

	created := queue.PostCreated(100, 1, time.Now())
	if err := h.HandleEvent(ctx, created); err != nil {
		t.Fatalf("post created: %v", err)
	}
	for _, userID := range []int64{1, 2, 3} {
		if !timelines.has(userID, 100) {
			t.Errorf("post missing from timeline of user %d", userID)
		}
	}

	if err := h.HandleEvent(ctx, queue.PostDeleted(100, 1)); err != nil {
		t.Fatalf("post deleted: %v", err)
	}
	for _, userID := range []int64{1, 2, 3} {
		if timelines.has(userID, 100) {
			t.Errorf("deleted post still in timeline of user %d", userID)
		}
	}
}

func TestHandler_FollowBackfillAndUnfollowPrune(t *testing.T) {
	ctx := context.Background()
	graph := newFakeGraph()
	now := time.Now().UnixMicro()
	graph.posts[1] = []model.TimelineEntry{{PostID: 11, Score: now - 10}, {PostID: 12, Score: now - 5}}
	timelines := newMemTimelines()
	_ = timelines.Push(ctx, 2, model.TimelineEntry{PostID: 99, Score: now})
	h := worker.NewHandler(timelines, graph, graph, zap.NewNop())

	if err := h.HandleEvent(ctx, queue.UserFollowed(2, 1)); err != nil {
		t.Fatalf("followed: %v", err)
	}
	if !timelines.has(2, 11) || !timelines.has(2, 12) {
		t.Fatal("followee posts not backfilled")
	}

	if err := h.HandleEvent(ctx, queue.UserUnfollowed(2, 1)); err != nil {
		t.Fatalf("unfollowed: %v", err)
	}
	if timelines.has(2, 11) || timelines.has(2, 12) {
		t.Error("followee posts not pruned")
	}
	if !timelines.has(2, 99) {
		t.Error("unrelated post was pruned")
	}
}

func TestHandler_UnknownEvent(t *testing.T) {
	h := worker.NewHandler(newMemTimelines(), newFakeGraph(), newFakeGraph(), zap.NewNop())
	if err := h.HandleEvent(context.Background(), queue.Event{Type: "bogus"}); err == nil {
		t.Error("expected error for unknown event type")
	}
}

// =============================================================================
// Manager
// =============================================================================

type fakeConsumer struct {
	mu      sync.Mutex
	batches [][]queue.Message
	acked   []string
}

func (c *fakeConsumer) EnsureGroup(context.Context) error { return nil }

func (c *fakeConsumer) ReadPending(context.Context, string, int64) ([]queue.Message, error) {
	return nil, nil
}

func (c *fakeConsumer) Read(ctx context.Context, _ string, _ int64, block time.Duration) ([]queue.Message, error) {
	c.mu.Lock()
	if len(c.batches) > 0 {
		batch := c.batches[0]
		c.batches = c.batches[1:]
		c.mu.Unlock()
		return batch, nil
	}
	c.mu.Unlock()

	select {
	case <-ctx.Done():
	case <-time.After(10 * time.Millisecond):
	}
	return nil, nil
}

func (c *fakeConsumer) Ack(_ context.Context, ids ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.acked = append(c.acked, ids...)
	return nil
}

func (c *fakeConsumer) ackedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.acked)
}

type countingHandler struct{ n atomic.Int32 }

func (h *countingHandler) HandleEvent(context.Context, queue.Event) error {
	h.n.Add(1)
	return nil
}

func TestManager_ProcessesAndAcks(t *testing.T) {
	consumer := &fakeConsumer{batches: [][]queue.Message{
		{{ID: "1-0", Event: queue.UserFollowed(1, 2)}, {ID: "2-0", Event: queue.UserFollowed(1, 3)}},
		{{ID: "3-0", Event: queue.PostDeleted(5, 1)}},
	}}
	handler := &countingHandler{}
	m := worker.NewManager(consumer, handler, worker.ManagerConfig{WorkerCount: 1}, zap.NewNop())

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for consumer.ackedCount() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	m.Stop()

	if got := handler.n.Load(); got != 3 {
		t.Errorf("handled %d events, want 3", got)
	}
	if got := consumer.ackedCount(); got != 3 {
		t.Errorf("acked %d messages, want 3", got)
	}
}

// stuckConsumer redelivers one pending message whose ack always fails.
type stuckConsumer struct {
	fakeConsumer
	pendingReads atomic.Int32
	liveReads    atomic.Int32
}

func (c *stuckConsumer) ReadPending(context.Context, string, int64) ([]queue.Message, error) {
	c.pendingReads.Add(1)
	return []queue.Message{{ID: "1-0", Event: queue.UserFollowed(1, 2)}}, nil
}

func (c *stuckConsumer) Read(ctx context.Context, name string, count int64, block time.Duration) ([]queue.Message, error) {
	c.liveReads.Add(1)
	return c.fakeConsumer.Read(ctx, name, count, block)
}

func (c *stuckConsumer) Ack(context.Context, ...string) error {
	return errors.New("ack failed")
}

func TestManager_UnackablePendingBatchDoesNotSpin(t *testing.T) {
	consumer := &stuckConsumer{}
	handler := &countingHandler{}
	m := worker.NewManager(consumer, handler, worker.ManagerConfig{WorkerCount: 1}, zap.NewNop())

	if err := m.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for consumer.liveReads.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	m.Stop()

	if consumer.liveReads.Load() == 0 {
		t.Fatal("worker never moved on to live reads")
	}
	if got := consumer.pendingReads.Load(); got != 1 {
		t.Errorf("pending batch read %d times, want 1", got)
	}
	if got := handler.n.Load(); got != 1 {
		t.Errorf("handled %d events, want 1", got)
	}
}

// =============================================================================
// Retention
// =============================================================================

type fakePurger struct{ calls atomic.Int32 }

func (p *fakePurger) PurgeExpired(context.Context) (int64, error) {
	p.calls.Add(1)
	return 1, nil
}

func TestRetention_RunsImmediately(t *testing.T) {
	purger := &fakePurger{}
	r, err := worker.NewRetention(purger, time.Hour, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}
	defer r.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for purger.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if purger.calls.Load() == 0 {
		t.Error("sweep did not run on start")
	}
}

// =============================================================================
// Redis integration
// =============================================================================

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	opts.DB = 1

	client := redis.NewClient(opts)
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}
	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func TestRedisTimeline_EndToEnd(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	logger := zap.NewNop()

	timelines := cache.NewTimelineCache(client, logger)
	graph := newFakeGraph()
	graph.followers[1] = []int64{2}
	h := worker.NewHandler(timelines, graph, graph, logger)

	base := time.Now()
	for i := int64(0); i < 3; i++ {
		event := queue.PostCreated(100+i, 1, base.Add(time.Duration(i)*time.Second))
		if err := h.HandleEvent(ctx, event); err != nil {
			t.Fatal(err)
		}
	}

	page, err := timelines.Page(ctx, 2, nil, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].PostID != 102 || page[1].PostID != 101 {
		t.Fatalf("first page: %+v", page)
	}
	rest, err := timelines.Page(ctx, 2, &page[1].Score, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 1 || rest[0].PostID != 100 {
		t.Errorf("second page: %+v", rest)
	}

	if err := h.HandleEvent(ctx, queue.PostDeleted(101, 1)); err != nil {
		t.Fatal(err)
	}
	page, _ = timelines.Page(ctx, 2, nil, 10)
	if len(page) != 2 {
		t.Errorf("after delete: %+v", page)
	}
	if n, err := timelines.Len(ctx, 2); err != nil || n != 2 {
		t.Errorf("Len = %d, %v; want 2", n, err)
	}
}

func TestRedisStream_PublishConsume(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	logger := zap.NewNop()

	consumer := queue.NewConsumer(client, logger)
	if err := consumer.EnsureGroup(ctx); err != nil {
		t.Fatal(err)
	}
	if err := consumer.EnsureGroup(ctx); err != nil {
		t.Fatalf("EnsureGroup is not idempotent: %v", err)
	}

	publisher := queue.NewPublisher(client, 1000, logger)
	if _, err := publisher.Publish(ctx, queue.UserFollowed(7, 8)); err != nil {
		t.Fatal(err)
	}

	messages, err := consumer.Read(ctx, "test", 10, 100*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 1 {
		t.Fatalf("read %d messages, want 1", len(messages))
	}
	ev := messages[0].Event
	if ev.Type != queue.EventUserFollowed || ev.FollowerID != 7 || ev.FolloweeID != 8 {
		t.Errorf("event = %+v", ev)
	}

	pending, _ := consumer.ReadPending(ctx, "test", 10)
	if len(pending) != 1 {
		t.Errorf("pending before ack = %d, want 1", len(pending))
	}
	if err := consumer.Ack(ctx, messages[0].ID); err != nil {
		t.Fatal(err)
	}
	pending, _ = consumer.ReadPending(ctx, "test", 10)
	if len(pending) != 0 {
		t.Errorf("pending after ack = %d, want 0", len(pending))
	}
}
