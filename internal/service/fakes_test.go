package service

import (
	"CommandCenter/internal/model"
	"CommandCenter/internal/pkg/kafka"
	"CommandCenter/internal/pkg/mongo"
	"CommandCenter/internal/pkg/platform"
	"CommandCenter/internal/pkg/redis"
	"CommandCenter/internal/repository"
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errStoreDown = errors.New("store unavailable")

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	redis.Rdb = goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redis.Rdb.Close() })
	return mr
}

// memContentRepo 内存实现，Transition 与 SQL 条件更新语义一致
type memContentRepo struct {
	mu      sync.Mutex
	nextID  uint64
	items   map[uint64]*model.ContentItem
	metrics map[uint64][]*model.PostMetric
	users   map[uint64]model.User

	failMetricInsert bool
	listErr          error
	// afterOwnerList 在按 owner 查询返回前执行，用于模拟查询与回写缓存之间的并发变化
	afterOwnerList func()
	transitionCalls  atomic.Int32
}

func newMemContentRepo() *memContentRepo {
	return &memContentRepo{
		items:   map[uint64]*model.ContentItem{},
		metrics: map[uint64][]*model.PostMetric{},
		users: map[uint64]model.User{
			1: {ID: 1, Email: "owner@example.com", Name: "Owner"},
			2: {ID: 2, Email: "other@example.com", Name: "Other"},
		},
	}
}

func clone(item *model.ContentItem) *model.ContentItem {
	c := *item
	return &c
}

// seed 直接写入一条记录，返回其 ID
func (r *memContentRepo) seed(item model.ContentItem) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	item.ID = r.nextID
	if item.OwnerID == 0 {
		item.OwnerID = 1
	}
	if item.Platform == "" {
		item.Platform = model.PlatformFacebook
	}
	if item.ContentType == "" {
		item.ContentType = model.ContentText
	}
	if item.Status == "" {
		item.Status = model.StatusDraft
	}
	if item.Title == "" {
		item.Title = "launch teaser"
	}
	if item.Body == "" {
		item.Body = "coming soon"
	}
	r.items[item.ID] = &item
	return item.ID
}

func (r *memContentRepo) get(id uint64) *model.ContentItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item, ok := r.items[id]; ok {
		return clone(item)
	}
	return nil
}

func (r *memContentRepo) metricCount(id uint64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.metrics[id])
}

func (r *memContentRepo) metricsOf(id uint64) []*model.PostMetric {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*model.PostMetric(nil), r.metrics[id]...)
}

func (r *memContentRepo) Create(_ context.Context, item *model.ContentItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	item.ID = r.nextID
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	r.items[item.ID] = clone(item)
	return nil
}

func (r *memContentRepo) GetByID(_ context.Context, id uint64) (*model.ContentItem, error) {
	return r.get(id), nil
}

func (r *memContentRepo) GetWithOwner(_ context.Context, id uint64) (*model.ContentItem, error) {
	item := r.get(id)
	if item == nil {
		return nil, nil
	}
	r.mu.Lock()
	item.Owner = r.users[item.OwnerID]
	r.mu.Unlock()
	return item, nil
}

func (r *memContentRepo) Transition(_ context.Context, id uint64, t repository.StatusTransition) (bool, error) {
	r.transitionCalls.Add(1)
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || !slices.Contains(t.From, item.Status) {
		return false, nil
	}
	if t.ExpectScheduledAt != nil && (item.ScheduledAt == nil || !item.ScheduledAt.Equal(*t.ExpectScheduledAt)) {
		return false, nil
	}

	item.Status = t.To
	item.ScheduledAt = nil
	if t.To == model.StatusScheduled && t.ScheduledAt != nil {
		at := *t.ScheduledAt
		item.ScheduledAt = &at
	}
	if t.To == model.StatusFailed {
		reason, detail := t.FailureReason, t.FailureDetail
		item.FailureReason = &reason
		item.FailureDetail = &detail
	}
	item.UpdatedAt = time.Now()
	return true, nil
}

func (r *memContentRepo) CompletePublish(_ context.Context, id uint64, publishedAt time.Time, platformPostID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok || item.Status != model.StatusPublishing {
		return false, nil
	}
	// 事务回滚：状态与指标都不落库
	if r.failMetricInsert {
		return false, errors.New("insert post_metrics: deadlock found")
	}

	at := publishedAt
	pid := platformPostID
	item.Status = model.StatusPublished
	item.ScheduledAt = nil
	item.PublishedAt = &at
	item.PlatformPostID = &pid
	r.metrics[id] = append(r.metrics[id], model.NewInitialPostMetric(id, publishedAt))
	return true, nil
}

func (r *memContentRepo) listWhere(pred func(*model.ContentItem) bool) []*model.ContentItem {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*model.ContentItem, 0)
	for _, item := range r.items {
		if pred(item) {
			res = append(res, clone(item))
		}
	}
	sort.Slice(res, func(i, j int) bool {
		a, b := res[i].ScheduledAt, res[j].ScheduledAt
		if a != nil && b != nil && !a.Equal(*b) {
			return a.Before(*b)
		}
		return res[i].ID < res[j].ID
	})
	return res
}

func (r *memContentRepo) ListScheduled(context.Context) ([]*model.ContentItem, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.listWhere(func(i *model.ContentItem) bool { return i.Status == model.StatusScheduled }), nil
}

func (r *memContentRepo) ListScheduledByOwner(_ context.Context, ownerID uint64) ([]*model.ContentItem, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	res := r.listWhere(func(i *model.ContentItem) bool {
		return i.OwnerID == ownerID && i.Status == model.StatusScheduled
	})
	if hook := r.afterOwnerList; hook != nil {
		r.afterOwnerList = nil
		hook()
	}
	return res, nil
}

func (r *memContentRepo) ListDue(_ context.Context, until time.Time, limit int) ([]*model.ContentItem, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	res := r.listWhere(func(i *model.ContentItem) bool {
		return i.Status == model.StatusScheduled && i.ScheduledAt != nil && !i.ScheduledAt.After(until)
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (r *memContentRepo) ListByStatus(_ context.Context, status model.ContentStatus) ([]*model.ContentItem, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.listWhere(func(i *model.ContentItem) bool { return i.Status == status }), nil
}

func (r *memContentRepo) ListByContentItem(_ context.Context, id uint64) ([]*model.PostMetric, error) {
	return r.metricsOf(id), nil
}

// assertScheduleInvariant scheduled_at 非空当且仅当 SCHEDULED，published_at 非空当且仅当 PUBLISHED
func (r *memContentRepo) assertScheduleInvariant(t *testing.T) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, item := range r.items {
		assert.Equal(t, item.Status == model.StatusScheduled, item.ScheduledAt != nil, "content %d scheduled_at with status %s", id, item.Status)
		assert.Equal(t, item.Status == model.StatusPublished, item.PublishedAt != nil, "content %d published_at with status %s", id, item.Status)
		assert.Equal(t, item.Status == model.StatusPublished, len(r.metrics[id]) == 1, "content %d metrics with status %s", id, item.Status)
	}
}

// fakePublisher 记录调用次数与顺序，可阻塞以制造并发窗口
type fakePublisher struct {
	mu      sync.Mutex
	calls   atomic.Int32
	order   []uint64
	entered chan uint64
	release chan struct{}
	respond func(ctx context.Context, item *model.ContentItem) (*platform.Result, error)
}

func newFakePublisher(postID string) *fakePublisher {
	return &fakePublisher{
		respond: func(context.Context, *model.ContentItem) (*platform.Result, error) {
			return &platform.Result{PlatformPostID: postID}, nil
		},
	}
}

func failingPublisher(reason platform.Reason) *fakePublisher {
	return &fakePublisher{
		respond: func(_ context.Context, item *model.ContentItem) (*platform.Result, error) {
			return nil, &platform.PublishError{Platform: item.Platform, Reason: reason, Message: string(reason)}
		},
	}
}

func (p *fakePublisher) Publish(ctx context.Context, item *model.ContentItem) (*platform.Result, error) {
	p.calls.Add(1)
	p.mu.Lock()
	p.order = append(p.order, item.ID)
	p.mu.Unlock()

	if p.entered != nil {
		p.entered <- item.ID
	}
	if p.release != nil {
		<-p.release
	}
	return p.respond(ctx, item)
}

func (p *fakePublisher) publishedOrder() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint64(nil), p.order...)
}

type fakeNotifier struct {
	ch chan *Outcome
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{ch: make(chan *Outcome, 16)}
}

func (n *fakeNotifier) Notify(_ context.Context, _ *model.ContentItem, outcome *Outcome) {
	n.ch <- outcome
}

func (n *fakeNotifier) next(t *testing.T) *Outcome {
	t.Helper()
	select {
	case o := <-n.ch:
		return o
	case <-time.After(2 * time.Second):
		t.Fatal("no notification received")
		return nil
	}
}

type fakeSysBoxRepo struct {
	mu      sync.Mutex
	created []*mongo.SysBoxModel
	err     error
}

func (f *fakeSysBoxRepo) CreateNotification(_ context.Context, msg *mongo.SysBoxModel) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	msg.ID = primitive.NewObjectID()
	f.created = append(f.created, msg)
	return nil
}

func (f *fakeSysBoxRepo) EnsureIndexes(context.Context) error {
	return f.err
}

func (f *fakeSysBoxRepo) GetNotificationList(_ context.Context, userID uint64, unreadOnly bool, limit, offset int64) ([]*mongo.SysBoxModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]*mongo.SysBoxModel, 0)
	for _, m := range f.created {
		if m.ReceiverID == userID && (!unreadOnly || !m.IsRead) {
			res = append(res, m)
		}
	}
	return res, nil
}

func (f *fakeSysBoxRepo) MarkAsRead(_ context.Context, userID uint64, msgID string) error {
	return f.err
}

func (f *fakeSysBoxRepo) MarkAllRead(_ context.Context, userID uint64) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.created {
		if m.ReceiverID == userID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (f *fakeSysBoxRepo) GetUnreadCount(_ context.Context, userID uint64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, m := range f.created {
		if m.ReceiverID == userID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

type fakeOutcomeProducer struct {
	mu     sync.Mutex
	events []*kafka.OutcomeEvent
	err    error
}

func (f *fakeOutcomeProducer) Send(_ context.Context, event *kafka.OutcomeEvent) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakeOutcomeProducer) Close() error { return nil }
