package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/pricelist/pkg/email"
	"github.com/akinalp/pricelist/repository"
	"github.com/akinalp/pricelist/storage"
	"github.com/akinalp/pricelist/ws"
)

func TestMain(m *testing.M) {
	hashCost = bcrypt.MinCost
	goleak.VerifyTestMain(m)
}

// fakeHub, yayınlanan event'leri ve iptalleri kaydeder.
type fakeHub struct {
	mu              sync.Mutex
	events          []ws.Event
	revokedUsers    []string
	revokedSessions []string
}

func (h *fakeHub) BroadcastToAll(e ws.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *fakeHub) RevokeUser(username, _ string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.revokedUsers = append(h.revokedUsers, username)
}

func (h *fakeHub) RevokeSession(id, _ string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.revokedSessions = append(h.revokedSessions, id)
}

type fakeNotifier struct {
	mu      sync.Mutex
	notices []email.PriceListNotice
}

func (n *fakeNotifier) NotifyPriceListUpdated(_ context.Context, notice email.PriceListNotice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice)
	return nil
}

type fixture struct {
	store    storage.BlobStore
	layout   repository.Layout
	users    repository.UserRepository
	sessions repository.SessionRepository
	prices   repository.PriceListRepository
	hub      *fakeHub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)

	layout := repository.NewLayout("nissan/prices", "nissan_price_list")
	return &fixture{
		store:    store,
		layout:   layout,
		users:    repository.NewBlobUserRepo(store, layout),
		sessions: repository.NewBlobSessionRepo(store, layout),
		prices:   repository.NewBlobPriceListRepo(store, layout),
		hub:      &fakeHub{},
	}
}

// clock, testlerin ilerletebildiği sabit saat.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

var nop = zap.NewNop()
