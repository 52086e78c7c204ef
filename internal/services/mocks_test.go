package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/edulink/backend/internal/config"
	"github.com/edulink/backend/internal/models"
	"github.com/edulink/backend/internal/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockStore fails on demand; reads and writes go through testify.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Get(ctx context.Context, collection, id string, dest any) error {
	args := m.Called(collection, id)
	return args.Error(0)
}

func (m *MockStore) Set(ctx context.Context, collection, id string, doc any) error {
	args := m.Called(collection, id)
	return args.Error(0)
}

func (m *MockStore) RunTransaction(ctx context.Context, fn func(tx store.Tx) error) error {
	args := m.Called()
	return args.Error(0)
}

// recordingNotifier keeps every dispatched event.
type recordingNotifier struct {
	mu     sync.Mutex
	events []models.NotificationEvent
}

func (n *recordingNotifier) Dispatch(ctx context.Context, events ...models.NotificationEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, events...)
}

func (n *recordingNotifier) Events() []models.NotificationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.NotificationEvent(nil), n.events...)
}

func (n *recordingNotifier) ByCategory(category models.NotificationCategory) []models.NotificationEvent {
	var out []models.NotificationEvent
	for _, e := range n.Events() {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	store         *store.Memory
	notifier      *recordingNotifier
	accounts      *AccountService
	credits       *CreditService
	subscriptions *SubscriptionService
	gate          *AccessGate
	contacts      *ContactService
	applications  *ApplicationService
	qr            *QRService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	mem := store.NewMemory()
	runner := NewTxRunner(mem, 100, time.Millisecond, logger)
	audit := NewAuditLogger(logger)
	notifier := &recordingNotifier{}

	catalog, err := config.NewCatalog([]models.CreditPackage{
		{ID: "starter", Credits: 5, PriceLabel: "$4.99"},
		{ID: "standard", Credits: 10, BonusCredits: 3, PriceLabel: "$9.99"},
	})
	require.NoError(t, err)

	clock := func() time.Time { return testNow }

	env := &testEnv{
		store:         mem,
		notifier:      notifier,
		accounts:      NewAccountService(runner, audit, logger),
		credits:       NewCreditService(runner, catalog, notifier, audit, logger),
		subscriptions: NewSubscriptionService(runner, notifier, audit, logger),
		gate:          NewAccessGate(mem),
	}
	env.accounts.now = clock
	env.credits.now = clock
	env.subscriptions.now = clock
	env.gate.now = clock
	env.contacts = NewContactService(runner, env.gate, env.credits, audit, logger)
	env.applications = NewApplicationService(runner, NewValidationHelper(), notifier, audit, logger)
	env.applications.now = clock
	env.qr = NewQRService(env.contacts, env.applications)
	return env
}

func (e *testEnv) register(t *testing.T, id string, role models.Role) {
	t.Helper()
	_, _, err := e.accounts.Register(context.Background(), id, role)
	require.NoError(t, err)
}

func (e *testEnv) purchase(t *testing.T, id, packageID, key string) *models.CreditTransaction {
	t.Helper()
	entry, _, err := e.credits.Purchase(context.Background(), id, packageID, key)
	require.NoError(t, err)
	return entry
}

func (e *testEnv) balance(t *testing.T, id string) int64 {
	t.Helper()
	view, err := e.accounts.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return view.CreditBalance
}
