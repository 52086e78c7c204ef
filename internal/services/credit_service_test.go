package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/edulink/backend/internal/models"
	"github.com/edulink/backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCreditService_Purchase(t *testing.T) {
	ctx := context.Background()

	t.Run("purchase with bonus then drain to zero", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "school-1", models.RoleSchool)
		env.purchase(t, "school-1", "starter", "order-1")
		require.Equal(t, int64(5), env.balance(t, "school-1"))

		entry := env.purchase(t, "school-1", "standard", "order-2")
		assert.Equal(t, int64(13), entry.Amount)
		assert.Equal(t, int64(18), entry.ResultingBalance)
		assert.Equal(t, "order-2", entry.ID)
		assert.Equal(t, int64(18), env.balance(t, "school-1"))

		for i := 0; i < 18; i++ {
			_, err := env.credits.Consume(ctx, "school-1", 1, "")
			require.NoError(t, err, "consume %d", i+1)
		}
		_, err := env.credits.Consume(ctx, "school-1", 1, "")
		assert.ErrorIs(t, err, ErrInsufficientCredits)
		assert.Equal(t, int64(0), env.balance(t, "school-1"))
	})

	t.Run("same idempotency key grants once", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "school-1", models.RoleSchool)

		first, replayed, err := env.credits.Purchase(ctx, "school-1", "standard", "order-1")
		require.NoError(t, err)
		assert.False(t, replayed)

		second, replayed, err := env.credits.Purchase(ctx, "school-1", "standard", "order-1")
		require.NoError(t, err)
		assert.True(t, replayed)
		assert.Equal(t, first, second)

		assert.Equal(t, int64(13), env.balance(t, "school-1"))
		assert.Len(t, env.notifier.ByCategory(models.CategoryCreditPurchase), 1)
	})

	t.Run("redelivered purchases racing on one key grant once", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "school-1", models.RoleSchool)

		const n = 16
		var (
			wg       sync.WaitGroup
			start    = make(chan struct{})
			replayed = make([]bool, n)
			entries  = make([]*models.CreditTransaction, n)
			errs     = make([]error, n)
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				entries[i], replayed[i], errs[i] = env.credits.Purchase(ctx, "school-1", "standard", "order-1")
			}(i)
		}
		close(start)
		wg.Wait()

		fresh := 0
		for i := 0; i < n; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, "order-1", entries[i].ID)
			assert.Equal(t, int64(13), entries[i].ResultingBalance)
			if !replayed[i] {
				fresh++
			}
		}
		assert.Equal(t, 1, fresh)
		assert.Equal(t, int64(13), env.balance(t, "school-1"))
		assert.Len(t, env.notifier.ByCategory(models.CategoryCreditPurchase), 1)

		audit, err := env.credits.VerifyBalance(ctx, "school-1")
		require.NoError(t, err)
		assert.True(t, audit.Consistent)
		assert.Equal(t, 1, audit.Entries)
	})

	t.Run("unknown package", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "school-1", models.RoleSchool)

		_, _, err := env.credits.Purchase(ctx, "school-1", "platinum", "order-1")
		assert.ErrorIs(t, err, ErrInvalidPackage)
		assert.Equal(t, int64(0), env.balance(t, "school-1"))
	})

	t.Run("bad idempotency keys", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "school-1", models.RoleSchool)

		_, _, err := env.credits.Purchase(ctx, "school-1", "starter", "  ")
		assert.ErrorIs(t, err, ErrInvalidRequest)
		_, _, err = env.credits.Purchase(ctx, "school-1", "starter", "refund-abc")
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("key already used by a consume", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "school-1", models.RoleSchool)
		env.purchase(t, "school-1", "starter", "order-1")

		consumed, err := env.credits.Consume(ctx, "school-1", 1, "")
		require.NoError(t, err)

		_, _, err = env.credits.Purchase(ctx, "school-1", "starter", consumed.ID)
		assert.ErrorIs(t, err, ErrInvalidRequest)
		assert.Equal(t, int64(4), env.balance(t, "school-1"))
	})

	t.Run("inactive account", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "school-1", models.RoleSchool)
		_, err := env.accounts.Deactivate(ctx, "school-1")
		require.NoError(t, err)

		_, _, err = env.credits.Purchase(ctx, "school-1", "starter", "order-1")
		assert.ErrorIs(t, err, ErrAccountInactive)
	})

	t.Run("unknown account", func(t *testing.T) {
		env := newTestEnv(t)
		_, _, err := env.credits.Purchase(ctx, "ghost", "starter", "order-1")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestCreditService_Consume(t *testing.T) {
	ctx := context.Background()

	t.Run("non-positive amount", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "school-1", models.RoleSchool)
		env.purchase(t, "school-1", "starter", "order-1")

		_, err := env.credits.Consume(ctx, "school-1", 0, "")
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = env.credits.Consume(ctx, "school-1", -3, "")
		assert.ErrorIs(t, err, ErrInvalidAmount)
		assert.Equal(t, int64(5), env.balance(t, "school-1"))
	})

	t.Run("never clamps to the available balance", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "school-1", models.RoleSchool)
		env.purchase(t, "school-1", "starter", "order-1")

		_, err := env.credits.Consume(ctx, "school-1", 6, "")
		assert.ErrorIs(t, err, ErrInsufficientCredits)
		assert.Equal(t, int64(5), env.balance(t, "school-1"))
	})

	t.Run("two concurrent consumes against a balance of one", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "school-1", models.RoleSchool)
		env.purchase(t, "school-1", "starter", "order-1")
		_, err := env.credits.Consume(ctx, "school-1", 4, "")
		require.NoError(t, err)

		errs := consumeConcurrently(env, "school-1", 2)
		assert.Equal(t, 1, countNil(errs))
		assert.Equal(t, 1, countIs(errs, ErrInsufficientCredits))
		assert.Equal(t, int64(0), env.balance(t, "school-1"))
	})

	t.Run("many concurrent consumes never overdraw", func(t *testing.T) {
		env := newTestEnv(t)
		env.register(t, "school-1", models.RoleSchool)
		env.purchase(t, "school-1", "starter", "order-1")

		errs := consumeConcurrently(env, "school-1", 12)
		assert.Equal(t, 5, countNil(errs))
		assert.Equal(t, 7, countIs(errs, ErrInsufficientCredits))
		assert.Equal(t, int64(0), env.balance(t, "school-1"))

		audit, err := env.credits.VerifyBalance(ctx, "school-1")
		require.NoError(t, err)
		assert.True(t, audit.Consistent)
		assert.Equal(t, 6, audit.Entries)
	})
}

func TestCreditService_Refund(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "school-1", models.RoleSchool)
	purchase := env.purchase(t, "school-1", "starter", "order-1")

	consumed, err := env.credits.Consume(ctx, "school-1", 2, "")
	require.NoError(t, err)
	require.Equal(t, int64(3), env.balance(t, "school-1"))

	t.Run("reverses a consume", func(t *testing.T) {
		refund, err := env.credits.Refund(ctx, "school-1", consumed.ID)
		require.NoError(t, err)
		assert.Equal(t, models.KindRefund, refund.Kind)
		assert.Equal(t, int64(2), refund.Amount)
		assert.Equal(t, consumed.ID, refund.RefundOf)
		assert.Equal(t, int64(5), env.balance(t, "school-1"))
		assert.Len(t, env.notifier.ByCategory(models.CategoryCreditRefund), 1)
	})

	t.Run("second refund of the same consume", func(t *testing.T) {
		_, err := env.credits.Refund(ctx, "school-1", consumed.ID)
		assert.ErrorIs(t, err, ErrAlreadyRefunded)
		assert.Equal(t, int64(5), env.balance(t, "school-1"))
	})

	t.Run("purchases are not refundable", func(t *testing.T) {
		_, err := env.credits.Refund(ctx, "school-1", purchase.ID)
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		_, err := env.credits.Refund(ctx, "school-1", "nope")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}

func TestCreditService_HistoryReplaysToLiveBalance(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "school-1", models.RoleSchool)

	env.purchase(t, "school-1", "standard", "order-1")
	c1, err := env.credits.Consume(ctx, "school-1", 4, "")
	require.NoError(t, err)
	_, err = env.credits.Consume(ctx, "school-1", 9, "")
	require.NoError(t, err)
	_, err = env.credits.Refund(ctx, "school-1", c1.ID)
	require.NoError(t, err)
	_, err = env.credits.Consume(ctx, "school-1", 5, "")
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	history, err := env.credits.History(ctx, "school-1")
	require.NoError(t, err)
	require.Len(t, history, 4)

	var replayed int64
	for i, entry := range history {
		assert.Equal(t, int64(i+1), entry.Sequence)
		replayed += entry.Amount
		assert.GreaterOrEqual(t, replayed, int64(0))
		assert.Equal(t, replayed, entry.ResultingBalance)
	}
	assert.Equal(t, env.balance(t, "school-1"), replayed)

	audit, err := env.credits.VerifyBalance(ctx, "school-1")
	require.NoError(t, err)
	assert.True(t, audit.Consistent)
	assert.Equal(t, int64(4), audit.LiveBalance)
	assert.Equal(t, int64(4), audit.ReplayedBalance)
}

func TestCreditService_VerifyBalanceDetectsDrift(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.register(t, "school-1", models.RoleSchool)
	env.purchase(t, "school-1", "starter", "order-1")

	var account models.Account
	require.NoError(t, env.store.Get(ctx, store.Accounts, "school-1", &account))
	account.CreditBalance = 50
	require.NoError(t, env.store.Set(ctx, store.Accounts, "school-1", account))

	audit, err := env.credits.VerifyBalance(ctx, "school-1")
	require.NoError(t, err)
	assert.False(t, audit.Consistent)
	assert.Equal(t, int64(50), audit.LiveBalance)
	assert.Equal(t, int64(5), audit.ReplayedBalance)
}

func TestTxRunner_GivesUpAsUnavailable(t *testing.T) {
	ms := &MockStore{}
	ms.On("RunTransaction").Return(store.ErrConflict)

	runner := NewTxRunner(ms, 2, time.Millisecond, zap.NewNop())
	err := runner.Run(context.Background(), "consume credits", func(tx store.Tx) error { return nil })

	assert.ErrorIs(t, err, ErrStoreUnavailable)
	ms.AssertNumberOfCalls(t, "RunTransaction", 3)
}

func TestTxRunner_BusinessErrorsAreNotRetried(t *testing.T) {
	calls := 0
	runner := NewTxRunner(store.NewMemory(), 5, time.Millisecond, zap.NewNop())
	err := runner.Run(context.Background(), "consume credits", func(tx store.Tx) error {
		calls++
		return ErrInsufficientCredits
	})

	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Equal(t, 1, calls)
}

func consumeConcurrently(env *testEnv, accountID string, n int) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = env.credits.Consume(context.Background(), accountID, 1, "")
		}(i)
	}
	close(start)
	wg.Wait()
	return errs
}

func countNil(errs []error) int {
	n := 0
	for _, err := range errs {
		if err == nil {
			n++
		}
	}
	return n
}

func countIs(errs []error, target error) int {
	n := 0
	for _, err := range errs {
		if errors.Is(err, target) {
			n++
		}
	}
	return n
}
