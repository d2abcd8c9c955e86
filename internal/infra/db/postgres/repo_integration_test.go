//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"digital-storefront/internal/domain"
	"digital-storefront/internal/domain/model"
	"digital-storefront/internal/domain/ports/repository"
	"digital-storefront/internal/infra/security"
)

func testSealer(t *testing.T) security.Sealer {
	t.Helper()
	s, err := security.NewSealer("0123456789abcdef0123456789abcdef")
	require.NoError(t, err)
	return s
}

func sampleOrder(t *testing.T, id, userID string, purchasedAt time.Time, outcomes ...model.DeliveryOutcome) *model.Order {
	t.Helper()
	orig := int64(150)
	lines := []model.CartLine{
		{Product: model.Product{ID: "acc", Name: "Account", Price: 100, OriginalPrice: &orig, ProductType: model.ProductTypeAccount, DeliveryType: model.DeliveryAuto, Stock: 1, DurationDays: 30}, Quantity: 1},
		{Product: model.Product{ID: "sub", Name: "Family plan", Price: 80, ProductType: model.ProductTypeSubscription, DeliveryType: model.DeliveryAuto, Stock: 1, DurationDays: 30}, Quantity: 1},
	}
	req := &model.CheckoutRequest{
		Contact:         model.Contact{Email: "buyer@example.com"},
		PaymentMethod:   model.PaymentMobileWalletA,
		RecipientEmails: map[string]string{"sub": "friend@example.com"},
		Lines:           lines,
		Total:           model.TotalOf(lines),
		Savings:         model.SavingsOf(lines),
	}
	o, err := model.NewOrder(id, userID, "s1", req, outcomes, purchasedAt)
	require.NoError(t, err)
	return o
}

func TestOrderRepo_Integration(t *testing.T) {
	ctx := context.Background()
	repo := NewOrderRepo(testPool, testSealer(t))
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("should round trip an order with sealed outcomes", func(t *testing.T) {
		cleanup(t)
		o := sampleOrder(t, "ORD1", "u1", now, model.CredentialsOutcome("a@b.c", "secret"), model.ProcessingOutcome(45, "invite soon"))
		require.NoError(t, repo.Save(ctx, nil, o))

		var raw string
		require.NoError(t, testPool.QueryRow(ctx, `SELECT outcome FROM order_items WHERE order_id = 'ORD1' AND product_id = 'acc'`).Scan(&raw))
		assert.NotContains(t, raw, "secret")

		got, err := repo.FindByID(ctx, nil, "ORD1")
		require.NoError(t, err)
		require.Len(t, got.Items, 2)
		assert.Equal(t, "acc", got.Items[0].Product.ID)
		assert.Equal(t, "secret", got.Items[0].Outcome.Credentials.Password)
		assert.True(t, got.Items[1].Outcome.IsProcessing())
		assert.Equal(t, "friend@example.com", got.Items[1].RecipientEmail)
		assert.Nil(t, got.Items[1].FulfilledAt)
		assert.Equal(t, int64(50), got.Savings)
		require.NotNil(t, got.ExpiresAt)
		assert.Equal(t, model.OrderStatusProcessing, model.ComputeStatus(got, now))
	})

	t.Run("should refuse a duplicate id", func(t *testing.T) {
		cleanup(t)
		o := sampleOrder(t, "ORD1", "u1", now, model.LicenseKeyOutcome("K"), model.LicenseKeyOutcome("L"))
		require.NoError(t, repo.Save(ctx, nil, o))
		assert.ErrorIs(t, repo.Save(ctx, nil, o), domain.ErrAlreadyExists)
	})

	t.Run("should append replacements and complete processing lines once", func(t *testing.T) {
		cleanup(t)
		o := sampleOrder(t, "ORD1", "u1", now, model.LicenseKeyOutcome("K"), model.ProcessingOutcome(45, "invite soon"))
		require.NoError(t, repo.Save(ctx, nil, o))

		require.NoError(t, repo.AppendReplacement(ctx, nil, "ORD1", model.ReplacementEntry{Date: now, Reason: "first"}))
		require.NoError(t, repo.AppendReplacement(ctx, nil, "ORD1", model.ReplacementEntry{Date: now, Reason: "second"}))
		assert.ErrorIs(t, repo.AppendReplacement(ctx, nil, "NOPE", model.ReplacementEntry{Date: now, Reason: "x"}), domain.ErrNotFound)

		require.NoError(t, repo.UpdateItemOutcome(ctx, nil, "ORD1", "sub", model.CredentialsOutcome("invite@x", "pw"), now))
		assert.ErrorIs(t, repo.UpdateItemOutcome(ctx, nil, "ORD1", "sub", model.LicenseKeyOutcome("again"), now), domain.ErrNotProcessing)
		assert.ErrorIs(t, repo.UpdateItemOutcome(ctx, nil, "ORD1", "ghost", model.LicenseKeyOutcome("x"), now), domain.ErrNotFound)

		got, err := repo.FindByID(ctx, nil, "ORD1")
		require.NoError(t, err)
		require.Len(t, got.ReplacementHistory, 2)
		assert.Equal(t, "first", got.ReplacementHistory[0].Reason)
		assert.Equal(t, "second", got.ReplacementHistory[1].Reason)
		assert.Equal(t, model.OrderStatusActive, model.ComputeStatus(got, now))
	})

	t.Run("should list by user newest first and find pending orders", func(t *testing.T) {
		cleanup(t)
		older := sampleOrder(t, "ORD1", "u1", now.Add(-3*time.Hour), model.LicenseKeyOutcome("K"), model.ProcessingOutcome(45, ""))
		newer := sampleOrder(t, "ORD2", "u1", now, model.LicenseKeyOutcome("K"), model.LicenseKeyOutcome("L"))
		other := sampleOrder(t, "ORD3", "u2", now, model.LicenseKeyOutcome("K"), model.LicenseKeyOutcome("L"))
		for _, o := range []*model.Order{older, newer, other} {
			require.NoError(t, repo.Save(ctx, nil, o))
		}

		list, err := repo.ListByUser(ctx, nil, "u1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "ORD2", list[0].ID)
		assert.Equal(t, "ORD1", list[1].ID)

		late, err := repo.ListPendingOlderThan(ctx, nil, now.Add(-time.Hour), 10)
		require.NoError(t, err)
		require.Len(t, late, 1)
		assert.Equal(t, "ORD1", late[0].ID)
	})

	t.Run("should roll back the order when the outer transaction fails", func(t *testing.T) {
		cleanup(t)
		tm := NewTxManager(testPool)
		o := sampleOrder(t, "ORD1", "u1", now, model.LicenseKeyOutcome("K"), model.LicenseKeyOutcome("L"))
		err := tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if err := repo.Save(ctx, tx, o); err != nil {
				return err
			}
			return domain.ErrOperationFailed
		})
		assert.ErrorIs(t, err, domain.ErrOperationFailed)
		_, err = repo.FindByID(ctx, nil, "ORD1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestBalanceRepo_Integration(t *testing.T) {
	ctx := context.Background()
	repo := NewBalanceRepo(testPool)

	t.Run("should debit only when funds cover the amount", func(t *testing.T) {
		cleanup(t)
		_, err := repo.Get(ctx, nil, "u1")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		require.NoError(t, repo.Credit(ctx, nil, "u1", 100))
		require.NoError(t, repo.Credit(ctx, nil, "u1", 50))

		ok, err := repo.Debit(ctx, nil, "u1", 200)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = repo.Debit(ctx, nil, "u1", 120)
		require.NoError(t, err)
		assert.True(t, ok)

		bal, err := repo.Get(ctx, nil, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(30), bal)
	})

	t.Run("should never overspend under concurrent debits", func(t *testing.T) {
		cleanup(t)
		require.NoError(t, repo.Credit(ctx, nil, "u1", 100))

		var (
			wg  sync.WaitGroup
			mu  sync.Mutex
			won int
		)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repo.Debit(ctx, nil, "u1", 30)
				if err == nil && ok {
					mu.Lock()
					won++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 3, won)
		bal, _ := repo.Get(ctx, nil, "u1")
		assert.Equal(t, int64(10), bal)
	})
}

func TestProductAndTicketRepo_Integration(t *testing.T) {
	ctx := context.Background()
	cleanup(t)
	products := NewProductRepo(testPool)

	p := testProductWithOriginal("p1")
	require.NoError(t, products.Save(ctx, nil, p))
	p.Price = 90
	require.NoError(t, products.Save(ctx, nil, p))

	got, err := products.FindByID(ctx, nil, "p1")
	require.NoError(t, err)
	assert.Equal(t, int64(90), got.Price)
	require.NotNil(t, got.OriginalPrice)

	_, err = products.FindByID(ctx, nil, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := products.ListAll(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	orders := NewOrderRepo(testPool, nil)
	require.NoError(t, orders.Save(ctx, nil, sampleOrder(t, "ORD1", "u1", time.Now(), model.LicenseKeyOutcome("K"), model.LicenseKeyOutcome("L"))))

	tickets := NewTicketRepo(testPool)
	tk, err := model.NewSupportTicket("ORD1", "u1", "Key rejected", "", time.Now())
	require.NoError(t, err)
	require.NoError(t, tickets.Save(ctx, nil, tk))
	list, err := tickets.ListByOrder(ctx, nil, "ORD1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.TicketStatusOpen, list[0].Status)
}

func testProductWithOriginal(id string) *model.Product {
	orig := int64(120)
	return &model.Product{ID: id, Name: "Editor", Category: "software", Price: 100, OriginalPrice: &orig,
		ProductType: model.ProductTypeDownload, DeliveryType: model.DeliveryAuto, Stock: 3}
}
