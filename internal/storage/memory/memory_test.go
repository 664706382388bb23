package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/billing-backoffice/internal/models"
	"github.com/magabrotheeeer/billing-backoffice/internal/storage"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedInvoice(t *testing.T, s *Storage, id, subID, userID, reference string, billingDate time.Time, status models.InvoiceStatus) {
	t.Helper()
	err := s.CreateInvoice(context.Background(), &models.Invoice{
		ID:             id,
		Reference:      reference,
		SubscriptionID: subID,
		UserID:         userID,
		BillingDate:    billingDate,
		PeriodStart:    date(billingDate.Year(), billingDate.Month(), 1),
		AmountInclVat:  decimal.RequireFromString("36.00"),
		Status:         status,
	})
	require.NoError(t, err)
}

func TestListSubscriptionsByStatus(t *testing.T) {
	s := New()
	s.SeedSubscription(&models.Subscription{ID: "sub2", ContractCode: "C002", Status: models.SubscriptionActive})
	s.SeedSubscription(&models.Subscription{ID: "sub1", ContractCode: "C001", Status: models.SubscriptionActive})
	s.SeedSubscription(&models.Subscription{ID: "sub3", ContractCode: "C003", Status: models.SubscriptionCancelled})

	active, err := s.ListSubscriptionsByStatus(context.Background(), models.SubscriptionActive)
	require.NoError(t, err)
	require.Len(t, active, 2)
	// Результат отсортирован по коду договора.
	assert.Equal(t, "C001", active[0].ContractCode)
	assert.Equal(t, "C002", active[1].ContractCode)
}

func TestCreateAndReadInvoice(t *testing.T) {
	s := New()
	seedInvoice(t, s, "inv1", "sub1", "u1", "INV-2026-03-C001", date(2026, time.March, 31), models.InvoicePending)

	inv, err := s.ReadInvoice(context.Background(), "inv1")
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-03-C001", inv.Reference)

	_, err = s.ReadInvoice(context.Background(), "missing")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestCreateInvoice_InvalidStatus(t *testing.T) {
	s := New()
	err := s.CreateInvoice(context.Background(), &models.Invoice{
		ID:     "inv1",
		Status: models.InvoiceStatus("OVERDUE"),
	})
	assert.True(t, errors.Is(err, storage.ErrInvalidStatus))
}

func TestHasInvoiceForPeriod(t *testing.T) {
	s := New()
	seedInvoice(t, s, "inv1", "sub1", "u1", "INV-2026-03-C001", date(2026, time.March, 31), models.InvoicePending)

	has, err := s.HasInvoiceForPeriod(context.Background(), "sub1", date(2026, time.March, 1))
	require.NoError(t, err)
	assert.True(t, has)

	has, err = s.HasInvoiceForPeriod(context.Background(), "sub1", date(2026, time.April, 1))
	require.NoError(t, err)
	assert.False(t, has)

	has, err = s.HasInvoiceForPeriod(context.Background(), "other", date(2026, time.March, 1))
	require.NoError(t, err)
	assert.False(t, has)
}

func TestCountInvoicesBySubscription(t *testing.T) {
	s := New()
	seedInvoice(t, s, "inv1", "sub1", "u1", "INV-2026-02-C001", date(2026, time.February, 28), models.InvoicePaid)
	seedInvoice(t, s, "inv2", "sub1", "u1", "INV-2026-03-C001", date(2026, time.March, 31), models.InvoicePending)
	seedInvoice(t, s, "inv3", "sub2", "u2", "INV-2026-03-C002", date(2026, time.March, 31), models.InvoicePending)

	count, err := s.CountInvoicesBySubscription(context.Background(), "sub1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestListInvoicesByBillingRange(t *testing.T) {
	s := New()
	seedInvoice(t, s, "inv1", "sub1", "u1", "INV-2026-06-C001", date(2026, time.June, 30), models.InvoicePending)
	seedInvoice(t, s, "inv2", "sub2", "u2", "INV-2026-06-C002", date(2026, time.June, 1), models.InvoiceSent)
	seedInvoice(t, s, "inv3", "sub3", "u3", "INV-2026-07-C003", date(2026, time.July, 31), models.InvoicePending)

	result, err := s.ListInvoicesByBillingRange(context.Background(), date(2026, time.June, 1), date(2026, time.June, 30))
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "INV-2026-06-C001", result[0].Reference)
	assert.Equal(t, "INV-2026-06-C002", result[1].Reference)
}

func TestListInvoices_Filters(t *testing.T) {
	s := New()
	seedInvoice(t, s, "inv1", "sub1", "u1", "INV-2026-06-C001", date(2026, time.June, 30), models.InvoicePaid)
	seedInvoice(t, s, "inv2", "sub2", "u1", "INV-2026-06-C002", date(2026, time.June, 30), models.InvoicePending)
	seedInvoice(t, s, "inv3", "sub3", "u2", "INV-2026-06-C003", date(2026, time.June, 30), models.InvoicePaid)

	userID := "u1"
	status := models.InvoicePaid
	result, err := s.ListInvoices(context.Background(), models.InvoiceFilter{UserID: &userID, Status: &status})
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "inv1", result[0].ID)

	all, err := s.ListInvoices(context.Background(), models.InvoiceFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestUpdateInvoiceStatus(t *testing.T) {
	s := New()
	seedInvoice(t, s, "inv1", "sub1", "u1", "INV-2026-06-C001", date(2026, time.June, 30), models.InvoicePending)

	affected, err := s.UpdateInvoiceStatus(context.Background(), "inv1", models.InvoicePaid)
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	inv, err := s.ReadInvoice(context.Background(), "inv1")
	require.NoError(t, err)
	assert.Equal(t, models.InvoicePaid, inv.Status)

	affected, err = s.UpdateInvoiceStatus(context.Background(), "missing", models.InvoicePaid)
	require.NoError(t, err)
	assert.Equal(t, 0, affected)

	_, err = s.UpdateInvoiceStatus(context.Background(), "inv1", models.InvoiceStatus("OVERDUE"))
	assert.True(t, errors.Is(err, storage.ErrInvalidStatus))
}

func TestUsers(t *testing.T) {
	s := New()
	s.SeedUser(&models.User{ID: "u1", Username: "ivan", Status: models.UserOK})

	u, err := s.ReadUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ivan", u.Username)

	u, err = s.ReadUserByUsername(context.Background(), "ivan")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = s.ReadUserByUsername(context.Background(), "ghost")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	affected, err := s.UpdateUserStatus(context.Background(), "u1", models.UserSuspended)
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	u, err = s.ReadUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserSuspended, u.Status)
}

func TestReadsReturnCopies(t *testing.T) {
	s := New()
	s.SeedUser(&models.User{ID: "u1", Status: models.UserOK})

	u, err := s.ReadUser(context.Background(), "u1")
	require.NoError(t, err)
	u.Status = models.UserBlocked

	again, err := s.ReadUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, models.UserOK, again.Status)
}
