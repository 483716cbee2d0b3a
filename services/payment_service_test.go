package services

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pg-backend/models"
	"pg-backend/repository"
)

func TestSetAndGetStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.addGuest(t, "asha", room(101))

	st, err := env.payments.GetStatus(ctx, g.ID, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, st, "no record means pending")

	rec, err := env.payments.SetStatus(ctx, g.ID, "2024-03", "PAID")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, rec.Status)
	assert.EqualValues(t, DefaultMonthlyRent, rec.Amount)

	st, err = env.payments.GetStatus(ctx, g.ID, "2024-03")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, st)

	_, err = env.payments.SetStatus(ctx, g.ID, "2024-03", "overdue")
	require.NoError(t, err)
	st, _ = env.payments.GetStatus(ctx, g.ID, "2024-03")
	assert.Equal(t, models.PaymentOverdue, st, "updates overwrite")

	hist, err := env.payments.History(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, hist, 1, "one record per guest and month")
}

func TestSetStatusErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.addGuest(t, "asha", nil)

	_, err := env.payments.SetStatus(ctx, g.ID, "2024-03", "refunded")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	for _, m := range []string{"2024-3", "2024-13", "March", ""} {
		_, err = env.payments.SetStatus(ctx, g.ID, m, "paid")
		assert.ErrorIs(t, err, ErrInvalidMonth, "month %q", m)
	}

	_, err = env.payments.SetStatus(ctx, 404, "2024-03", "paid")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.payments.SetStatus(ctx, 404, "2024-03", "bogus")
	assert.ErrorIs(t, err, ErrInvalidStatus, "input is checked before the guest lookup")

	_, err = env.payments.GetStatus(ctx, g.ID, "24-03")
	assert.ErrorIs(t, err, ErrInvalidMonth)
	_, err = env.payments.GetStatus(ctx, 404, "2024-03")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHistoryIsChronological(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.addGuest(t, "asha", nil)

	empty, err := env.payments.History(ctx, g.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	for _, m := range []string{"2024-03", "2023-12", "2024-01"} {
		_, err := env.payments.SetStatus(ctx, g.ID, m, "paid")
		require.NoError(t, err)
	}
	hist, err := env.payments.History(ctx, g.ID)
	require.NoError(t, err)
	months := []models.Month{}
	for _, r := range hist {
		months = append(months, r.Month)
	}
	assert.Equal(t, []models.Month{"2023-12", "2024-01", "2024-03"}, months)

	_, err = env.payments.History(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSummaryAndMonthStatuses(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.addGuest(t, "asha", room(101))
	b := env.addGuest(t, "ravi", room(102))
	env.addGuest(t, "meera", nil)

	_, err := env.payments.SetStatus(ctx, a.ID, "2024-03", "paid")
	require.NoError(t, err)
	_, err = env.payments.SetStatus(ctx, b.ID, "2024-03", "overdue")
	require.NoError(t, err)
	_, err = env.payments.SetStatus(ctx, b.ID, "2024-02", "paid")
	require.NoError(t, err)

	sum, err := env.payments.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, PaymentSummary{Month: "2024-03", Total: 3, Paid: 1, Pending: 1, Overdue: 1}, sum)

	rows, err := env.payments.MonthStatuses(ctx, "2024-03", "")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.True(t, rows[0].Recorded)
	assert.False(t, rows[2].Recorded)
	assert.Equal(t, models.PaymentPending, rows[2].Status)

	rows, err = env.payments.MonthStatuses(ctx, "2024-03", "Overdue")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, b.ID, rows[0].GuestID)

	rows, err = env.payments.MonthStatuses(ctx, "2024-02", "pending")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = env.payments.MonthStatuses(ctx, "2024-02", "all")
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	_, err = env.payments.MonthStatuses(ctx, "2024-02", "late")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestPaymentsRetainedAfterGuestDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.addGuest(t, "asha", room(101))
	_, err := env.payments.SetStatus(ctx, g.ID, "2024-03", "paid")
	require.NoError(t, err)

	require.NoError(t, env.guests.Delete(ctx, g.ID))

	_, err = env.payments.GetStatus(ctx, g.ID, "2024-03")
	assert.ErrorIs(t, err, ErrNotFound)

	sum, err := env.payments.Summary(ctx)
	require.NoError(t, err)
	assert.Zero(t, sum.Total)

	var stored []models.PaymentRecord
	require.NoError(t, env.store.Read(ctx, func(tx repository.Tx) error {
		var err error
		stored, err = tx.ListPayments(g.ID)
		return err
	}))
	assert.Len(t, stored, 1)
}

func TestMonthReport(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := env.addGuest(t, "asha", room(101))
	env.addGuest(t, "ravi", nil)
	_, err := env.payments.SetStatus(ctx, a.ID, "2024-03", "paid")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, env.payments.MonthReport(ctx, "2024-03", &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Payments 2024-03")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "asha", rows[1][1])
	assert.Equal(t, "paid", rows[1][5])
	assert.Equal(t, "pending", rows[2][5])
	assert.Equal(t, "5000", rows[3][6])

	assert.ErrorIs(t, env.payments.MonthReport(ctx, "nope", &buf), ErrInvalidMonth)
}

func TestSendReminder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	g := env.addGuest(t, "asha", room(101))

	require.NoError(t, env.payments.SendReminder(ctx, g.ID))
	assert.Equal(t, []string{"asha@example.com|2024-03"}, env.mailer.sent)

	entries, err := env.audit.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionPaymentRemind, entries[0].Action)

	assert.ErrorIs(t, env.payments.SendReminder(ctx, 999), ErrNotFound)

	env.mailer.err = errors.New("smtp down")
	err = env.payments.SendReminder(ctx, g.ID)
	assert.ErrorContains(t, err, "smtp down")
}

func TestCustomRent(t *testing.T) {
	env := newTestEnv(t)
	env.payments.rent = 6500
	g := env.addGuest(t, "asha", nil)

	rec, err := env.payments.SetStatus(context.Background(), g.ID, "2024-03", "paid")
	require.NoError(t, err)
	assert.EqualValues(t, 6500, rec.Amount)
}
