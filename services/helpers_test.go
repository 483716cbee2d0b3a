package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pg-backend/models"
	"pg-backend/repository"
)

var fixedNow = time.Date(2024, time.March, 15, 9, 30, 0, 0, time.UTC)

type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) SendPaymentReminder(to, _ string, month models.Month, _ int64) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to+"|"+month.String())
	return nil
}

type testEnv struct {
	store    *repository.MemoryStore
	rooms    *RoomService
	guests   *GuestService
	payments *PaymentService
	dash     *DashboardService
	audit    *AuditService
	auth     *AuthService
	mailer   *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zap.NewNop()
	store := repository.NewMemoryStore()
	mailer := &fakeMailer{}
	env := &testEnv{
		store:    store,
		rooms:    NewRoomService(store, log),
		guests:   NewGuestService(store, log),
		payments: NewPaymentService(store, log, 0, mailer),
		dash:     NewDashboardService(store, log),
		audit:    NewAuditService(store, log),
		auth:     NewAuthService(store, log, time.Hour),
		mailer:   mailer,
	}
	clock := func() time.Time { return fixedNow }
	env.guests.now = clock
	env.payments.now = clock
	env.dash.now = clock
	env.auth.now = clock
	return env
}

// requireConsistent asserts the room/guest invariant over the whole store.
func (e *testEnv) requireConsistent(t *testing.T) {
	t.Helper()
	require.NoError(t, e.rooms.Verify(context.Background()))
}

func (e *testEnv) addGuest(t *testing.T, name string, room *int) models.Guest {
	t.Helper()
	g, err := e.guests.Add(context.Background(), validInput(name, room))
	require.NoError(t, err)
	e.requireConsistent(t)
	return g
}

func validInput(name string, room *int) GuestInput {
	return GuestInput{
		Name:       name,
		Email:      name + "@example.com",
		Phone:      "9876543210",
		RoomNumber: room,
	}
}

func room(n int) *int { return models.IntPtr(n) }
