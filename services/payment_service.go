package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"pg-backend/models"
	"pg-backend/reports"
	"pg-backend/repository"
)

// DefaultMonthlyRent is the single rent tier, in rupees.
const DefaultMonthlyRent int64 = 5000

// PaymentSummary counts guests by current-month status.
type PaymentSummary struct {
	Month   models.Month `json:"month"`
	Total   int          `json:"total"`
	Paid    int          `json:"paid"`
	Pending int          `json:"pending"`
	Overdue int          `json:"overdue"`
}

func (s *PaymentSummary) add(status models.PaymentStatus) {
	s.Total++
	switch status {
	case models.PaymentPaid:
		s.Paid++
	case models.PaymentOverdue:
		s.Overdue++
	default:
		s.Pending++
	}
}

// GuestPayment is one guest's status for one month.
type GuestPayment struct {
	GuestID    uint                 `json:"guestId"`
	Name       string               `json:"name"`
	Email      string               `json:"email"`
	Phone      string               `json:"phone"`
	RoomNumber *int                 `json:"roomNumber"`
	Month      models.Month         `json:"month"`
	Status     models.PaymentStatus `json:"status"`
	Amount     int64                `json:"amount"`
	// Recorded is false when no status was ever set and Pending is implied.
	Recorded bool `json:"recorded"`
}

// Mailer delivers payment reminders.
type Mailer interface {
	SendPaymentReminder(to, name string, month models.Month, amount int64) error
}

type PaymentService struct {
	store  repository.Store
	log    *zap.Logger
	rent   int64
	mailer Mailer
	now    func() time.Time
}

func NewPaymentService(store repository.Store, log *zap.Logger, rent int64, mailer Mailer) *PaymentService {
	if rent <= 0 {
		rent = DefaultMonthlyRent
	}
	return &PaymentService{store: store, log: log, rent: rent, mailer: mailer, now: time.Now}
}

// CurrentMonth is the calendar month used for "current" statuses.
func (s *PaymentService) CurrentMonth() models.Month {
	return models.MonthOf(s.now())
}

func parseMonth(raw string) (models.Month, error) {
	m, err := models.ParseMonth(raw)
	if err != nil {
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidMonth)
	}
	return m, nil
}

func parseStatus(raw string) (models.PaymentStatus, error) {
	st, ok := models.ParsePaymentStatus(raw)
	if !ok {
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidStatus)
	}
	return st, nil
}

// statusIn reads the status of (guestID, month), defaulting to Pending.
func statusIn(tx repository.Tx, guestID uint, month models.Month) (models.PaymentStatus, error) {
	p, err := tx.GetPayment(guestID, month)
	if errors.Is(err, repository.ErrNotFound) {
		return models.PaymentPending, nil
	}
	if err != nil {
		return "", err
	}
	return p.Status, nil
}

// ----------------------------------------------------
// Ledger
// ----------------------------------------------------

// SetStatus creates or overwrites the record for (guestID, month).
func (s *PaymentService) SetStatus(ctx context.Context, guestID uint, month, status string) (models.PaymentRecord, error) {
	st, err := parseStatus(status)
	if err != nil {
		return models.PaymentRecord{}, err
	}
	m, err := parseMonth(month)
	if err != nil {
		return models.PaymentRecord{}, err
	}

	rec := models.PaymentRecord{
		GuestID:   guestID,
		Month:     m,
		Status:    st,
		Amount:    s.rent,
		UpdatedBy: ActorFrom(ctx),
	}
	err = s.store.Atomic(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetGuest(guestID, false); err != nil {
			return notFound(err, "guest %d", guestID)
		}
		if err := tx.UpsertPayment(&rec); err != nil {
			return err
		}
		return recordAudit(ctx, tx, ActionPaymentSet, uintPtr(guestID), nil,
			map[string]any{"month": m, "status": st})
	})
	if err != nil {
		return models.PaymentRecord{}, err
	}
	s.log.Info("PaymentService.SetStatus",
		zap.Uint("guest_id", guestID), zap.String("month", m.String()), zap.String("status", string(st)))
	return rec, nil
}

// GetStatus returns the guest's status for month, Pending when never set.
func (s *PaymentService) GetStatus(ctx context.Context, guestID uint, month string) (models.PaymentStatus, error) {
	m, err := parseMonth(month)
	if err != nil {
		return "", err
	}
	var st models.PaymentStatus
	err = s.store.Read(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetGuest(guestID, false); err != nil {
			return notFound(err, "guest %d", guestID)
		}
		var err error
		st, err = statusIn(tx, guestID, m)
		return err
	})
	return st, err
}

// History returns the guest's records in chronological order.
func (s *PaymentService) History(ctx context.Context, guestID uint) ([]models.PaymentRecord, error) {
	var list []models.PaymentRecord
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetGuest(guestID, false); err != nil {
			return notFound(err, "guest %d", guestID)
		}
		var err error
		list, err = tx.ListPayments(guestID)
		return err
	})
	if list == nil && err == nil {
		list = []models.PaymentRecord{}
	}
	return list, err
}

// Summary counts every live guest by current-month status.
func (s *PaymentService) Summary(ctx context.Context) (PaymentSummary, error) {
	month := s.CurrentMonth()
	sum := PaymentSummary{Month: month}
	rows, err := s.monthRows(ctx, month)
	if err != nil {
		return sum, err
	}
	for _, r := range rows {
		sum.add(r.Status)
	}
	return sum, nil
}

// MonthStatuses lists every live guest's status for month. An empty or "all"
// status returns every guest.
func (s *PaymentService) MonthStatuses(ctx context.Context, month, status string) ([]GuestPayment, error) {
	m, err := parseMonth(month)
	if err != nil {
		return nil, err
	}
	var want models.PaymentStatus
	if status = strings.TrimSpace(status); status != "" && !strings.EqualFold(status, "all") {
		if want, err = parseStatus(status); err != nil {
			return nil, err
		}
	}

	rows, err := s.monthRows(ctx, m)
	if err != nil {
		return nil, err
	}
	if want == "" {
		return rows, nil
	}
	filtered := make([]GuestPayment, 0, len(rows))
	for _, r := range rows {
		if r.Status == want {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (s *PaymentService) monthRows(ctx context.Context, month models.Month) ([]GuestPayment, error) {
	var rows []GuestPayment
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		guests, err := tx.ListGuests(repository.GuestFilter{})
		if err != nil {
			return err
		}
		records, err := tx.ListPaymentsForMonth(month)
		if err != nil {
			return err
		}
		byGuest := make(map[uint]models.PaymentRecord, len(records))
		for _, r := range records {
			byGuest[r.GuestID] = r
		}
		rows = make([]GuestPayment, 0, len(guests))
		for _, g := range guests {
			row := GuestPayment{
				GuestID:    g.ID,
				Name:       g.Name,
				Email:      g.Email,
				Phone:      g.Phone,
				RoomNumber: g.RoomNumber,
				Month:      month,
				Status:     models.PaymentPending,
				Amount:     s.rent,
			}
			if rec, ok := byGuest[g.ID]; ok {
				row.Status, row.Amount, row.Recorded = rec.Status, rec.Amount, true
			}
			rows = append(rows, row)
		}
		return nil
	})
	return rows, err
}

// ----------------------------------------------------
// Report & reminders
// ----------------------------------------------------

// MonthReport writes the month's payment sheet as an xlsx workbook to w.
func (s *PaymentService) MonthReport(ctx context.Context, month string, w io.Writer) error {
	m, err := parseMonth(month)
	if err != nil {
		return err
	}
	rows, err := s.monthRows(ctx, m)
	if err != nil {
		return err
	}
	out := make([]reports.PaymentRow, 0, len(rows))
	for _, r := range rows {
		room := 0
		if r.RoomNumber != nil {
			room = *r.RoomNumber
		}
		out = append(out, reports.PaymentRow{
			GuestID:    r.GuestID,
			Name:       r.Name,
			Email:      r.Email,
			Phone:      r.Phone,
			RoomNumber: room,
			Status:     string(r.Status),
			Amount:     r.Amount,
		})
	}
	return reports.WritePayments(w, m.String(), out)
}

// SendReminder emails the guest about the current month's rent.
func (s *PaymentService) SendReminder(ctx context.Context, guestID uint) error {
	month := s.CurrentMonth()
	var g models.Guest
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		var err error
		g, err = tx.GetGuest(guestID, false)
		return notFound(err, "guest %d", guestID)
	})
	if err != nil {
		return err
	}
	if err := s.mailer.SendPaymentReminder(g.Email, g.Name, month, s.rent); err != nil {
		s.log.Warn("PaymentService.SendReminder failed", zap.Uint("guest_id", guestID), zap.Error(err))
		return fmt.Errorf("send reminder: %w", err)
	}
	return s.store.Atomic(ctx, func(tx repository.Tx) error {
		return recordAudit(ctx, tx, ActionPaymentRemind, uintPtr(guestID), g.RoomNumber, map[string]any{"month": month})
	})
}
