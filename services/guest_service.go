package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"pg-backend/models"
	"pg-backend/repository"
)

// GuestInput is the editable part of a guest. A nil RoomNumber means the
// guest is not in any room; an empty AdmitDate means today on Add and
// "unchanged" on Update.
type GuestInput struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,phone10"`
	RoomNumber *int   `json:"roomNumber"`
	AdmitDate  string `json:"admitDate" validate:"omitempty,datetime=2006-01-02"`
}

func (in *GuestInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.AdmitDate = strings.TrimSpace(in.AdmitDate)
}

// Roommate is another occupant of a guest's room.
type Roommate struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// GuestDetails is a guest with the data its detail screen shows.
type GuestDetails struct {
	Guest         models.Guest         `json:"guest"`
	Roommates     []Roommate           `json:"roommates"`
	CurrentMonth  models.Month         `json:"currentMonth"`
	PaymentStatus models.PaymentStatus `json:"paymentStatus"`
}

type GuestService struct {
	store repository.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewGuestService(store repository.Store, log *zap.Logger) *GuestService {
	return &GuestService{store: store, log: log, now: time.Now}
}

// ----------------------------------------------------
// ADD
// ----------------------------------------------------

// Add validates in, creates the guest and assigns it to in.RoomNumber in one
// transaction.
func (s *GuestService) Add(ctx context.Context, in GuestInput) (models.Guest, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return models.Guest{}, err
	}

	admit := s.today()
	if in.AdmitDate != "" {
		admit = mustParseDate(in.AdmitDate)
	}
	g := models.Guest{
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		AdmitDate: admit,
	}

	err := s.store.Atomic(ctx, func(tx repository.Tx) error {
		if _, err := placeGuest(tx, &g, in.RoomNumber); err != nil {
			return err
		}
		if err := tx.CreateGuest(&g); err != nil {
			return err
		}
		return recordAudit(ctx, tx, ActionGuestAdd, uintPtr(g.ID), g.RoomNumber, map[string]any{"name": g.Name})
	})
	if err != nil {
		s.log.Info("GuestService.Add rejected", zap.Error(err))
		return models.Guest{}, err
	}
	s.log.Info("GuestService.Add", zap.Uint("guest_id", g.ID), zap.Intp("room", g.RoomNumber))
	return g, nil
}

// ----------------------------------------------------
// UPDATE
// ----------------------------------------------------

// Update replaces the guest's fields. A room change is applied together with
// the field update, or not at all.
func (s *GuestService) Update(ctx context.Context, id uint, in GuestInput) (models.Guest, error) {
	in.normalize()
	if err := validateStruct(in); err != nil {
		return models.Guest{}, err
	}

	var g models.Guest
	err := s.store.Atomic(ctx, func(tx repository.Tx) error {
		var err error
		g, err = tx.GetGuest(id, true)
		if err != nil {
			return notFound(err, "guest %d", id)
		}
		from := g.RoomNumber
		if _, err := placeGuest(tx, &g, in.RoomNumber); err != nil {
			return err
		}
		g.Name, g.Email, g.Phone = in.Name, in.Email, in.Phone
		if in.AdmitDate != "" {
			g.AdmitDate = mustParseDate(in.AdmitDate)
		}
		if err := tx.SaveGuest(&g); err != nil {
			return err
		}
		return recordAudit(ctx, tx, ActionGuestUpdate, uintPtr(g.ID), g.RoomNumber, map[string]any{"fromRoom": from})
	})
	if err != nil {
		s.log.Info("GuestService.Update rejected", zap.Uint("guest_id", id), zap.Error(err))
		return models.Guest{}, err
	}
	s.log.Info("GuestService.Update", zap.Uint("guest_id", id), zap.Intp("room", g.RoomNumber))
	return g, nil
}

// ----------------------------------------------------
// DELETE
// ----------------------------------------------------

// Delete releases the guest's room slot and removes the guest. Payment
// records are retained.
func (s *GuestService) Delete(ctx context.Context, id uint) error {
	err := s.store.Atomic(ctx, func(tx repository.Tx) error {
		g, err := tx.GetGuest(id, true)
		if err != nil {
			return notFound(err, "guest %d", id)
		}
		from := g.RoomNumber
		changed, err := placeGuest(tx, &g, nil)
		if err != nil {
			return err
		}
		if changed {
			if err := tx.SaveGuest(&g); err != nil {
				return err
			}
		}
		if err := tx.DeleteGuest(id); err != nil {
			return err
		}
		return recordAudit(ctx, tx, ActionGuestDelete, uintPtr(id), from, map[string]any{"name": g.Name})
	})
	if err != nil {
		s.log.Info("GuestService.Delete rejected", zap.Uint("guest_id", id), zap.Error(err))
		return err
	}
	s.log.Info("GuestService.Delete", zap.Uint("guest_id", id))
	return nil
}

// ----------------------------------------------------
// GET / LIST
// ----------------------------------------------------

func (s *GuestService) Get(ctx context.Context, id uint) (models.Guest, error) {
	var g models.Guest
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		var err error
		g, err = tx.GetGuest(id, false)
		return notFound(err, "guest %d", id)
	})
	return g, err
}

// List returns guests whose name, email or room number contains query,
// case-insensitively, ordered by id.
func (s *GuestService) List(ctx context.Context, query string) ([]models.Guest, error) {
	var guests []models.Guest
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		var err error
		guests, err = tx.ListGuests(repository.GuestFilter{})
		return err
	})
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return guests, nil
	}
	matched := make([]models.Guest, 0, len(guests))
	for _, g := range guests {
		if guestMatches(g, q) {
			matched = append(matched, g)
		}
	}
	return matched, nil
}

func guestMatches(g models.Guest, q string) bool {
	if strings.Contains(strings.ToLower(g.Name), q) || strings.Contains(strings.ToLower(g.Email), q) {
		return true
	}
	return g.RoomNumber != nil && strings.Contains(strconv.Itoa(*g.RoomNumber), q)
}

// Details returns the guest, its roommates and its current-month payment
// status, all read from one snapshot.
func (s *GuestService) Details(ctx context.Context, id uint) (GuestDetails, error) {
	month := models.MonthOf(s.now())
	d := GuestDetails{CurrentMonth: month, PaymentStatus: models.PaymentPending, Roommates: []Roommate{}}
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		g, err := tx.GetGuest(id, false)
		if err != nil {
			return notFound(err, "guest %d", id)
		}
		d.Guest = g

		if g.RoomNumber != nil {
			occupants, err := tx.ListGuests(repository.GuestFilter{RoomNumber: g.RoomNumber})
			if err != nil {
				return err
			}
			for _, o := range occupants {
				if o.ID != g.ID {
					d.Roommates = append(d.Roommates, Roommate{ID: o.ID, Name: o.Name, Phone: o.Phone})
				}
			}
		}

		status, err := statusIn(tx, id, month)
		if err != nil {
			return err
		}
		d.PaymentStatus = status
		return nil
	})
	return d, err
}

func (s *GuestService) today() datatypes.Date {
	y, m, d := s.now().Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// mustParseDate parses a date already checked by the datetime validator.
func mustParseDate(raw string) datatypes.Date {
	t, err := time.Parse(models.DateLayout, raw)
	if err != nil {
		panic(fmt.Sprintf("unvalidated admit date %q: %v", raw, err))
	}
	return datatypes.Date(t)
}
