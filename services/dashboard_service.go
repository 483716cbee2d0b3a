package services

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"pg-backend/models"
	"pg-backend/repository"
)

const recentGuestsLimit = 5

// DashboardStats is the dashboard headline, read from one snapshot.
type DashboardStats struct {
	TotalGuests     int            `json:"totalGuests"`
	TotalRooms      int            `json:"totalRooms"`
	OccupiedRooms   int            `json:"occupiedRooms"`
	AvailableRooms  int            `json:"availableRooms"`
	FreeSlots       int            `json:"freeSlots"`
	PendingPayments int            `json:"pendingPayments"`
	CurrentMonth    models.Month   `json:"currentMonth"`
	RecentGuests    []models.Guest `json:"recentGuests"`
}

type DashboardService struct {
	store repository.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewDashboardService(store repository.Store, log *zap.Logger) *DashboardService {
	return &DashboardService{store: store, log: log, now: time.Now}
}

// Stats counts rooms with at least one occupant as occupied and rooms with a
// free slot as available; a half-full room is both.
func (s *DashboardService) Stats(ctx context.Context) (DashboardStats, error) {
	month := models.MonthOf(s.now())
	st := DashboardStats{CurrentMonth: month, RecentGuests: []models.Guest{}}
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		rooms, err := tx.ListRooms()
		if err != nil {
			return err
		}
		guests, err := tx.ListGuests(repository.GuestFilter{})
		if err != nil {
			return err
		}
		records, err := tx.ListPaymentsForMonth(month)
		if err != nil {
			return err
		}

		st.TotalRooms = len(rooms)
		for _, r := range rooms {
			if r.Occupied > 0 {
				st.OccupiedRooms++
			}
			if r.Available() {
				st.AvailableRooms++
			}
			st.FreeSlots += r.FreeSlots()
		}

		status := make(map[uint]models.PaymentStatus, len(records))
		for _, rec := range records {
			status[rec.GuestID] = rec.Status
		}
		st.TotalGuests = len(guests)
		for _, g := range guests {
			if sst, ok := status[g.ID]; !ok || sst == models.PaymentPending {
				st.PendingPayments++
			}
		}

		sort.SliceStable(guests, func(i, j int) bool {
			ai, aj := time.Time(guests[i].AdmitDate), time.Time(guests[j].AdmitDate)
			if !ai.Equal(aj) {
				return ai.After(aj)
			}
			return guests[i].ID > guests[j].ID
		})
		if len(guests) > recentGuestsLimit {
			guests = guests[:recentGuestsLimit]
		}
		st.RecentGuests = append(st.RecentGuests, guests...)
		return nil
	})
	if err != nil {
		s.log.Error("DashboardService.Stats failed", zap.Error(err))
	}
	return st, err
}
