package services

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"pg-backend/models"
	"pg-backend/repository"
)

// RoomView is a room together with its current occupants.
type RoomView struct {
	Number    int            `json:"roomNumber"`
	Capacity  int            `json:"capacity"`
	Occupied  int            `json:"occupied"`
	FreeSlots int            `json:"availableSlots"`
	Occupants []models.Guest `json:"guests"`
}

// RoomService owns the fixed room pool and its occupancy.
type RoomService struct {
	store repository.Store
	log   *zap.Logger
}

func NewRoomService(store repository.Store, log *zap.Logger) *RoomService {
	return &RoomService{store: store, log: log}
}

// ----------------------------------------------------
// Queries
// ----------------------------------------------------

// ListAll returns every room, ascending by number.
func (s *RoomService) ListAll(ctx context.Context) ([]RoomView, error) {
	var views []RoomView
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		var err error
		views, err = roomViews(tx)
		return err
	})
	return views, err
}

// ListAvailable returns the rooms with at least one free slot, ascending by
// number.
func (s *RoomService) ListAvailable(ctx context.Context) ([]RoomView, error) {
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	available := make([]RoomView, 0, len(all))
	for _, v := range all {
		if v.FreeSlots > 0 {
			available = append(available, v)
		}
	}
	return available, nil
}

// OccupantsOf returns the guests currently in room number.
func (s *RoomService) OccupantsOf(ctx context.Context, number int) ([]models.Guest, error) {
	if !models.ValidRoomNumber(number) {
		return nil, fmt.Errorf("room %d: %w", number, ErrNotFound)
	}
	var guests []models.Guest
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		var err error
		guests, err = tx.ListGuests(repository.GuestFilter{RoomNumber: &number})
		return err
	})
	return guests, err
}

func roomViews(tx repository.Tx) ([]RoomView, error) {
	rooms, err := tx.ListRooms()
	if err != nil {
		return nil, err
	}
	guests, err := tx.ListGuests(repository.GuestFilter{})
	if err != nil {
		return nil, err
	}
	byRoom := make(map[int][]models.Guest)
	for _, g := range guests {
		if g.RoomNumber != nil {
			byRoom[*g.RoomNumber] = append(byRoom[*g.RoomNumber], g)
		}
	}
	views := make([]RoomView, 0, len(rooms))
	for _, r := range rooms {
		occupants := byRoom[r.Number]
		if occupants == nil {
			occupants = []models.Guest{}
		}
		views = append(views, RoomView{
			Number:    r.Number,
			Capacity:  r.Capacity,
			Occupied:  r.Occupied,
			FreeSlots: r.FreeSlots(),
			Occupants: occupants,
		})
	}
	return views, nil
}

// ----------------------------------------------------
// Commands
// ----------------------------------------------------

// Assign puts the guest in room number. A guest already in that room is left
// as is; a guest in another room is moved and its old slot released.
func (s *RoomService) Assign(ctx context.Context, number int, guestID uint) error {
	err := s.store.Atomic(ctx, func(tx repository.Tx) error {
		g, err := tx.GetGuest(guestID, true)
		if err != nil {
			return notFound(err, "guest %d", guestID)
		}
		from := g.RoomNumber
		changed, err := placeGuest(tx, &g, &number)
		if err != nil || !changed {
			return err
		}
		if err := tx.SaveGuest(&g); err != nil {
			return err
		}
		return recordAudit(ctx, tx, ActionRoomAssign, uintPtr(g.ID), &number, map[string]any{"from": from})
	})
	if err != nil {
		s.log.Info("RoomService.Assign rejected", zap.Int("room", number), zap.Uint("guest_id", guestID), zap.Error(err))
		return err
	}
	s.log.Info("RoomService.Assign", zap.Int("room", number), zap.Uint("guest_id", guestID))
	return nil
}

// Unassign removes the guest from room number. It is a no-op when the guest
// is not in that room.
func (s *RoomService) Unassign(ctx context.Context, number int, guestID uint) error {
	if !models.ValidRoomNumber(number) {
		return fmt.Errorf("room %d: %w", number, ErrNotFound)
	}
	return s.store.Atomic(ctx, func(tx repository.Tx) error {
		g, err := tx.GetGuest(guestID, true)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !g.InRoom(number) {
			return nil
		}
		if _, err := placeGuest(tx, &g, nil); err != nil {
			return err
		}
		if err := tx.SaveGuest(&g); err != nil {
			return err
		}
		s.log.Info("RoomService.Unassign", zap.Int("room", number), zap.Uint("guest_id", guestID))
		return recordAudit(ctx, tx, ActionRoomUnassign, uintPtr(g.ID), &number, nil)
	})
}

// placeGuest moves g to room target (nil meaning no room) and adjusts both
// rooms' occupancy inside tx. The caller persists g. Rooms are locked in
// ascending order.
func placeGuest(tx repository.Tx, g *models.Guest, target *int) (bool, error) {
	if sameRoom(g.RoomNumber, target) {
		return false, nil
	}
	if target != nil && !models.ValidRoomNumber(*target) {
		return false, fmt.Errorf("room %d: %w", *target, ErrNotFound)
	}

	var numbers []int
	if g.RoomNumber != nil {
		numbers = append(numbers, *g.RoomNumber)
	}
	if target != nil {
		numbers = append(numbers, *target)
	}
	sort.Ints(numbers)

	rooms := make(map[int]models.Room, len(numbers))
	for _, n := range numbers {
		r, err := tx.GetRoom(n, true)
		if err != nil {
			return false, notFound(err, "room %d", n)
		}
		rooms[n] = r
	}

	if target != nil {
		r := rooms[*target]
		if !r.Available() {
			return false, fmt.Errorf("room %d: %w", r.Number, ErrRoomFull)
		}
		if err := tx.SetRoomOccupied(r.Number, r.Occupied+1); err != nil {
			return false, err
		}
	}
	if g.RoomNumber != nil {
		r := rooms[*g.RoomNumber]
		if r.Occupied <= 0 {
			return false, fmt.Errorf("room %d releasing guest %d: %w", r.Number, g.ID, ErrInconsistent)
		}
		if err := tx.SetRoomOccupied(r.Number, r.Occupied-1); err != nil {
			return false, err
		}
	}

	if target == nil {
		g.RoomNumber = nil
	} else {
		g.RoomNumber = models.IntPtr(*target)
	}
	return true, nil
}

func sameRoom(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ----------------------------------------------------
// Invariant check
// ----------------------------------------------------

// Verify checks that every room's occupied count matches the guests pointing
// at it, that no room exceeds its capacity, and that no guest points at an
// unknown room.
func (s *RoomService) Verify(ctx context.Context) error {
	var problems []error
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		rooms, err := tx.ListRooms()
		if err != nil {
			return err
		}
		guests, err := tx.ListGuests(repository.GuestFilter{})
		if err != nil {
			return err
		}
		counts := make(map[int]int, len(rooms))
		for _, g := range guests {
			if g.RoomNumber != nil {
				counts[*g.RoomNumber]++
			}
		}
		for _, r := range rooms {
			if r.Occupied != counts[r.Number] {
				problems = append(problems, fmt.Errorf("room %d: occupied=%d but %d guests point at it", r.Number, r.Occupied, counts[r.Number]))
			}
			if r.Occupied > r.Capacity {
				problems = append(problems, fmt.Errorf("room %d: occupied=%d exceeds capacity %d", r.Number, r.Occupied, r.Capacity))
			}
			delete(counts, r.Number)
		}
		for n, c := range counts {
			problems = append(problems, fmt.Errorf("%d guests point at unknown room %d", c, n))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInconsistent, errors.Join(problems...))
	}
	return nil
}
