package repository

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"pg-backend/models"
)

type paymentKey struct {
	guestID uint
	month   models.Month
}

type memState struct {
	rooms    map[int]models.Room
	guests   map[uint]models.Guest
	payments map[paymentKey]models.PaymentRecord
	admins   map[uint]models.Admin
	sessions map[string]models.Session
	audit    []models.AuditEntry

	guestSeq   uint
	paymentSeq uint
	adminSeq   uint
	auditSeq   uint
}

// fork returns a shallow copy for a writer. Maps stay shared until the
// writer first touches them (memTx.rooms, memTx.guests, ...). audit is
// append-only: a fork appends past the committed length, so an abandoned
// fork never shows.
func (st *memState) fork() *memState {
	c := *st
	return &c
}

func cloneGuest(g models.Guest) models.Guest {
	if g.RoomNumber != nil {
		g.RoomNumber = models.IntPtr(*g.RoomNumber)
	}
	return g
}

// MemoryStore keeps state in process memory. Writers are serialized and work
// on a copy-on-write fork that replaces the live state only when the unit of
// work succeeds.
type MemoryStore struct {
	mu    sync.RWMutex
	state *memState
	now   func() time.Time
}

// NewMemoryStore returns a store with every room of the pool seeded empty.
func NewMemoryStore() *MemoryStore {
	st := &memState{
		rooms:    make(map[int]models.Room),
		guests:   make(map[uint]models.Guest),
		payments: make(map[paymentKey]models.PaymentRecord),
		admins:   make(map[uint]models.Admin),
		sessions: make(map[string]models.Session),
	}
	now := time.Now().UTC()
	for _, r := range models.AllRooms() {
		r.CreatedAt, r.UpdatedAt = now, now
		st.rooms[r.Number] = r
	}
	return &MemoryStore{state: st, now: func() time.Time { return time.Now().UTC() }}
}

func (s *MemoryStore) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.fork()
	if err := fn(&memTx{st: work, now: s.now}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *MemoryStore) Read(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{st: s.state, now: s.now, readOnly: true})
}

type memTx struct {
	st       *memState
	now      func() time.Time
	readOnly bool

	ownRooms, ownGuests, ownPayments, ownAdmins, ownSessions bool
}

func (t *memTx) rooms() map[int]models.Room {
	if !t.ownRooms {
		t.st.rooms, t.ownRooms = maps.Clone(t.st.rooms), true
	}
	return t.st.rooms
}

// Stored guests are never mutated in place, so a shallow map copy is enough.
func (t *memTx) guests() map[uint]models.Guest {
	if !t.ownGuests {
		t.st.guests, t.ownGuests = maps.Clone(t.st.guests), true
	}
	return t.st.guests
}

func (t *memTx) payments() map[paymentKey]models.PaymentRecord {
	if !t.ownPayments {
		t.st.payments, t.ownPayments = maps.Clone(t.st.payments), true
	}
	return t.st.payments
}

func (t *memTx) admins() map[uint]models.Admin {
	if !t.ownAdmins {
		t.st.admins, t.ownAdmins = maps.Clone(t.st.admins), true
	}
	return t.st.admins
}

func (t *memTx) sessions() map[string]models.Session {
	if !t.ownSessions {
		t.st.sessions, t.ownSessions = maps.Clone(t.st.sessions), true
	}
	return t.st.sessions
}

func (t *memTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

func (t *memTx) ListRooms() ([]models.Room, error) {
	rooms := make([]models.Room, 0, len(t.st.rooms))
	for _, r := range t.st.rooms {
		rooms = append(rooms, r)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Number < rooms[j].Number })
	return rooms, nil
}

func (t *memTx) GetRoom(number int, _ bool) (models.Room, error) {
	r, ok := t.st.rooms[number]
	if !ok {
		return models.Room{}, ErrNotFound
	}
	return r, nil
}

func (t *memTx) SetRoomOccupied(number, occupied int) error {
	if err := t.writable(); err != nil {
		return err
	}
	r, ok := t.st.rooms[number]
	if !ok {
		return ErrNotFound
	}
	r.Occupied = occupied
	r.UpdatedAt = t.now()
	t.rooms()[number] = r
	return nil
}

func (t *memTx) CreateGuest(g *models.Guest) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.st.guestSeq++
	now := t.now()
	g.ID = t.st.guestSeq
	g.CreatedAt, g.UpdatedAt = now, now
	t.guests()[g.ID] = cloneGuest(*g)
	return nil
}

func (t *memTx) GetGuest(id uint, _ bool) (models.Guest, error) {
	g, ok := t.st.guests[id]
	if !ok || g.DeletedAt.Valid {
		return models.Guest{}, ErrNotFound
	}
	return cloneGuest(g), nil
}

func (t *memTx) SaveGuest(g *models.Guest) error {
	if err := t.writable(); err != nil {
		return err
	}
	old, ok := t.st.guests[g.ID]
	if !ok || old.DeletedAt.Valid {
		return ErrNotFound
	}
	g.CreatedAt = old.CreatedAt
	g.UpdatedAt = t.now()
	t.guests()[g.ID] = cloneGuest(*g)
	return nil
}

func (t *memTx) DeleteGuest(id uint) error {
	if err := t.writable(); err != nil {
		return err
	}
	g, ok := t.st.guests[id]
	if !ok || g.DeletedAt.Valid {
		return ErrNotFound
	}
	g.DeletedAt = gorm.DeletedAt{Time: t.now(), Valid: true}
	t.guests()[id] = g
	return nil
}

func (t *memTx) ListGuests(filter GuestFilter) ([]models.Guest, error) {
	guests := make([]models.Guest, 0, len(t.st.guests))
	for _, g := range t.st.guests {
		if g.DeletedAt.Valid {
			continue
		}
		if filter.RoomNumber != nil && !g.InRoom(*filter.RoomNumber) {
			continue
		}
		guests = append(guests, cloneGuest(g))
	}
	sort.Slice(guests, func(i, j int) bool { return guests[i].ID < guests[j].ID })
	return guests, nil
}

func (t *memTx) UpsertPayment(p *models.PaymentRecord) error {
	if err := t.writable(); err != nil {
		return err
	}
	key := paymentKey{guestID: p.GuestID, month: p.Month}
	now := t.now()
	if old, ok := t.st.payments[key]; ok {
		p.ID = old.ID
		p.CreatedAt = old.CreatedAt
	} else {
		t.st.paymentSeq++
		p.ID = t.st.paymentSeq
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	t.payments()[key] = *p
	return nil
}

func (t *memTx) GetPayment(guestID uint, month models.Month) (models.PaymentRecord, error) {
	p, ok := t.st.payments[paymentKey{guestID: guestID, month: month}]
	if !ok {
		return models.PaymentRecord{}, ErrNotFound
	}
	return p, nil
}

func (t *memTx) ListPayments(guestID uint) ([]models.PaymentRecord, error) {
	var list []models.PaymentRecord
	for k, p := range t.st.payments {
		if k.guestID == guestID {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Month < list[j].Month })
	return list, nil
}

func (t *memTx) ListPaymentsForMonth(month models.Month) ([]models.PaymentRecord, error) {
	var list []models.PaymentRecord
	for k, p := range t.st.payments {
		if k.month == month {
			list = append(list, p)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].GuestID < list[j].GuestID })
	return list, nil
}

func (t *memTx) CountAdmins() (int64, error) {
	return int64(len(t.st.admins)), nil
}

func (t *memTx) CreateAdmin(a *models.Admin) error {
	if err := t.writable(); err != nil {
		return err
	}
	for _, existing := range t.st.admins {
		if strings.EqualFold(existing.Email, a.Email) {
			return ErrDuplicate
		}
	}
	t.st.adminSeq++
	now := t.now()
	a.ID = t.st.adminSeq
	a.CreatedAt, a.UpdatedAt = now, now
	t.admins()[a.ID] = *a
	return nil
}

func (t *memTx) GetAdminByEmail(email string) (models.Admin, error) {
	for _, a := range t.st.admins {
		if strings.EqualFold(a.Email, email) {
			return a, nil
		}
	}
	return models.Admin{}, ErrNotFound
}

func (t *memTx) CreateSession(s *models.Session) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.sessions[s.Token]; ok {
		return ErrDuplicate
	}
	s.CreatedAt = t.now()
	t.sessions()[s.Token] = *s
	return nil
}

func (t *memTx) GetSession(token string) (models.Session, error) {
	s, ok := t.st.sessions[token]
	if !ok {
		return models.Session{}, ErrNotFound
	}
	return s, nil
}

func (t *memTx) DeleteSession(token string) error {
	if err := t.writable(); err != nil {
		return err
	}
	if _, ok := t.st.sessions[token]; ok {
		delete(t.sessions(), token)
	}
	return nil
}

func (t *memTx) AppendAudit(e *models.AuditEntry) error {
	if err := t.writable(); err != nil {
		return err
	}
	t.st.auditSeq++
	e.ID = t.st.auditSeq
	if e.CreatedAt.IsZero() {
		e.CreatedAt = t.now()
	}
	t.st.audit = append(t.st.audit, *e)
	return nil
}

func (t *memTx) ListAudit(limit int) ([]models.AuditEntry, error) {
	n := len(t.st.audit)
	if limit <= 0 || limit > n {
		limit = n
	}
	list := make([]models.AuditEntry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		list = append(list, t.st.audit[i])
	}
	return list, nil
}
