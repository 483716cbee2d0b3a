package services

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"pg-backend/models"
	"pg-backend/repository"
)

type actorKey struct{}

// SystemActor is recorded when no caller identity is attached to the context.
const SystemActor = "system"

// WithActor attaches the caller identity used for audit entries.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the caller identity attached by WithActor.
func ActorFrom(ctx context.Context) string {
	if a, ok := ctx.Value(actorKey{}).(string); ok && a != "" {
		return a
	}
	return SystemActor
}

// Audit actions.
const (
	ActionGuestAdd      = "guest.add"
	ActionGuestUpdate   = "guest.update"
	ActionGuestDelete   = "guest.delete"
	ActionRoomAssign    = "room.assign"
	ActionRoomUnassign  = "room.unassign"
	ActionPaymentSet    = "payment.set"
	ActionPaymentRemind = "payment.reminder"
)

const (
	defaultAuditListSize = 50
	maxAuditListSize     = 500
)

// recordAudit appends an entry inside the caller's transaction so the entry
// commits or rolls back together with the change it describes.
func recordAudit(ctx context.Context, tx repository.Tx, action string, guestID *uint, room *int, details any) error {
	entry := models.AuditEntry{
		Actor:      ActorFrom(ctx),
		Action:     action,
		GuestID:    guestID,
		RoomNumber: room,
	}
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			return err
		}
		entry.Details = datatypes.JSON(b)
	}
	return tx.AppendAudit(&entry)
}

func uintPtr(v uint) *uint { return &v }

// AuditService reads the audit trail.
type AuditService struct {
	store repository.Store
	log   *zap.Logger
}

func NewAuditService(store repository.Store, log *zap.Logger) *AuditService {
	return &AuditService{store: store, log: log}
}

// List returns the newest entries first. limit is clamped to [1, 500] and
// defaults to 50.
func (s *AuditService) List(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 {
		limit = defaultAuditListSize
	}
	if limit > maxAuditListSize {
		limit = maxAuditListSize
	}
	var list []models.AuditEntry
	err := s.store.Read(ctx, func(tx repository.Tx) error {
		var err error
		list, err = tx.ListAudit(limit)
		return err
	})
	if err != nil {
		s.log.Error("AuditService.List failed", zap.Error(err))
		return nil, err
	}
	return list, nil
}
