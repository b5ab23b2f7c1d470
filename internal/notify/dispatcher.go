package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/teamdesk/teamdesk/internal/database"
	"github.com/teamdesk/teamdesk/internal/model"
)

const (
	_defaultListLimit = 50
	_maxListLimit     = 50
)

// Store is the slice of the notifications table the dispatcher needs.
// Implemented by database.NotificationDAO; tests substitute a fake.
type Store interface {
	Get(ctx context.Context, id model.ID) (model.Notification, error)
	Insert(ctx context.Context, dto database.InsertNotificationDTO) (model.ID, error)
	FindByUser(ctx context.Context, user model.ID, opts database.FindOptions) ([]model.Notification, error)
	MarkAllRead(ctx context.Context, user model.ID) (int64, error)
}

// Dispatcher persists notifications and pushes them to live channels. The
// insert is awaited; the push is best-effort and never escalated, the
// persisted row being the durable fallback for channels that missed it.
type Dispatcher struct {
	logger   *slog.Logger
	store    Store
	registry *Registry
}

func NewDispatcher(logger *slog.Logger, store Store, registry *Registry) *Dispatcher {
	return &Dispatcher{
		logger:   logger.With("module", "notify"),
		store:    store,
		registry: registry,
	}
}

// pushEnvelope is the only server→client event this system emits.
type pushEnvelope struct {
	Event        string             `json:"event"`
	Notification model.Notification `json:"notification"`
}

// Dispatch persists one notification for the recipient, then pushes the full
// payload to every channel the recipient has open. Delivery is at-most-once
// per connected channel; a failed push does not roll back the row.
func (d *Dispatcher) Dispatch(ctx context.Context, recipient model.ID, typ, message string, data json.RawMessage) (model.Notification, error) {
	id, err := d.store.Insert(ctx, database.InsertNotificationDTO{
		User:    recipient,
		Type:    typ,
		Message: message,
		Data:    data,
	})
	if err != nil {
		return model.Notification{}, err
	}

	notification, err := d.store.Get(ctx, id)
	if err != nil {
		return model.Notification{}, err
	}

	payload, err := json.Marshal(pushEnvelope{Event: "notification", Notification: notification})
	if err != nil {
		// Row is already durable; skip the push.
		d.logger.Warn("failed to encode push payload", "error", err, "notificationId", id)
		return notification, nil
	}

	for _, ch := range d.registry.ChannelsFor(recipient) {
		if err := ch.Send(payload); err != nil {
			d.logger.Debug("dropped live push", "userId", recipient, "error", err)
		}
	}

	return notification, nil
}

// DispatchChange fans a resolved change out to each recipient in order. Any
// single failure is logged and skipped so one bad recipient does not starve
// the rest; dispatch never fails the mutation that triggered it.
func (d *Dispatcher) DispatchChange(ctx context.Context, change Change, recipients []model.ID) {
	if len(recipients) == 0 {
		return
	}

	data, err := json.Marshal(map[string]any{"entityId": change.Subject, "kind": change.Kind})
	if err != nil {
		data = nil
	}

	for _, recipient := range recipients {
		if _, err := d.Dispatch(ctx, recipient, "info", change.Message, data); err != nil {
			d.logger.Error("failed to dispatch notification",
				"userId", recipient,
				"kind", change.Kind,
				"error", err,
			)
		}
	}
}

// ListForUser returns the recipient's notifications, newest first, capped
// at 50.
func (d *Dispatcher) ListForUser(ctx context.Context, user model.ID, limit int) ([]model.Notification, error) {
	if limit <= 0 {
		limit = _defaultListLimit
	}
	if limit > _maxListLimit {
		limit = _maxListLimit
	}

	return d.store.FindByUser(ctx, user, database.FindOptions{Limit: limit})
}

// MarkAllRead marks every unread notification owned by the user. Idempotent;
// rows never transition back to unread.
func (d *Dispatcher) MarkAllRead(ctx context.Context, user model.ID) error {
	_, err := d.store.MarkAllRead(ctx, user)
	return err
}
