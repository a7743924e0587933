package notify

import (
	"context"

	"github.com/dan13ram/xbridge-engine/models"
	log "github.com/sirupsen/logrus"
)

// Channel delivers one notification. target is the channel config target,
// which may be empty for channels that do not need one.
type Channel interface {
	Deliver(ctx context.Context, target string, notification models.Notification) error
}

type ChannelFunc func(ctx context.Context, target string, notification models.Notification) error

func (f ChannelFunc) Deliver(ctx context.Context, target string, notification models.Notification) error {
	return f(ctx, target, notification)
}

// LogChannel writes notifications to the process log.
type LogChannel struct{}

func (LogChannel) Deliver(_ context.Context, _ string, n models.Notification) error {
	log.WithFields(log.Fields{
		"notification_id": n.Id,
		"recipient":       n.Recipient,
		"transaction_id":  n.Transaction.Id,
		"event":           n.EventType,
	}).Info("[NOTIFY] ", n.Title, ": ", n.Message)
	return nil
}
