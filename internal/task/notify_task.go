package task

import (
	"StudyVault/internal/mq"
	"context"
	"encoding/json"
)

// NotifyMessage is the payload sent to the notification worker.
type NotifyMessage struct {
	NotificationID uint64 `json:"notification_id"`
	Attempt        int    `json:"attempt"`
}

// EnqueueNotification publishes a delivery job for a stored notification.
// Failures here are the caller's to log; the state change that produced the
// notification must never be rolled back because of them.
func EnqueueNotification(ctx context.Context, notificationID uint64) error {
	msg := NotifyMessage{
		NotificationID: notificationID,
		Attempt:        0,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	publisher, err := mq.GetPublisher()
	if err != nil {
		return err
	}
	return publisher.PublishNotify(ctx, body)
}
