package worker

import (
	"StudyVault/config"
	"StudyVault/internal/mq"
	"StudyVault/internal/repo"
	"StudyVault/internal/task"
	"StudyVault/model"
	"StudyVault/utils"
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type dlqMessage struct {
	NotificationID uint64    `json:"notification_id"`
	Attempt        int       `json:"attempt"`
	Error          string    `json:"error"`
	FailedAt       time.Time `json:"failed_at"`
}

// RunNotifyWorker consumes notification events from RabbitMQ and delivers
// them by email.
func RunNotifyWorker(ctx context.Context) error {
	client, err := mq.Dial()
	if err != nil {
		return err
	}
	defer client.Close()

	if err := client.DeclareTopology(); err != nil {
		return err
	}

	prefetch := config.AppConfig.RabbitMQPrefetch
	if prefetch <= 0 {
		prefetch = 1
	}
	if err := client.Channel.Qos(prefetch, 0, false); err != nil {
		return err
	}

	deliveries, err := client.Channel.Consume(
		mq.QueueNotify,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	concurrency := config.AppConfig.NotifyWorkerConcurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)

	burst := config.AppConfig.NotifyBurst
	if burst <= 0 {
		burst = 1
	}
	rateLimit := config.AppConfig.NotifyRate
	var limiter *rate.Limiter
	if rateLimit <= 0 {
		limiter = rate.NewLimiter(rate.Inf, burst)
	} else {
		limiter = rate.NewLimiter(rate.Limit(rateLimit), burst)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("notify worker: delivery channel closed")
			}
			sem <- struct{}{}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				handleNotifyMessage(ctx, client, limiter, d)
			}(delivery)
		}
	}
}

func handleNotifyMessage(ctx context.Context, client *mq.Client, limiter *rate.Limiter, delivery amqp.Delivery) {
	var msg task.NotifyMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		log.Printf("notify worker: invalid message: %v", err)
		_ = delivery.Ack(false)
		return
	}

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			_ = delivery.Nack(false, true)
			return
		}
	}

	if err := deliverNotification(msg.NotificationID); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			_ = delivery.Nack(false, true)
			return
		}
		if shouldRetry(err) {
			if err := scheduleRetry(ctx, client, msg, err); err != nil {
				log.Printf("notify worker: retry schedule failed: %v", err)
				_ = delivery.Nack(false, true)
				return
			}
		} else {
			if err := parkInDLQ(ctx, client, msg, err); err != nil {
				log.Printf("notify worker: dlq publish failed: %v", err)
				_ = delivery.Nack(false, true)
				return
			}
		}
	}

	_ = delivery.Ack(false)
}

func deliverNotification(notificationID uint64) error {
	var notification model.Notification
	if err := repo.Db.Where("id = ?", notificationID).First(&notification).Error; err != nil {
		return err
	}
	var user model.User
	if err := repo.Db.Where("id = ?", notification.UserID).First(&user).Error; err != nil {
		return err
	}
	return utils.SendNotificationMail(user.Email, notification.Title, notification.Message)
}

func shouldRetry(err error) bool {
	// A missing notification or recipient never becomes deliverable.
	return !errors.Is(err, gorm.ErrRecordNotFound)
}

func scheduleRetry(ctx context.Context, client *mq.Client, msg task.NotifyMessage, procErr error) error {
	maxRetry := config.AppConfig.NotifyRetryMax
	if maxRetry < 0 {
		maxRetry = 0
	}
	nextAttempt := msg.Attempt + 1
	if maxRetry == 0 || nextAttempt > maxRetry {
		return parkInDLQ(ctx, client, msg, procErr)
	}

	delay := pickRetryDelay(nextAttempt, config.AppConfig.NotifyRetryDelays)
	msg.Attempt = nextAttempt
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return client.PublishRetry(ctx, body, delay)
}

func parkInDLQ(ctx context.Context, client *mq.Client, msg task.NotifyMessage, procErr error) error {
	dlq := dlqMessage{
		NotificationID: msg.NotificationID,
		Attempt:        msg.Attempt,
		Error:          procErr.Error(),
		FailedAt:       time.Now(),
	}
	body, err := json.Marshal(dlq)
	if err != nil {
		return err
	}
	return client.PublishDLQ(ctx, body)
}

func pickRetryDelay(attempt int, delays []time.Duration) time.Duration {
	if len(delays) == 0 {
		return 0
	}
	index := attempt - 1
	if index < 0 {
		index = 0
	}
	if index >= len(delays) {
		return delays[len(delays)-1]
	}
	return delays[index]
}
