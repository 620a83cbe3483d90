package service

import (
	"StudyVault/internal/apperr"
	"StudyVault/internal/repo"
	"StudyVault/internal/task"
	"StudyVault/model"
	"context"
	"log"
)

// NotifyUser records an in-app notification and enqueues email delivery.
// Notification is a side channel: failures are logged and never propagate
// into the state change that triggered them.
func NotifyUser(userID uint64, notifyType, title, message, relatedEntity string, relatedID uint64) {
	notification := &model.Notification{
		UserID:        userID,
		Type:          notifyType,
		Title:         title,
		Message:       message,
		RelatedEntity: relatedEntity,
		RelatedID:     relatedID,
		Status:        model.NotificationUnread,
	}
	if err := repo.Db.Create(notification).Error; err != nil {
		log.Printf("create notification for user %d failed: %v", userID, err)
		return
	}
	if err := task.EnqueueNotification(context.Background(), notification.ID); err != nil {
		log.Printf("enqueue notification %d failed: %v", notification.ID, err)
	}
}

// ListNotifications pages through a user's notifications, newest first.
func ListNotifications(userID uint64, status string, page, pageSize int) ([]model.Notification, int64, error) {
	page, pageSize = normalizePage(page, pageSize)

	query := repo.Db.Model(&model.Notification{}).Where("user_id = ?", userID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var notifications []model.Notification
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&notifications).Error; err != nil {
		return nil, 0, err
	}
	return notifications, total, nil
}

// UnreadCount returns the number of unread notifications for a user.
func UnreadCount(userID uint64) (int64, error) {
	var count int64
	err := repo.Db.Model(&model.Notification{}).
		Where("user_id = ? AND status = ?", userID, model.NotificationUnread).
		Count(&count).Error
	return count, err
}

// MarkNotificationRead marks one of the caller's notifications as read.
func MarkNotificationRead(notificationID, userID uint64) error {
	res := repo.Db.Model(&model.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("status", model.NotificationRead)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.New(apperr.NotFound, "notification not found")
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification of the caller.
func MarkAllNotificationsRead(userID uint64) (int64, error) {
	res := repo.Db.Model(&model.Notification{}).
		Where("user_id = ? AND status = ?", userID, model.NotificationUnread).
		Update("status", model.NotificationRead)
	return res.RowsAffected, res.Error
}
