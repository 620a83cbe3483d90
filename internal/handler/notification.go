package handler

import (
	"StudyVault/internal/dto"
	"StudyVault/internal/service"
	"StudyVault/utils"

	"github.com/gin-gonic/gin"
)

// ListNotifications pages through the caller's notifications.
func ListNotifications(c *gin.Context) {
	var req dto.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.FailValidation(c, err.Error())
		return
	}
	userID, _ := utils.CurrentUser(c)
	notifications, total, err := service.ListNotifications(userID, req.Status, req.Page, req.PageSize)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessPage(c, notifications, utils.NewPagination(req.Page, req.PageSize, total))
}

// UnreadNotificationCount returns the caller's unread badge counter.
func UnreadNotificationCount(c *gin.Context) {
	userID, _ := utils.CurrentUser(c)
	count, err := service.UnreadCount(userID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.Success(c, gin.H{"unread": count})
}

// MarkNotificationRead marks one notification as read.
func MarkNotificationRead(c *gin.Context) {
	notificationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	userID, _ := utils.CurrentUser(c)
	if err := service.MarkNotificationRead(notificationID, userID); err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessMsg(c, nil, "notification marked read")
}

// MarkAllNotificationsRead marks every unread notification of the caller.
func MarkAllNotificationsRead(c *gin.Context) {
	userID, _ := utils.CurrentUser(c)
	updated, err := service.MarkAllNotificationsRead(userID)
	if err != nil {
		utils.Fail(c, err)
		return
	}
	utils.SuccessMsg(c, gin.H{"updated": updated}, "notifications marked read")
}
