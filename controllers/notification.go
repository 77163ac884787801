package controllers

import (
	"net/http"
	"time"

	"blue-carbon-api/config"
	"blue-carbon-api/models"

	"github.com/gin-gonic/gin"
)

// GetMyNotifications lists the calling actor's notifications, newest first.
func GetMyNotifications(c *gin.Context) {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return
	}
	role := c.GetString("role")

	var notifications []models.Notification
	if err := config.DB.
		Where("recipient_id = ? AND recipient_role = ?", actorID, role).
		Order("create_at DESC").
		Limit(100).
		Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch notifications"})
		return
	}

	var unread int64
	config.DB.Model(&models.Notification{}).
		Where("recipient_id = ? AND recipient_role = ? AND is_read = false", actorID, role).
		Count(&unread)

	c.JSON(http.StatusOK, gin.H{"success": true, "unread": unread, "data": notifications})
}

// MarkNotificationRead marks one of the caller's notifications as read.
func MarkNotificationRead(c *gin.Context) {
	actorID, ok := actorIDFromContext(c)
	if !ok {
		return
	}
	role := c.GetString("role")

	now := time.Now()
	res := config.DB.Model(&models.Notification{}).
		Where("notification_id = ? AND recipient_id = ? AND recipient_role = ?", c.Param("id"), actorID, role).
		Updates(map[string]interface{}{"is_read": true, "update_at": &now})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update notification"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Notification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Notification marked as read"})
}
