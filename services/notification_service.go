package services

import (
	"fmt"
	"log"
	"time"

	"blue-carbon-api/config"
	"blue-carbon-api/models"

	"gorm.io/gorm"
)

// NotificationService records in-app notifications and mirrors them to
// email. Delivery is fire-and-forget: failures are logged, never returned.
type NotificationService struct {
	db *gorm.DB
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(db *gorm.DB) *NotificationService {
	if db == nil {
		db = config.DB
	}
	return &NotificationService{db: db}
}

// Notify stores a notification row and, when an email address is given,
// sends a copy asynchronously.
func (s *NotificationService) Notify(recipientID uint, role, title, message, notifType string, submissionID *string, email string) {
	notification := models.Notification{
		RecipientID:         recipientID,
		RecipientRole:       role,
		Title:               title,
		Message:             message,
		Type:                notifType,
		RelatedSubmissionID: submissionID,
		CreateAt:            time.Now(),
	}
	if err := s.db.Create(&notification).Error; err != nil {
		log.Printf("Warning: failed to store notification for %s %d: %v", role, recipientID, err)
	}

	if email == "" {
		return
	}
	go func() {
		html := fmt.Sprintf("<p>%s</p>", message)
		if err := config.SendMail([]string{email}, title, html); err != nil {
			log.Printf("Warning: failed to send notification email to %s: %v", email, err)
		}
	}()
}

// NotifyStatusChange is the common submission-lifecycle notification.
func (s *NotificationService) NotifyStatusChange(sub *models.Submission, recipientID uint, role, email, detail string) {
	id := sub.SubmissionID
	title := fmt.Sprintf("Submission %s is now %s", sub.SubmissionID, sub.Status)
	s.Notify(recipientID, role, title, detail, "info", &id, email)
}
