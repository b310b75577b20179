// internal/models/notification.go
package models

import "github.com/google/uuid"

type Notification struct {
	BaseModel
	RecipientID uuid.UUID        `json:"recipient_id" gorm:"type:uuid;not null;index"`
	Type        NotificationType `json:"type" gorm:"type:varchar(30);not null"`
	Message     string           `json:"message" gorm:"type:text;not null"`
	Link        string           `json:"link" gorm:"type:varchar(255)"`
	IsRead      bool             `json:"is_read" gorm:"default:false"`

	Recipient User `json:"recipient,omitempty" gorm:"foreignKey:RecipientID"`
}
