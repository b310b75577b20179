// internal/models/society.go
package models

import "github.com/google/uuid"

// Society and Factory come from the organizational registry. The permit
// service reads them to validate submissions and never mutates them.
type Society struct {
	BaseModel
	Name      string    `json:"name" gorm:"type:varchar(255);uniqueIndex;not null"`
	ManagerID uuid.UUID `json:"manager_id" gorm:"type:uuid;uniqueIndex;not null"`
	County    string    `json:"county" gorm:"type:varchar(100)"`
	SubCounty string    `json:"sub_county" gorm:"type:varchar(100)"`
	IsApproved bool     `json:"is_approved" gorm:"default:false"`

	Manager   User      `json:"manager,omitempty" gorm:"foreignKey:ManagerID"`
	Factories []Factory `json:"factories,omitempty" gorm:"foreignKey:SocietyID"`
}

type Factory struct {
	BaseModel
	SocietyID uuid.UUID `json:"society_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	County    string    `json:"county" gorm:"type:varchar(100)"`
	SubCounty string    `json:"sub_county" gorm:"type:varchar(100)"`
	IsActive  bool      `json:"is_active" gorm:"default:true"`

	Society Society `json:"society,omitempty" gorm:"foreignKey:SocietyID"`
}
