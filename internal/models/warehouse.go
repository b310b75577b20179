// internal/models/warehouse.go
package models

// Warehouse registry entry; consumed for the is_active check on submission.
type Warehouse struct {
	BaseModel
	Name          string `json:"name" gorm:"type:varchar(255);not null"`
	County        string `json:"county" gorm:"type:varchar(100)"`
	SubCounty     string `json:"sub_county" gorm:"type:varchar(100)"`
	LicenceNumber string `json:"licence_number" gorm:"type:varchar(50);uniqueIndex"`
	IsActive      bool   `json:"is_active" gorm:"default:true"`
}
