// internal/models/user.go
package models

import "fmt"

// User mirrors the registry of platform accounts. The permit service never
// manages credentials; it only consumes role and identity fields resolved by
// the auth middleware.
type User struct {
	BaseModel
	Email     string   `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	FirstName string   `json:"first_name" gorm:"type:varchar(150)"`
	LastName  string   `json:"last_name" gorm:"type:varchar(150)"`
	PhoneNo   string   `json:"phone_no,omitempty" gorm:"type:varchar(15)"`
	Role      UserRole `json:"role" gorm:"type:varchar(20);not null;index"`
	IsActive  bool     `json:"is_active" gorm:"default:true"`

	ManagedSociety *Society `json:"managed_society,omitempty" gorm:"foreignKey:ManagerID"`
}

func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	return fmt.Sprintf("%s %s", u.FirstName, u.LastName)
}
