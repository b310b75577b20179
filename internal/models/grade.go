// internal/models/grade.go
package models

// CoffeeGrade is shared reference data mapping a grade label to the weight of
// one bag in kilograms. A grade referenced by any quantity line must not be
// deleted; the service rejects the delete instead of cascading.
type CoffeeGrade struct {
	BaseModel
	Grade        string  `json:"grade" gorm:"type:varchar(30);uniqueIndex;not null"`
	WeightPerBag float64 `json:"weight_per_bag" gorm:"type:decimal(5,2);not null"`
	Description  string  `json:"description" gorm:"type:text"`
}
