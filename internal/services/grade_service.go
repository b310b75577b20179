// internal/services/grade_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcgboard/permits-backend/internal/models"
	"github.com/mcgboard/permits-backend/internal/utils"
)

type GradeService struct {
	db *gorm.DB
}

func NewGradeService(db *gorm.DB) *GradeService {
	return &GradeService{db: db}
}

type CreateGradeRequest struct {
	Grade        string  `json:"grade" validate:"required,max=30"`
	WeightPerBag float64 `json:"weight_per_bag" validate:"required,gt=0"`
	Description  string  `json:"description" validate:"max=500"`
}

type UpdateGradeRequest struct {
	Grade        *string  `json:"grade" validate:"omitempty,max=30"`
	WeightPerBag *float64 `json:"weight_per_bag" validate:"omitempty,gt=0"`
	Description  *string  `json:"description" validate:"omitempty,max=500"`
}

func (s *GradeService) ListGrades(ctx context.Context) ([]models.CoffeeGrade, error) {
	var grades []models.CoffeeGrade
	if err := s.db.WithContext(ctx).Order("grade ASC").Find(&grades).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch coffee grades: %w", err)
	}
	return grades, nil
}

func (s *GradeService) GetGrade(ctx context.Context, id uuid.UUID) (*models.CoffeeGrade, error) {
	var grade models.CoffeeGrade
	if err := s.db.WithContext(ctx).First(&grade, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: coffee grade not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch coffee grade: %w", err)
	}
	return &grade, nil
}

func (s *GradeService) CreateGrade(ctx context.Context, actor Actor, req *CreateGradeRequest) (*models.CoffeeGrade, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: only staff members can manage coffee grades", ErrAuthorization)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	grade := &models.CoffeeGrade{
		Grade:        req.Grade,
		WeightPerBag: req.WeightPerBag,
		Description:  req.Description,
	}
	if err := s.db.WithContext(ctx).Create(grade).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: coffee grade %q already exists", ErrConflict, req.Grade)
		}
		return nil, fmt.Errorf("failed to create coffee grade: %w", err)
	}
	return grade, nil
}

func (s *GradeService) UpdateGrade(ctx context.Context, actor Actor, id uuid.UUID, req *UpdateGradeRequest) (*models.CoffeeGrade, error) {
	if !actor.IsStaff() {
		return nil, fmt.Errorf("%w: only staff members can manage coffee grades", ErrAuthorization)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	grade, err := s.GetGrade(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Grade != nil {
		grade.Grade = *req.Grade
	}
	if req.WeightPerBag != nil {
		grade.WeightPerBag = *req.WeightPerBag
	}
	if req.Description != nil {
		grade.Description = *req.Description
	}
	if err := s.db.WithContext(ctx).Save(grade).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: coffee grade %q already exists", ErrConflict, grade.Grade)
		}
		return nil, fmt.Errorf("failed to update coffee grade: %w", err)
	}
	return grade, nil
}

// DeleteGrade refuses to remove a grade that quantity lines still reference,
// so historical permit weights stay computable.
func (s *GradeService) DeleteGrade(ctx context.Context, actor Actor, id uuid.UUID) error {
	if !actor.IsStaff() {
		return fmt.Errorf("%w: only staff members can manage coffee grades", ErrAuthorization)
	}
	grade, err := s.GetGrade(ctx, id)
	if err != nil {
		return err
	}

	var references int64
	if err := s.db.WithContext(ctx).Model(&models.CoffeeQuantity{}).
		Where("coffee_grade_id = ?", id).Count(&references).Error; err != nil {
		return fmt.Errorf("failed to count grade references: %w", err)
	}
	if references > 0 {
		return fmt.Errorf("%w: coffee grade %q is referenced by %d permit line(s)", ErrConflict, grade.Grade, references)
	}
	if err := s.db.WithContext(ctx).Delete(grade).Error; err != nil {
		return fmt.Errorf("failed to delete coffee grade: %w", err)
	}
	return nil
}
