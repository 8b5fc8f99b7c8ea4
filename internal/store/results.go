package store

import (
	"context"

	"pricing-service/internal/model"

	"gorm.io/gorm"
)

// OptimalResults is the GORM-backed store for optimal price results.
type OptimalResults struct {
	db *gorm.DB
}

// NewOptimalResults creates a store over the given database handle.
func NewOptimalResults(db *gorm.DB) *OptimalResults {
	return &OptimalResults{db: db}
}

// Save inserts a result. Results are never updated afterwards.
func (s *OptimalResults) Save(ctx context.Context, result *model.OptimalPriceResult) error {
	return s.db.WithContext(ctx).Create(result).Error
}

// ListByOwner returns the owner's results, newest computation first.
func (s *OptimalResults) ListByOwner(ctx context.Context, ownerID uint) ([]model.OptimalPriceResult, error) {
	var results []model.OptimalPriceResult
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("calculated_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListByProduct returns every result recorded for a product.
func (s *OptimalResults) ListByProduct(ctx context.Context, productID uint) ([]model.OptimalPriceResult, error) {
	var results []model.OptimalPriceResult
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("calculated_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteAllByOwner removes all of a user's results, as part of the
// account deletion cascade.
func (s *OptimalResults) DeleteAllByOwner(ctx context.Context, ownerID uint) error {
	return s.db.WithContext(ctx).Where("user_id = ?", ownerID).Delete(&model.OptimalPriceResult{}).Error
}

// TarificationResults is the GORM-backed store for tarification results.
type TarificationResults struct {
	db *gorm.DB
}

// NewTarificationResults creates a store over the given database handle.
func NewTarificationResults(db *gorm.DB) *TarificationResults {
	return &TarificationResults{db: db}
}

// Save inserts a result. Results are never updated afterwards.
func (s *TarificationResults) Save(ctx context.Context, result *model.TarificationResult) error {
	return s.db.WithContext(ctx).Create(result).Error
}

// ListByOwner returns the owner's results, newest computation first.
func (s *TarificationResults) ListByOwner(ctx context.Context, ownerID uint) ([]model.TarificationResult, error) {
	var results []model.TarificationResult
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("calculated_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListByProduct returns every result recorded for a product.
func (s *TarificationResults) ListByProduct(ctx context.Context, productID uint) ([]model.TarificationResult, error) {
	var results []model.TarificationResult
	err := s.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("calculated_at DESC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// DeleteAllByOwner removes all of a user's results, as part of the
// account deletion cascade.
func (s *TarificationResults) DeleteAllByOwner(ctx context.Context, ownerID uint) error {
	return s.db.WithContext(ctx).Where("user_id = ?", ownerID).Delete(&model.TarificationResult{}).Error
}
