package store

import (
	"context"
	"errors"

	"pricing-service/internal/model"
	"pricing-service/internal/pricing"

	"gorm.io/gorm"
)

// Catalog is the GORM-backed product store.
type Catalog struct {
	db *gorm.DB
}

// NewCatalog creates a catalog over the given database handle.
func NewCatalog(db *gorm.DB) *Catalog {
	return &Catalog{db: db}
}

// Get loads a product by id. It performs no ownership filtering; the
// caller is responsible for comparing the owner and mapping mismatches
// to not-found.
func (c *Catalog) Get(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	result := c.db.WithContext(ctx).First(&product, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, pricing.ErrNotFound
		}
		return nil, result.Error
	}
	return &product, nil
}

// Save inserts or updates a product, refreshing its updated timestamp.
func (c *Catalog) Save(ctx context.Context, product *model.Product) error {
	return c.db.WithContext(ctx).Save(product).Error
}

// Delete soft-deletes a product. Historical pricing results referencing
// it are deliberately left in place.
func (c *Catalog) Delete(ctx context.Context, product *model.Product) error {
	return c.db.WithContext(ctx).Delete(product).Error
}

// ListByOwner returns the owner's products, most recently updated first.
func (c *Catalog) ListByOwner(ctx context.Context, ownerID uint) ([]model.Product, error) {
	var products []model.Product
	result := c.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&products)
	if result.Error != nil {
		return nil, result.Error
	}
	return products, nil
}

// DeleteAllByOwner removes all products of a user, as part of the
// account deletion cascade.
func (c *Catalog) DeleteAllByOwner(ctx context.Context, ownerID uint) error {
	return c.db.WithContext(ctx).Where("user_id = ?", ownerID).Delete(&model.Product{}).Error
}
