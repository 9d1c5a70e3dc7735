package catalog

import (
	"Smart-Picking/entities"
	"context"

	"gorm.io/gorm"
)

type (
	CatalogRepository interface {
		// FindFirstByCode returns the earliest imported row carrying code.
		FindFirstByCode(ctx context.Context, code string) (*entities.CatalogEntry, error)
		// ReplaceAll swaps the whole catalog for entries in one transaction.
		ReplaceAll(ctx context.Context, entries []entities.CatalogEntry) error
	}

	catalogRepository struct {
		db *gorm.DB
	}
)

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{
		db: db,
	}
}

func (r *catalogRepository) FindFirstByCode(ctx context.Context, code string) (*entities.CatalogEntry, error) {
	var entry entities.CatalogEntry
	if err := r.db.WithContext(ctx).
		Where("code = ?", code).
		Order("row_number ASC").
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *catalogRepository) ReplaceAll(ctx context.Context, entries []entities.CatalogEntry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("1 = 1").Delete(&entities.CatalogEntry{}).Error; err != nil {
			return err
		}
		if len(entries) == 0 {
			return nil
		}
		return tx.CreateInBatches(&entries, 200).Error
	})
}
