package ledger

import (
	"context"
	"strings"

	"go-stock-ledger/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// GetInventory returns one category document.
func (s *Service) GetInventory(ctx context.Context, category string) (*models.InventoryRecord, error) {
	rec, err := loadDocument(s.db.WithContext(ctx), strings.TrimSpace(category))
	return rec, classify(err)
}

// ListInventory returns every category document ordered by name.
func (s *Service) ListInventory(ctx context.Context) ([]models.InventoryRecord, error) {
	recs := []models.InventoryRecord{}
	if err := preloadDocument(s.db.WithContext(ctx)).Order("category").Find(&recs).Error; err != nil {
		return nil, classify(err)
	}
	return recs, nil
}

// CreateCategory adds a new category with optional initial subcategories.
func (s *Service) CreateCategory(ctx context.Context, category string, subCategories []string) (*models.InventoryRecord, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, validationf("category is required")
	}
	names, err := uniqueSubCategories(subCategories)
	if err != nil {
		return nil, err
	}

	var out *models.InventoryRecord
	err = s.inLock(ctx, categoryKey(category), func(tx *gorm.DB) error {
		if _, err := findRecord(tx, category, false); err == nil {
			return conflictf("inventory category %q already exists", category)
		} else if !isNotFound(err) {
			return err
		}

		rec := models.InventoryRecord{Category: category}
		for i, name := range names {
			rec.SubCategories = append(rec.SubCategories, models.SubCategory{Name: name, Position: i + 1})
		}
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}

		out, err = loadDocument(tx, category)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"category": category, "subCategories": names}).Info("inventory category created")
	return out, nil
}

// AddSubCategory appends a subcategory; names compare case-insensitively.
func (s *Service) AddSubCategory(ctx context.Context, category, name string) (*models.InventoryRecord, error) {
	category = strings.TrimSpace(category)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("new subcategory is required")
	}

	var out *models.InventoryRecord
	err := s.inLock(ctx, categoryKey(category), func(tx *gorm.DB) error {
		rec, err := loadDocument(tx, category)
		if err != nil {
			return err
		}
		if hasSubCategory(rec, name) {
			return validationf("subcategory %q already exists in %q", name, category)
		}
		if err := appendSubCategory(tx, rec, name); err != nil {
			return err
		}
		out, err = loadDocument(tx, category)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"category": category, "subCategory": name}).Info("subcategory added")
	return out, nil
}

// ListSubCategories returns the subcategory labels in insertion order.
func (s *Service) ListSubCategories(ctx context.Context, category string) ([]string, error) {
	rec, err := s.GetInventory(ctx, category)
	if err != nil {
		return nil, err
	}
	return rec.SubCategoryNames(), nil
}

// DeleteCategory removes a category with all of its batches and sales.
// The capital transaction log keeps its entries.
func (s *Service) DeleteCategory(ctx context.Context, category string) error {
	category = strings.TrimSpace(category)
	err := s.inLock(ctx, categoryKey(category), func(tx *gorm.DB) error {
		rec, err := findRecord(tx, category, true)
		if err != nil {
			return err
		}
		for _, model := range []any{&models.SaleRecord{}, &models.PurchaseBatch{}, &models.SubCategory{}} {
			if err := tx.Where("inventory_record_id = ?", rec.ID).Delete(model).Error; err != nil {
				return err
			}
		}
		return tx.Delete(rec).Error
	})
	if err != nil {
		return err
	}

	s.log.WithField("category", category).Info("inventory category deleted")
	return nil
}

// AdjustStocks overwrites the category's available stock counter. It is a
// manual correction and does not touch batches or capital.
func (s *Service) AdjustStocks(ctx context.Context, category string, availableStocks int) (*models.InventoryRecord, error) {
	if availableStocks < 0 {
		return nil, validationf("availableStocks must not be negative")
	}
	category = strings.TrimSpace(category)

	var out *models.InventoryRecord
	var before int
	err := s.inLock(ctx, categoryKey(category), func(tx *gorm.DB) error {
		rec, err := findRecord(tx, category, true)
		if err != nil {
			return err
		}
		before = rec.AvailableStocks
		if err := tx.Model(rec).Update("available_stocks", availableStocks).Error; err != nil {
			return err
		}
		out, err = loadDocument(tx, category)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"category": category, "before": before, "after": availableStocks}).Warn("available stocks adjusted manually")
	return out, nil
}

func uniqueSubCategories(in []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, raw := range in {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, validationf("subcategory names must not be blank")
		}
		key := strings.ToLower(name)
		if seen[key] {
			return nil, validationf("subcategory %q is listed twice", name)
		}
		seen[key] = true
		out = append(out, name)
	}
	return out, nil
}

func hasSubCategory(rec *models.InventoryRecord, name string) bool {
	for _, sc := range rec.SubCategories {
		if strings.EqualFold(sc.Name, name) {
			return true
		}
	}
	return false
}

func appendSubCategory(tx *gorm.DB, rec *models.InventoryRecord, name string) error {
	sc := models.SubCategory{
		InventoryRecordID: rec.ID,
		Name:              name,
		Position:          len(rec.SubCategories) + 1,
	}
	if err := tx.Create(&sc).Error; err != nil {
		return err
	}
	rec.SubCategories = append(rec.SubCategories, sc)
	return nil
}
