package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aniladanir/lead-finder-service/internal/cache"
	"github.com/aniladanir/lead-finder-service/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// receiptTTL keeps import receipts around for a day
const receiptTTL = 24 * time.Hour

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

type Repository interface {
	UpsertLeads(ctx context.Context, leads []domain.Lead) ([]domain.Lead, error)
	ListLeads(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error)
	UpdateStatus(ctx context.Context, id int, status domain.LeadStatus) (*domain.Lead, error)
	CacheReceipt(ctx context.Context, receipt domain.ImportReceipt) error
	GetReceipt(ctx context.Context, importID string) (*domain.ImportReceipt, error)
}

type repo struct {
	db    *gorm.DB
	cache cache.Store
}

func NewLeadRepository(db *gorm.DB, cache cache.Store) Repository {
	return &repo{db: db, cache: cache}
}

// UpsertLeads inserts leads or refreshes the contact fields of the ones that
// were already imported from the same source. Status of existing leads is kept.
// It returns the stored rows in input order.
func (r *repo) UpsertLeads(ctx context.Context, leads []domain.Lead) ([]domain.Lead, error) {
	if len(leads) == 0 {
		return nil, nil
	}

	var stored []domain.Lead
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "source"}, {Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "address", "phone", "website", "rating", "import_id", "updated_at",
			}),
		}).Create(&leads).Error; err != nil {
			return err
		}

		// every row of the batch now carries its import id; read them back
		// so conflicting rows report the status they kept
		return tx.Where("import_id = ?", leads[0].ImportID).Find(&stored).Error
	})
	if err != nil {
		return nil, err
	}

	return inInputOrder(leads, stored), nil
}

// ListLeads returns leads matching filter, newest first
func (r *repo) ListLeads(ctx context.Context, filter domain.LeadFilter) ([]domain.Lead, error) {
	query := r.db.WithContext(ctx).Model(&domain.Lead{})
	if filter.Source != "" {
		query = query.Where("source = ?", filter.Source)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var leads []domain.Lead
	err := query.Order("created_at DESC").Limit(pageLimit(filter.Limit)).Offset(filter.Offset).Find(&leads).Error
	return leads, err
}

// UpdateStatus updates the status of the lead with given id
func (r *repo) UpdateStatus(ctx context.Context, id int, status domain.LeadStatus) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&lead, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrLeadNotFound
			}
			return err
		}

		now := time.Now().UTC()
		lead.UpdatedAt = &now
		lead.Status = status
		return tx.Save(&lead).Error
	})
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// CacheReceipt writes the receipt of an accepted import to cache
func (r *repo) CacheReceipt(ctx context.Context, receipt domain.ImportReceipt) error {
	jsonVal, err := json.Marshal(receipt)
	if err != nil {
		return err
	}
	return r.cache.Set(ctx, receiptKey(receipt.ImportID), string(jsonVal), receiptTTL)
}

// GetReceipt reads an import receipt back from cache
func (r *repo) GetReceipt(ctx context.Context, importID string) (*domain.ImportReceipt, error) {
	val, err := r.cache.Get(ctx, receiptKey(importID))
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			return nil, domain.ErrImportNotFound
		}
		return nil, err
	}

	receipt := new(domain.ImportReceipt)
	if err := json.Unmarshal([]byte(val), receipt); err != nil {
		return nil, fmt.Errorf("failed to decode import receipt: %w", err)
	}
	return receipt, nil
}

func receiptKey(importID string) string {
	return fmt.Sprintf("lead_import:%s", importID)
}

// pageLimit applies the default page size and caps requested ones
func pageLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

// inInputOrder orders stored rows like the leads they were written from.
// Leads missing from stored are kept as written.
func inInputOrder(leads, stored []domain.Lead) []domain.Lead {
	byExternalID := make(map[string]domain.Lead, len(stored))
	for _, l := range stored {
		byExternalID[l.ExternalID] = l
	}

	out := make([]domain.Lead, 0, len(leads))
	for _, l := range leads {
		if s, ok := byExternalID[l.ExternalID]; ok {
			l = s
		}
		out = append(out, l)
	}
	return out
}
