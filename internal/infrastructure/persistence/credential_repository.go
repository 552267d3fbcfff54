package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dropship/backend/internal/domain/forwarder"
	"github.com/dropship/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCredentialRepository implements forwarder.CredentialStore using GORM
type GormCredentialRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormCredentialRepository creates a new GormCredentialRepository
func NewGormCredentialRepository(db *gorm.DB) *GormCredentialRepository {
	return &GormCredentialRepository{db: db, now: time.Now}
}

// GetCredential finds the active credential of a provider, ignoring case
func (r *GormCredentialRepository) GetCredential(ctx context.Context, providerName string) (*forwarder.Credential, error) {
	var model models.ForwarderCredentialModel
	err := r.db.WithContext(ctx).
		Where("LOWER(provider_name) = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(providerName)), true).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, forwarder.ErrCredentialNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// SaveCredential inserts or replaces the credential of a provider
func (r *GormCredentialRepository) SaveCredential(ctx context.Context, cred *forwarder.Credential) error {
	var model models.ForwarderCredentialModel
	if err := model.FromDomain(cred, r.now()); err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "provider_name"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"api_key", "api_secret", "api_endpoint", "warehouse_addresses", "is_active", "updated_at",
			}),
		}).
		Create(&model).Error
}
