package authgw

import (
	"context"
	"errors"

	"github.com/schradermade/hvac-ai-sub002/internal/model"
	"gorm.io/gorm"
)

// GormIdentityStore resolves identities from the access_identities table.
type GormIdentityStore struct {
	db *gorm.DB
}

// NewGormIdentityStore creates an identity store backed by the given database.
func NewGormIdentityStore(db *gorm.DB) *GormIdentityStore {
	return &GormIdentityStore{db: db}
}

// Lookup returns the identity mapped to (issuer, subject), or nil when no
// mapping is provisioned.
func (s *GormIdentityStore) Lookup(ctx context.Context, issuer, subject string) (*Identity, error) {
	var mapping model.AccessIdentity
	err := s.db.WithContext(ctx).
		Where("issuer = ? AND subject = ?", issuer, subject).
		First(&mapping).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	identity := &Identity{UserID: mapping.UserID, TenantID: mapping.TenantID}

	var user model.User
	err = s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", mapping.TenantID, mapping.UserID).
		First(&user).Error
	if err == nil {
		identity.Role = user.Role
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return identity, nil
}
