// Package credentials stores per-owner authorization material for the
// remote document source.
package credentials

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNoCredential is returned when an owner has no usable refresh token on
// file. Sync dispatch aborts on it before any crawling starts.
var ErrNoCredential = errors.New("no drive credential on file")

// User is the persisted account row. Only the fields the platform needs are
// mapped; the table is shared with the account system.
type User struct {
	ID                string `gorm:"primaryKey;column:id"`
	Email             string `gorm:"column:email"`
	DriveRefreshToken string `gorm:"column:drive_refresh_token"`
}

// TableName keeps the mapping explicit instead of relying on pluralization.
func (User) TableName() string { return "users" }

// Store reads owner credentials from the relational database.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an established database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the users table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&User{}); err != nil {
		return fmt.Errorf("failed to migrate users table: %w", err)
	}
	return nil
}

// RefreshToken returns the owner's drive refresh token. A missing row and a
// row with an empty token both yield ErrNoCredential.
func (s *Store) RefreshToken(ctx context.Context, ownerID string) (string, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ?", ownerID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNoCredential
	}
	if err != nil {
		return "", fmt.Errorf("failed to load credential for owner %s: %w", ownerID, err)
	}
	if user.DriveRefreshToken == "" {
		return "", ErrNoCredential
	}
	return user.DriveRefreshToken, nil
}
