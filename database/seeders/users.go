package seeders

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/app/models"
	"github.com/cherrydine/cherrydine/config"
	"github.com/cherrydine/cherrydine/pkg/auth"
	"github.com/cherrydine/cherrydine/pkg/logger"
)

func init() {
	Register("admin", SeedAdmin)
}

// SeedAdmin creates the staff account from ADMIN_EMAIL and ADMIN_PASSWORD.
// Without a password it does nothing; an existing account is left alone.
func SeedAdmin(ctx context.Context, db *gorm.DB) error {
	password := config.AdminPassword()
	if password == "" {
		logger.Warn("seed: ADMIN_PASSWORD not set, skipping admin account")
		return nil
	}

	var existing models.User
	err := db.WithContext(ctx).Where("email = ?", config.AdminEmail()).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Create(&models.User{
		Username: "admin",
		Email:    config.AdminEmail(),
		Password: hash,
		Role:     models.RoleAdmin,
	}).Error
}
