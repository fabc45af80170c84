package database

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"penacms-backend/shared/config"
	"penacms-backend/shared/database/models"
	utils "penacms-backend/shared/utils/auth"
)

// Seed creates the fixed role set and the kamisama operator account.
func Seed(db *gorm.DB, cfg *config.Config) error {
	log.Println("🌱 Checking database seed data...")

	rolesCreated, err := seedDefaultRoles(db)
	if err != nil {
		return err
	}

	if rolesCreated > 0 {
		log.Printf("✅ Database seeding completed (%d roles created)", rolesCreated)
	} else {
		log.Println("✅ Database seed data is up to date")
	}

	if err := createKamisamaFromConfig(db, cfg); err != nil {
		return err
	}

	return nil
}

// seedDefaultRoles creates the four privilege tiers
func seedDefaultRoles(db *gorm.DB) (int, error) {
	roles := []models.Role{
		{Name: "user", Description: "Standard user access with basic permissions."},
		{Name: "admin", Description: "Administrative access to manage users and content."},
		{Name: "superAdmin", Description: "Full access to all features, including role management."},
		{Name: "kamisama", Description: "Top-level operator identity. Singular and seeded once."},
	}

	created := 0
	for _, role := range roles {
		var existing models.Role
		result := db.Where("name = ?", role.Name).First(&existing)
		if result.Error != nil {
			if err := db.Create(&role).Error; err != nil {
				return created, err
			}
			created++
		}
	}

	return created, nil
}

// createKamisamaFromConfig creates the kamisama operator using config values.
// Skipped when no password is configured.
func createKamisamaFromConfig(db *gorm.DB, cfg *config.Config) error {
	if cfg.KamisamaPassword == "" {
		log.Println("Warning: KAMISAMA_PASSWORD not set, skipping operator account creation")
		return nil
	}

	var existing models.User
	if err := db.Where("email = ?", cfg.KamisamaEmail).First(&existing).Error; err == nil {
		log.Println("Kamisama operator already exists")
		return nil
	}

	var role models.Role
	if err := db.Where("name = ?", "kamisama").First(&role).Error; err != nil {
		return fmt.Errorf("kamisama role missing: %w", err)
	}

	hashed, err := utils.HashPassword(cfg.KamisamaPassword)
	if err != nil {
		return fmt.Errorf("failed to hash operator password: %w", err)
	}

	operator := models.User{
		Name:     cfg.KamisamaName,
		Email:    cfg.KamisamaEmail,
		Username: cfg.KamisamaUsername,
		Password: hashed,
		RoleID:   &role.ID,
	}

	if err := db.Create(&operator).Error; err != nil {
		return fmt.Errorf("failed to create kamisama operator: %w", err)
	}

	// Operator gets a profile like everyone else
	profile := models.Profile{UserID: operator.ID}
	if err := db.Create(&profile).Error; err != nil {
		return fmt.Errorf("failed to create operator profile: %w", err)
	}

	log.Printf("✅ Kamisama operator created: %s", cfg.KamisamaEmail)
	return nil
}
