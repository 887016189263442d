package bootstrap

import (
	"log"

	"anoa.com/jobportal/internal/entity"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entity.User{},
		&entity.Profile{},
		&entity.Job{},
		&entity.Application{},
		&entity.Notification{},
	)
}

type AdminSeed struct {
	Username string
	Email    string
	Password string
}

// SeedAdminUser creates a staff account when none with the given email exists.
func SeedAdminUser(db *gorm.DB, seed AdminSeed) error {
	var count int64
	if err := db.Model(&entity.User{}).
		Where("email = ?", seed.Email).
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists, skipping seed")
		return nil
	}

	password := seed.Password
	if password == "" {
		password = "admin123"
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	adminUser := entity.User{
		Username:     seed.Username,
		Email:        seed.Email,
		FirstName:    "Site",
		LastName:     "Administrator",
		PasswordHash: string(hashedPasswordBytes),
		IsStaff:      true,
		IsActive:     true,
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&adminUser).Error; err != nil {
			return err
		}
		return tx.Create(&entity.Profile{UserID: adminUser.ID, Role: entity.RoleEmployee}).Error
	})
	if err != nil {
		return err
	}

	log.Println("✅ Admin user seeded successfully")
	log.Printf("   Username: %s", adminUser.Username)
	log.Printf("   Email: %s", adminUser.Email)

	return nil
}
