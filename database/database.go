package database

import (
	"log"
	"os"

	"certtrack/config"
	"certtrack/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// DbInstance struct holds the database connection instance
type DbInstance struct {
	Db *gorm.DB
}

// Database is the global database instance
var Database DbInstance

// ConnectDb opens the SQLite database, runs migrations and seeds the default
// admin account. It must complete before the server starts accepting traffic.
func ConnectDb() {
	db, err := gorm.Open(sqlite.Open(config.AppConfig.DBName), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
		os.Exit(2)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// SQLite serializes writers; a single connection avoids lock contention
	sqlDB.SetMaxOpenConns(1)

	runMigrations(db)
	seedDefaultAdmin(db)

	// Save database instance globally
	Database = DbInstance{Db: db}
}

// runMigrations performs database migrations
func runMigrations(db *gorm.DB) {
	log.Println("Running Migrations...")

	err := db.AutoMigrate(
		&models.User{},
		&models.CertificationRequest{},
		&models.Certification{},
	)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	log.Println("Migrations completed successfully.")
}

// seedDefaultAdmin creates the admin account on first start, or resets its
// password so a known credential always works after deployment.
func seedDefaultAdmin(db *gorm.DB) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(config.AppConfig.AdminPassword), config.AppConfig.SaltRound)
	if err != nil {
		log.Fatalf("Failed to hash admin password: %v", err)
	}

	var admin models.User
	err = db.Where("role = ?", models.RoleAdmin).First(&admin).Error
	if err == gorm.ErrRecordNotFound {
		admin = models.User{
			Username: config.AppConfig.AdminUsername,
			Email:    "admin@example.com",
			Password: string(hashed),
			Role:     models.RoleAdmin,
		}
		if err := db.Create(&admin).Error; err != nil {
			log.Fatalf("Failed to create default admin: %v", err)
		}
		log.Printf("Default admin user created (username: %s)", admin.Username)
		return
	}
	if err != nil {
		log.Fatalf("Failed to check admin user: %v", err)
	}

	if err := db.Model(&admin).Update("password", string(hashed)).Error; err != nil {
		log.Printf("Error resetting admin password: %v", err)
		return
	}
	log.Printf("Admin password reset (username: %s)", admin.Username)
}
