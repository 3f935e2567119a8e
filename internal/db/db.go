package db

import (
	"context"
	"errors"
	"fmt"
	"log"

	"inkpress/internal/auth"
	"inkpress/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to the configured database. Duplicate key errors are
// translated to gorm.ErrDuplicatedKey.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q", driver)
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("db: connect: %w", err)
	}
	if driver == "sqlite" {
		// in-memory databases exist per connection
		sqlDB, err := conn.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return conn, nil
}

// Migrate creates or updates every table.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("db: migrate: %w", err)
	}
	return nil
}

// AdminSeed describes the administrator account created on first start.
type AdminSeed struct {
	Name     string
	Email    string
	Password string
}

var (
	seedCategories = []string{"Technology", "Health", "Sports", "Entertainment", "Business", "Science"}
	seedTags       = []string{"Laravel", "PHP", "JavaScript", "React", "Vue", "Node.js", "HealthTech", "AI"}
)

// Seed installs the builtin roles and permissions, the admin account and
// the starter taxonomy. Existing rows are left alone.
func Seed(ctx context.Context, conn *gorm.DB, admin AdminSeed) error {
	registry := auth.NewRegistry(conn)
	if err := registry.EnsureDefaults(ctx); err != nil {
		return err
	}

	if err := seedNames(ctx, conn, &models.Category{}, seedCategories, func(name string) interface{} {
		return &models.Category{Name: name}
	}); err != nil {
		return err
	}
	if err := seedNames(ctx, conn, &models.Tag{}, seedTags, func(name string) interface{} {
		return &models.Tag{Name: name}
	}); err != nil {
		return err
	}

	if admin.Email == "" {
		return nil
	}
	var existing models.User
	err := conn.WithContext(ctx).Where("email = ?", admin.Email).First(&existing).Error
	if err == nil {
		log.Println("Admin user already seeded, skipping")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("db: lookup admin: %w", err)
	}

	hash, err := auth.HashPassword(admin.Password)
	if err != nil {
		return fmt.Errorf("db: hash admin password: %w", err)
	}
	user := models.User{Name: admin.Name, Email: admin.Email, Password: hash}
	if err := conn.WithContext(ctx).Create(&user).Error; err != nil {
		return fmt.Errorf("db: create admin: %w", err)
	}
	if err := registry.AssignRole(ctx, user.ID, auth.RoleAdmin); err != nil {
		return err
	}
	log.Printf("Admin user %s created", admin.Email)
	return nil
}

func seedNames(ctx context.Context, conn *gorm.DB, model interface{}, names []string, build func(string) interface{}) error {
	var count int64
	if err := conn.WithContext(ctx).Model(model).Count(&count).Error; err != nil {
		return fmt.Errorf("db: count seed rows: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, name := range names {
		if err := conn.WithContext(ctx).Create(build(name)).Error; err != nil {
			log.Printf("Failed to seed %s: %v", name, err)
		}
	}
	return nil
}
