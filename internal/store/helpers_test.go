package store

import (
	"testing"

	"inkpress/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func seedTaxonomy(t *testing.T, conn *gorm.DB, names ...string) []models.Category {
	t.Helper()
	out := make([]models.Category, 0, len(names))
	for _, n := range names {
		c := models.Category{Name: n}
		if err := conn.Create(&c).Error; err != nil {
			t.Fatal(err)
		}
		out = append(out, c)
	}
	return out
}

func linkCount(t *testing.T, conn *gorm.DB, table string, postID uint) int64 {
	t.Helper()
	var n int64
	if err := conn.Table(table).Where("post_id = ?", postID).Count(&n).Error; err != nil {
		t.Fatal(err)
	}
	return n
}
