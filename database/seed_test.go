package database

import (
	"strings"
	"testing"

	"github.com/YHTerrance/UniFrames/model"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return db
}

func TestLoadUniversitiesCSV(t *testing.T) {
	input := "Name, website_url,logo_key\n" +
		"Harvard University,https://harvard.edu,logos/harvard.png\n" +
		"harvard university,https://dup.example,\n" +
		",https://blank.example,\n" +
		"Carnegie Mellon University,,\n"

	universities, err := LoadUniversitiesCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, universities, 2)

	assert.Equal(t, "Harvard University", universities[0].Name)
	assert.Equal(t, "https://harvard.edu", universities[0].WebsiteURL)
	assert.Equal(t, "logos/harvard.png", universities[0].LogoKey)
	assert.Equal(t, "Carnegie Mellon University", universities[1].Name)
	assert.Empty(t, universities[1].LogoURL)
}

func TestLoadUniversitiesCSVRequiresNameColumn(t *testing.T) {
	_, err := LoadUniversitiesCSV(strings.NewReader("title\nHarvard\n"))
	assert.ErrorContains(t, err, `"name"`)
}

func TestSeedUniversitiesIsRepeatable(t *testing.T) {
	db := openTestDB(t)
	log, _ := test.NewNullLogger()
	seeder := NewSeeder(db, log)

	_, err := seeder.SeedUniversities(DefaultUniversities())
	require.NoError(t, err)

	updated := []model.University{{Name: "Harvard University", WebsiteURL: "https://harvard.example", LogoKey: "logos/h.png"}}
	_, err = seeder.SeedUniversities(updated)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&model.University{}).Count(&count).Error)
	assert.Equal(t, int64(len(DefaultUniversities())), count)

	var harvard model.University
	require.NoError(t, db.Where("name = ?", "Harvard University").First(&harvard).Error)
	assert.Equal(t, "https://harvard.example", harvard.WebsiteURL)
	assert.Equal(t, "logos/h.png", harvard.LogoKey)
}

func TestMigrateEnforcesCaseInsensitiveNames(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Create(&model.University{Name: "Harvard University"}).Error)
	err := db.Create(&model.University{Name: "HARVARD UNIVERSITY"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}
