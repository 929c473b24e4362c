package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeedServicesPopulatesEmptyTable(t *testing.T) {
	db := setupTestDB(t, "service_seed", &Service{})

	err := SeedServices(db)
	assert.NoError(t, err)

	var count int64
	db.Model(&Service{}).Count(&count)
	assert.Greater(t, count, int64(0))

	// Seeding again must not duplicate the menu.
	err = SeedServices(db)
	assert.NoError(t, err)

	var countAfter int64
	db.Model(&Service{}).Count(&countAfter)
	assert.Equal(t, count, countAfter)
}

func TestServiceModel_ActiveFilter(t *testing.T) {
	db := setupTestDB(t, "service_active", &Service{})

	db.Create(&Service{Name: "Swedish Massage", DurationMinutes: 60, Price: 85, IsActive: true})
	db.Create(&Service{Name: "Retired Package", DurationMinutes: 30, Price: 40, IsActive: false})

	var active []Service
	err := db.Where("is_active = ?", true).Find(&active).Error
	assert.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, "Swedish Massage", active[0].Name)
}
