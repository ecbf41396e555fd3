package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"puja-service/internal/config"
	"puja-service/internal/models"
)

func TestOpenMemoryMigratesAllModels(t *testing.T) {
	db, err := OpenMemory(t.Name())
	require.NoError(t, err)

	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.AssignedTask{}, "BookingID"))
	assert.True(t, db.Migrator().HasIndex(&models.CommissionHistory{}, "BookingID"))
}

func TestConnectRejectsUnknownDriver(t *testing.T) {
	_, err := Connect(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestGormLogLevelFollowsServiceLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, gormLogLevel("info"))
	assert.Equal(t, logger.Silent, gormLogLevel("warn"))
	assert.Equal(t, logger.Silent, gormLogLevel(""))
	assert.Equal(t, logger.Info, gormLogLevel("debug"))
	assert.Equal(t, logger.Info, gormLogLevel("DEBUG"))
}
