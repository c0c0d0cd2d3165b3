package database

import (
	"testing"

	"pharmalink/internal/config"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestConfigurePool(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)

	cfg := &config.Config{
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           5,
		DBConnMaxLifetimeMinutes: 15,
	}

	err = configurePool(db, cfg)
	assert.NoError(t, err)
}

func TestSchemaPolicy(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.Config
		runSQL  bool
		runAuto bool
		wantErr bool
	}{
		{"hybrid dev", &config.Config{Env: "development", DBSchemaMode: "hybrid"}, true, true, false},
		{"hybrid prod", &config.Config{Env: "production", DBSchemaMode: "hybrid"}, true, false, false},
		{"sql only", &config.Config{Env: "development", DBSchemaMode: "sql"}, true, false, false},
		{"auto dev", &config.Config{Env: "development", DBSchemaMode: "auto"}, false, true, false},
		{"auto prod blocked", &config.Config{Env: "production", DBSchemaMode: "auto"}, false, false, true},
		{"unknown mode", &config.Config{Env: "development", DBSchemaMode: "bogus"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runSQL, runAuto, err := schemaPolicy(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.runSQL, runSQL)
			assert.Equal(t, tt.runAuto, runAuto)
		})
	}
}
