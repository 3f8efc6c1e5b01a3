package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Analytics: AnalyticsConfig{
			FirstSaleDate:      "2024-05-29",
			BusinessHoursStart: 8,
			BusinessHoursEnd:   22,
			PieSlices:          6,
		},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "drive enabled without folder id",
			mutate:  func(c *Config) { c.Drive.Enabled = true },
			wantErr: true,
		},
		{
			name: "drive enabled with folder id",
			mutate: func(c *Config) {
				c.Drive.Enabled = true
				c.Drive.FolderID = "abc123"
			},
		},
		{
			name:    "inverted business hours",
			mutate:  func(c *Config) { c.Analytics.BusinessHoursStart = 23 },
			wantErr: true,
		},
		{
			name:    "malformed first sale date",
			mutate:  func(c *Config) { c.Analytics.FirstSaleDate = "29/05/2024" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFirstSale(t *testing.T) {
	a := AnalyticsConfig{FirstSaleDate: "2024-05-29"}
	got, err := a.FirstSale()
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2024, 5, 29, 0, 0, 0, 0, time.UTC)))
}
