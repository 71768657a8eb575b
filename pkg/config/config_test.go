package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.App.StorageDriver)
	assert.Equal(t, 5*time.Second, cfg.Ledger.OpTimeout)
	assert.Equal(t, 3, cfg.Ledger.MaxRetries)
	assert.True(t, cfg.Registry.UniqueName)
	assert.False(t, cfg.Monitor.AutoResolve)
	assert.Equal(t, 12, cfg.Forecast.WindowPeriods)
	assert.Equal(t, "month", cfg.Forecast.Period)
	assert.InDelta(t, 1.65, cfg.Forecast.ServiceLevelFactor, 1e-9)
	assert.Zero(t, cfg.Forecast.OrderingCost)
}

func TestFromViper_Overrides(t *testing.T) {
	v := viper.New()
	v.Set("LEDGER_OP_TIMEOUT", "750ms")
	v.Set("LEDGER_RETRY_BACKOFF", "20")
	v.Set("ALERT_AUTO_RESOLVE", "true")
	v.Set("FORECAST_PERIOD", "week")
	v.Set("FORECAST_SERVICE_LEVEL", "2.33")
	v.Set("DB_PORT", "6543")
	v.Set("STORAGE_DRIVER", "memory")

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, cfg.Ledger.OpTimeout)
	assert.Equal(t, 20*time.Millisecond, cfg.Ledger.RetryBackoff)
	assert.True(t, cfg.Monitor.AutoResolve)
	assert.Equal(t, "week", cfg.Forecast.Period)
	assert.InDelta(t, 2.33, cfg.Forecast.ServiceLevelFactor, 1e-9)
	assert.Equal(t, 6543, cfg.DB.Port)
	assert.Equal(t, "memory", cfg.App.StorageDriver)
}

func TestFromViper_Invalido(t *testing.T) {
	v := viper.New()
	v.Set("FORECAST_PERIOD", "quarter")
	_, err := FromViper(v)
	assert.Error(t, err)

	v = viper.New()
	v.Set("STORAGE_DRIVER", "sqlite")
	_, err = FromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "ledger", Password: "p@ss:word", DBName: "stock", SSLMode: "disable"}
	assert.Equal(t, "postgres://ledger:p%40ss%3Aword@db:5432/stock?sslmode=disable", c.DSN())

	c.DatabaseURL = "postgres://x@y/z"
	assert.Equal(t, "postgres://x@y/z", c.ConnectionString())
}
