package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalYAML = `
ghostfolio:
  base_url: https://ghostfolio.local
  access_token: secret
`

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.True(t, c.Ghostfolio.VerifySSL)
	assert.Equal(t, 15, c.Ghostfolio.UpdateInterval)
	assert.Equal(t, 15*time.Minute, c.UpdateInterval())
	assert.Equal(t, []string{"YAHOO", "COINGECKO", "MANUAL"}, c.Ghostfolio.Providers)
	assert.Equal(t, 2*time.Minute, c.Ghostfolio.LockTTL)
	assert.True(t, c.Entry.ShowTotals)
	assert.True(t, c.Entry.ShowAccounts)
	assert.True(t, c.Entry.ShowHoldings)
	assert.True(t, c.Entry.ShowWatchlist)
	assert.Equal(t, "default", c.Entry.ID)
	assert.Equal(t, "USD", c.Entry.BaseCurrency)
	assert.Equal(t, 3, c.Maintenance.PruneBurst)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, 8080, c.Server.Port)
}

func TestParseExplicitFalseOverridesDefault(t *testing.T) {
	c, err := Parse([]byte(minimalYAML + `
  verify_ssl: false
entry:
  id: abc
  show_watchlist: false
`))
	require.NoError(t, err)

	assert.False(t, c.Ghostfolio.VerifySSL)
	assert.False(t, c.Entry.ShowWatchlist)
	assert.True(t, c.Entry.ShowHoldings)
	assert.Equal(t, "abc", c.Entry.ID)
}

func TestParseRejectsMissingToken(t *testing.T) {
	_, err := Parse([]byte(`
ghostfolio:
  base_url: https://ghostfolio.local
`))
	require.Error(t, err)
}

func TestParseRejectsKafkaWithoutBrokers(t *testing.T) {
	_, err := Parse([]byte(minimalYAML + `
kafka:
  enabled: true
`))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	env := map[string]string{
		"GHOSTFOLIO_BASE_URL":     "https://other.local",
		"GHOSTFOLIO_ACCESS_TOKEN": "tok",
		"GHOSTFOLIO_VERIFY_SSL":   "false",
		"UPDATE_INTERVAL":         "5",
		"REDIS_ADDR":              "redis:6380",
		"KAFKA_BROKERS":           "k1:9092,k2:9092",
	}
	c.applyEnv(func(k string) string { return env[k] })

	assert.Equal(t, "https://other.local", c.Ghostfolio.BaseURL)
	assert.Equal(t, "tok", c.Ghostfolio.AccessToken)
	assert.False(t, c.Ghostfolio.VerifySSL)
	assert.Equal(t, 5, c.Ghostfolio.UpdateInterval)
	assert.True(t, c.Redis.Enabled)
	assert.Equal(t, "redis", c.Redis.Host)
	assert.Equal(t, 6380, c.Redis.Port)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	require.NoError(t, c.Validate())
}
