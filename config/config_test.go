package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"FIAT_CURRENCY", "BALANCECHECK_HISTORY_DIR", "SLACK_WEBHOOK", "COINMARKETCAP_API_KEY",
	"BINANCE_API_KEY", "BINANCE_API_SECRET", "BYBIT_API_KEY", "BYBIT_API_SECRET",
	"COINBASE_API_KEY", "COINBASE_API_SECRET",
	"KUCOIN_API_KEY", "KUCOIN_API_SECRET", "KUCOIN_API_PASSPHRASE",
	"NEWTON_CLIENT_ID", "NEWTON_API_SECRET", "HYPERLIQUID_PRIVATE_KEY", "HYPERLIQUID_URL",
	"IMGUR_CLIENT_ID", "S3_BUCKET", "S3_REGION", "S3_ENDPOINT", "S3_ACCESS_KEY", "S3_SECRET_KEY", "S3_PUBLIC_URL",
}

func cleanEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
	t.Setenv("COINMARKETCAP_API_KEY", "cmc")
}

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cleanEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "CAD", cfg.Fiat)
	assert.True(t, cfg.DustThreshold.Equal(decimal.New(1, -7)))
	assert.Equal(t, "USDT", cfg.Stable)
	assert.Equal(t, DefaultAnchors, cfg.Anchors)
	assert.Equal(t, DefaultHistoryDir, cfg.HistoryDir)
	assert.Equal(t, ImageHostImgur, cfg.ImageHost)
	assert.Equal(t, AllExchanges, cfg.EnabledExchanges())
	assert.False(t, cfg.HasBinance())
	assert.False(t, cfg.HasHyperliquid())
}

func TestLoad_FileThenEnv(t *testing.T) {
	cleanEnv(t)
	t.Setenv("FIAT_CURRENCY", "usd")
	t.Setenv("KUCOIN_API_KEY", "k")
	t.Setenv("KUCOIN_API_SECRET", "s")
	t.Setenv("BYBIT_API_KEY", "only-key")

	path := writeYAML(t, `
fiat: EUR
dust_threshold: "0.001"
anchors: [btc]
request_timeout: 5s
adapter_timeout: 1m
image_host: none
exchanges: [Binance, kucoin]
sma_period: 0
schedule: "0 */6 * * *"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "USD", cfg.Fiat, "env wins over file")
	assert.Equal(t, "0.001", cfg.DustThreshold.String())
	assert.Equal(t, []string{"BTC"}, cfg.Anchors)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, time.Minute, cfg.AdapterTimeout)
	assert.Equal(t, ImageHostNone, cfg.ImageHost)
	assert.Equal(t, 0, cfg.SMAPeriod)
	assert.Equal(t, "0 */6 * * *", cfg.Schedule)
	assert.Equal(t, []string{Binance, Kucoin}, cfg.EnabledExchanges())

	assert.False(t, cfg.HasKucoin(), "passphrase missing")
	assert.False(t, cfg.HasBybit(), "secret missing")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "unknown fiat", env: map[string]string{"FIAT_CURRENCY": "XYZ"}},
		{name: "fiat length", env: map[string]string{"FIAT_CURRENCY": "CADD"}},
		{name: "missing cmc key", env: map[string]string{"COINMARKETCAP_API_KEY": ""}},
		{name: "bad webhook", env: map[string]string{"SLACK_WEBHOOK": "not a url"}},
		{name: "image host", yaml: "image_host: dropbox\n"},
		{name: "s3 without bucket", yaml: "image_host: s3\n"},
		{name: "exchange", yaml: "exchanges: [ftx]\n"},
		{name: "dust", yaml: "dust_threshold: abc\n"},
		{name: "negative dust", yaml: "dust_threshold: \"-1\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeYAML(t, tt.yaml)
			}

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cleanEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRequireMessaging(t *testing.T) {
	cfg := Default()

	assert.True(t, errors.Is(cfg.RequireMessaging(false), ErrMissingMessagingConfig))
	assert.NoError(t, cfg.RequireMessaging(true))

	cfg.SlackWebhook = "https://hooks.slack.com/services/T/B/X"
	assert.NoError(t, cfg.RequireMessaging(false))
}

func TestWriteFile_RoundTrip(t *testing.T) {
	period := 14
	path := filepath.Join(t.TempDir(), "config.gen.yaml")

	require.NoError(t, WriteFile(path, File{Fiat: "CAD", ImageHost: "s3", S3Bucket: "graphs", SMAPeriod: &period}))

	f, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "s3", f.ImageHost)
	require.NotNil(t, f.SMAPeriod)
	assert.Equal(t, 14, *f.SMAPeriod)
}
