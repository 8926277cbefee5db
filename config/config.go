package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/balancecheck/internal/domain"
)

// ErrMissingMessagingConfig no Slack webhook and not a dry run.
var ErrMissingMessagingConfig = errors.New("SLACK_WEBHOOK is not set")

const (
	DefaultFiat           = "CAD"
	DefaultStable         = "USDT"
	DefaultHistoryDir     = "./wal/history"
	DefaultGraphDir       = "."
	DefaultRequestTimeout = 30 * time.Second
	DefaultAdapterTimeout = 2 * time.Minute
	DefaultSMAPeriod      = 7
	DefaultHyperliquidURL = "https://api.hyperliquid.xyz"

	ImageHostImgur = "imgur"
	ImageHostS3    = "s3"
	ImageHostNone  = "none"
)

// DefaultAnchors intermediate quote units tried when an asset has no direct stable pair.
var DefaultAnchors = []string{"BTC", "ETH"}

// Exchange keys accepted in the exchanges list.
const (
	Binance     = "binance"
	Bybit       = "bybit"
	Coinbase    = "coinbase"
	Kucoin      = "kucoin"
	Newton      = "newton"
	Hyperliquid = "hyperliquid"
)

// AllExchanges in report order.
var AllExchanges = []string{Binance, Kucoin, Coinbase, Newton, Bybit, Hyperliquid}

// Credentials of one exchange account. Secrets come from the environment only.
type Credentials struct {
	APIKey     string
	APISecret  string
	Passphrase string
}

// Complete both key and secret are set.
func (c Credentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// S3 bucket settings for graph uploads.
type S3 struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	PublicURL string
	Prefix    string
}

type Config struct {
	Fiat           string          `validate:"required,len=3,uppercase"`
	DustThreshold  decimal.Decimal `validate:"-"`
	Stable         string          `validate:"required"`
	Anchors        []string        `validate:"dive,required"`
	RequestTimeout time.Duration   `validate:"gt=0"`
	AdapterTimeout time.Duration   `validate:"gte=0"`
	HistoryDir     string          `validate:"required"`
	GraphDir       string          `validate:"required"`
	ImageHost      string          `validate:"oneof=imgur s3 none"`
	Exchanges      []string        `validate:"dive,oneof=binance bybit coinbase kucoin newton hyperliquid"`
	SMAPeriod      int             `validate:"gte=0"`
	Schedule       string

	SlackWebhook        string `validate:"omitempty,url"`
	CoinMarketCapAPIKey string `validate:"required"`

	Binance               Credentials
	Bybit                 Credentials
	Coinbase              Credentials
	Kucoin                Credentials
	Newton                Credentials
	HyperliquidPrivateKey string
	HyperliquidURL        string `validate:"required,url"`

	ImgurClientID string
	S3            S3
}

// File YAML tunables. Secrets are never read from or written to it.
type File struct {
	Fiat           string        `yaml:"fiat,omitempty"`
	DustThreshold  string        `yaml:"dust_threshold,omitempty"`
	Stable         string        `yaml:"stable,omitempty"`
	Anchors        []string      `yaml:"anchors,omitempty"`
	RequestTimeout time.Duration `yaml:"request_timeout,omitempty"`
	AdapterTimeout time.Duration `yaml:"adapter_timeout,omitempty"`
	HistoryDir     string        `yaml:"history_dir,omitempty"`
	GraphDir       string        `yaml:"graph_dir,omitempty"`
	ImageHost      string        `yaml:"image_host,omitempty"`
	Exchanges      []string      `yaml:"exchanges,omitempty"`
	SMAPeriod      *int          `yaml:"sma_period,omitempty"`
	Schedule       string        `yaml:"schedule,omitempty"`
	S3Bucket       string        `yaml:"s3_bucket,omitempty"`
	S3Region       string        `yaml:"s3_region,omitempty"`
	S3Prefix       string        `yaml:"s3_prefix,omitempty"`
}

// Default configuration before any file or environment is applied.
func Default() *Config {
	return &Config{
		Fiat:           DefaultFiat,
		DustThreshold:  domain.DustThreshold,
		Stable:         DefaultStable,
		Anchors:        append([]string(nil), DefaultAnchors...),
		RequestTimeout: DefaultRequestTimeout,
		AdapterTimeout: DefaultAdapterTimeout,
		HistoryDir:     DefaultHistoryDir,
		GraphDir:       DefaultGraphDir,
		ImageHost:      ImageHostImgur,
		SMAPeriod:      DefaultSMAPeriod,
		HyperliquidURL: DefaultHyperliquidURL,
	}
}

// Load defaults, then the YAML file at path (if any), then the environment
// (with .env loaded first), then validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		f, err := ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.applyFile(f); err != nil {
			return nil, errors.Wrapf(err, "apply config file %s", path)
		}
	}
	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadFile parses the YAML tunables file.
func ReadFile(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f, errors.Wrap(err, "read config file")
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, errors.Wrap(err, "parse config file")
	}
	return f, nil
}

// WriteFile stores tunables as YAML.
func WriteFile(path string, f File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "generate yaml")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "save config file")
	}
	return nil
}

func (c *Config) applyFile(f File) error {
	if f.Fiat != "" {
		c.Fiat = f.Fiat
	}
	if f.DustThreshold != "" {
		dust, err := decimal.NewFromString(f.DustThreshold)
		if err != nil {
			return errors.Wrapf(err, "incorrect 'dust_threshold' %q (must be a decimal)", f.DustThreshold)
		}
		if dust.IsNegative() {
			return errors.Errorf("incorrect 'dust_threshold' %q (must not be negative)", f.DustThreshold)
		}
		c.DustThreshold = dust
	}
	if f.Stable != "" {
		c.Stable = f.Stable
	}
	if len(f.Anchors) > 0 {
		c.Anchors = f.Anchors
	}
	if f.RequestTimeout > 0 {
		c.RequestTimeout = f.RequestTimeout
	}
	if f.AdapterTimeout > 0 {
		c.AdapterTimeout = f.AdapterTimeout
	}
	if f.HistoryDir != "" {
		c.HistoryDir = f.HistoryDir
	}
	if f.GraphDir != "" {
		c.GraphDir = f.GraphDir
	}
	if f.ImageHost != "" {
		c.ImageHost = f.ImageHost
	}
	if len(f.Exchanges) > 0 {
		c.Exchanges = f.Exchanges
	}
	if f.SMAPeriod != nil {
		c.SMAPeriod = *f.SMAPeriod
	}
	if f.Schedule != "" {
		c.Schedule = f.Schedule
	}
	if f.S3Bucket != "" {
		c.S3.Bucket = f.S3Bucket
	}
	if f.S3Region != "" {
		c.S3.Region = f.S3Region
	}
	if f.S3Prefix != "" {
		c.S3.Prefix = f.S3Prefix
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Fiat = getEnv("FIAT_CURRENCY", c.Fiat)
	c.HistoryDir = getEnv("BALANCECHECK_HISTORY_DIR", c.HistoryDir)
	c.SlackWebhook = getEnv("SLACK_WEBHOOK", c.SlackWebhook)
	c.CoinMarketCapAPIKey = getEnv("COINMARKETCAP_API_KEY", c.CoinMarketCapAPIKey)

	c.Binance = Credentials{APIKey: os.Getenv("BINANCE_API_KEY"), APISecret: os.Getenv("BINANCE_API_SECRET")}
	c.Bybit = Credentials{APIKey: os.Getenv("BYBIT_API_KEY"), APISecret: os.Getenv("BYBIT_API_SECRET")}
	c.Coinbase = Credentials{APIKey: os.Getenv("COINBASE_API_KEY"), APISecret: os.Getenv("COINBASE_API_SECRET")}
	c.Kucoin = Credentials{
		APIKey:     os.Getenv("KUCOIN_API_KEY"),
		APISecret:  os.Getenv("KUCOIN_API_SECRET"),
		Passphrase: os.Getenv("KUCOIN_API_PASSPHRASE"),
	}
	c.Newton = Credentials{APIKey: os.Getenv("NEWTON_CLIENT_ID"), APISecret: os.Getenv("NEWTON_API_SECRET")}
	c.HyperliquidPrivateKey = os.Getenv("HYPERLIQUID_PRIVATE_KEY")
	c.HyperliquidURL = getEnv("HYPERLIQUID_URL", c.HyperliquidURL)

	c.ImgurClientID = os.Getenv("IMGUR_CLIENT_ID")
	c.S3.Bucket = getEnv("S3_BUCKET", c.S3.Bucket)
	c.S3.Region = getEnv("S3_REGION", c.S3.Region)
	c.S3.Endpoint = getEnv("S3_ENDPOINT", c.S3.Endpoint)
	c.S3.AccessKey = os.Getenv("S3_ACCESS_KEY")
	c.S3.SecretKey = os.Getenv("S3_SECRET_KEY")
	c.S3.PublicURL = getEnv("S3_PUBLIC_URL", c.S3.PublicURL)
}

func (c *Config) normalize() {
	c.Fiat = strings.ToUpper(strings.TrimSpace(c.Fiat))
	c.Stable = strings.ToUpper(strings.TrimSpace(c.Stable))
	for i, a := range c.Anchors {
		c.Anchors[i] = strings.ToUpper(strings.TrimSpace(a))
	}
	for i, e := range c.Exchanges {
		c.Exchanges[i] = strings.ToLower(strings.TrimSpace(e))
	}
	c.ImageHost = strings.ToLower(c.ImageHost)
}

// Validate struct tags plus the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if !domain.IsKnownFiat(c.Fiat) {
		return errors.Errorf("invalid config: unknown fiat currency %q", c.Fiat)
	}
	if c.ImageHost == ImageHostS3 && c.S3.Bucket == "" {
		return errors.New("invalid config: image host s3 requires S3_BUCKET")
	}
	return nil
}

// RequireMessaging fails when results would have nowhere to go.
func (c *Config) RequireMessaging(dryRun bool) error {
	if !dryRun && c.SlackWebhook == "" {
		return ErrMissingMessagingConfig
	}
	return nil
}

// Enabled reports whether the named exchange takes part in a run. An empty
// list enables all of them.
func (c *Config) Enabled(exchange string) bool {
	if len(c.Exchanges) == 0 {
		return true
	}
	for _, e := range c.Exchanges {
		if e == exchange {
			return true
		}
	}
	return false
}

// EnabledExchanges in report order.
func (c *Config) EnabledExchanges() []string {
	out := make([]string, 0, len(AllExchanges))
	for _, e := range AllExchanges {
		if c.Enabled(e) {
			out = append(out, e)
		}
	}
	return out
}

func (c *Config) HasBinance() bool     { return c.Binance.Complete() }
func (c *Config) HasBybit() bool       { return c.Bybit.Complete() }
func (c *Config) HasCoinbase() bool    { return c.Coinbase.Complete() }
func (c *Config) HasKucoin() bool      { return c.Kucoin.Complete() && c.Kucoin.Passphrase != "" }
func (c *Config) HasNewton() bool      { return c.Newton.Complete() }
func (c *Config) HasHyperliquid() bool { return c.HyperliquidPrivateKey != "" }

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
