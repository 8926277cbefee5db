// Package fiat converts the stable pricing unit into the configured fiat currency.
package fiat

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/PaesslerAG/jsonpath"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/balancecheck/internal/clients"
	"github.com/vadiminshakov/balancecheck/internal/domain"
)

const (
	CoinMarketCapBaseURL = "https://pro-api.coinmarketcap.com"

	// CoinMarketCap id of USDT
	usdtID = "825"

	fiatMapPath    = "/v1/fiat/map"
	conversionPath = "/v1/tools/price-conversion"
)

var (
	// ErrUnsupportedCurrency the fiat code is unknown to the rate directory.
	ErrUnsupportedCurrency = errors.New("unsupported fiat currency")
	// ErrPriceUnavailable the rate could not be fetched or parsed.
	ErrPriceUnavailable = errors.New("fiat price unavailable")
)

// APIKeySigner authenticates CoinMarketCap requests.
type APIKeySigner string

func (k APIKeySigner) Sign(req *http.Request, _ []byte) error {
	req.Header.Set("X-CMC_PRO_API_KEY", string(k))
	return nil
}

// IDCache fiat code to CoinMarketCap id. Safe to share between converters.
type IDCache struct {
	mu  sync.Mutex
	ids map[string]string
}

func NewIDCache() *IDCache {
	return &IDCache{ids: make(map[string]string)}
}

func (c *IDCache) get(code string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.ids[code]
	return id, ok
}

func (c *IDCache) put(code, id string) {
	c.mu.Lock()
	c.ids[code] = id
	c.mu.Unlock()
}

// CoinMarketCap resolves fiat ids once and quotes USDT in fiat.
type CoinMarketCap struct {
	rest   *clients.RESTClient
	logger *zap.Logger
	ids    *IDCache
}

// Option configures a CoinMarketCap converter.
type Option func(*CoinMarketCap)

// WithIDCache shares resolved fiat ids with other converters.
func WithIDCache(ids *IDCache) Option {
	return func(c *CoinMarketCap) {
		if ids != nil {
			c.ids = ids
		}
	}
}

// NewCoinMarketCap rest must carry an APIKeySigner.
func NewCoinMarketCap(rest *clients.RESTClient, logger *zap.Logger, opts ...Option) *CoinMarketCap {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &CoinMarketCap{rest: rest, logger: logger, ids: NewIDCache()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StableToFiat multiplier turning one USDT into fiat. The API quotes how much
// USDT one fiat unit buys, so the quote is inverted.
func (c *CoinMarketCap) StableToFiat(ctx context.Context, fiatCode string) (decimal.Decimal, error) {
	code := strings.ToUpper(strings.TrimSpace(fiatCode))
	if !domain.IsKnownFiat(code) {
		return decimal.Zero, errors.Wrapf(ErrUnsupportedCurrency, "%q is not an ISO 4217 code", fiatCode)
	}

	id, err := c.fiatID(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}

	var doc any
	query := url.Values{"amount": {"1"}, "id": {id}, "convert_id": {usdtID}}
	if err := c.rest.Get(ctx, conversionPath, query, &doc); err != nil {
		return decimal.Zero, errors.Wrapf(ErrPriceUnavailable, "price conversion for %s: %v", code, err)
	}

	price, err := firstFloat(doc, fmt.Sprintf(`$.data.quote["%s"].price`, usdtID))
	if err != nil {
		return decimal.Zero, errors.Wrapf(ErrPriceUnavailable, "price conversion for %s: %v", code, err)
	}
	if price <= 0 {
		return decimal.Zero, errors.Wrapf(ErrPriceUnavailable, "non-positive quote %v for %s", price, code)
	}

	multiplier := decimal.NewFromInt(1).Div(decimal.NewFromFloat(price))
	c.logger.Debug("fiat multiplier", zap.String("fiat", code), zap.String("multiplier", multiplier.String()))

	return multiplier, nil
}

func (c *CoinMarketCap) fiatID(ctx context.Context, code string) (string, error) {
	if id, ok := c.ids.get(code); ok {
		return id, nil
	}

	var doc any
	if err := c.rest.Get(ctx, fiatMapPath, nil, &doc); err != nil {
		return "", errors.Wrapf(ErrPriceUnavailable, "fiat map: %v", err)
	}

	raw, err := firstFloat(doc, fmt.Sprintf(`$.data[?(@.symbol == "%s")].id`, code))
	if err != nil {
		return "", errors.Wrapf(ErrUnsupportedCurrency, "%s not in fiat map", code)
	}
	id := strconv.FormatInt(int64(raw), 10)
	c.ids.put(code, id)

	return id, nil
}

// firstFloat evaluates path and keeps the first match when jsonpath returns a list.
func firstFloat(doc any, path string) (float64, error) {
	val, err := jsonpath.Get(path, doc)
	if err != nil {
		return 0, err
	}
	if list, ok := val.([]any); ok {
		if len(list) == 0 {
			return 0, errors.Errorf("no match for %s", path)
		}
		val = list[0]
	}
	f, ok := val.(float64)
	if !ok {
		return 0, errors.Errorf("%s is not a number: %v", path, val)
	}
	return f, nil
}
