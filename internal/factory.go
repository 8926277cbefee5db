package internal

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/balancecheck/config"
	"github.com/vadiminshakov/balancecheck/internal/clients"
	"github.com/vadiminshakov/balancecheck/internal/services/exchange"
	"github.com/vadiminshakov/balancecheck/internal/services/fiat"
	"github.com/vadiminshakov/balancecheck/internal/services/imagehost"
	"github.com/vadiminshakov/balancecheck/internal/services/notifier"
	"github.com/vadiminshakov/balancecheck/internal/services/portfolio"
	"github.com/vadiminshakov/balancecheck/internal/services/pricer"
)

func newRESTClient(cfg *config.Config, baseURL string, signer clients.Signer, logger *zap.Logger, extra ...clients.RESTOption) *clients.RESTClient {
	opts := []clients.RESTOption{clients.WithTimeout(cfg.RequestTimeout), clients.WithLogger(logger)}
	if signer != nil {
		opts = append(opts, clients.WithSigner(signer))
	}
	return clients.NewRESTClient(baseURL, append(opts, extra...)...)
}

// NewConverter CoinMarketCap backed stable to fiat converter with its own
// HTTP client. ids may be nil.
func NewConverter(cfg *config.Config, ids *fiat.IDCache, logger *zap.Logger) *fiat.CoinMarketCap {
	rest := newRESTClient(cfg, fiat.CoinMarketCapBaseURL, fiat.APIKeySigner(cfg.CoinMarketCapAPIKey), logger)
	return fiat.NewCoinMarketCap(rest, logger, fiat.WithIDCache(ids))
}

// NewAdapters one adapter per enabled exchange, in report order. Exchanges
// without credentials still get an adapter so the report shows them as empty.
// Every adapter gets its own converter; ids is the only state they share.
func NewAdapters(cfg *config.Config, ids *fiat.IDCache, logger *zap.Logger) []exchange.Exchange {
	if ids == nil {
		ids = fiat.NewIDCache()
	}

	enabled := cfg.EnabledExchanges()
	adapters := make([]exchange.Exchange, 0, len(enabled))
	for _, name := range enabled {
		settings := exchange.Settings{
			Fiat:          cfg.Fiat,
			DustThreshold: cfg.DustThreshold,
			Oracle:        pricer.NewOracle(logger, pricer.WithStable(cfg.Stable), pricer.WithAnchors(cfg.Anchors...)),
			Converter:     NewConverter(cfg, ids, logger),
			Logger:        logger,
		}
		adapters = append(adapters, newAdapter(name, cfg, settings, logger))
	}
	return adapters
}

// newAdapter unconfigured gateways are left as nil interfaces, which the
// adapters report as not configured.
func newAdapter(name string, cfg *config.Config, s exchange.Settings, logger *zap.Logger) exchange.Exchange {
	switch name {
	case config.Binance:
		var api exchange.BinanceAPI
		if cfg.HasBinance() {
			api = clients.NewBinanceGateway(clients.NewBinanceClient(cfg.Binance.APIKey, cfg.Binance.APISecret, cfg.RequestTimeout))
		}
		return exchange.NewBinance(api, s)

	case config.Bybit:
		var api exchange.BalanceAPI
		if cfg.HasBybit() {
			api = clients.NewBybitGateway(clients.NewBybitClient(cfg.Bybit.APIKey, cfg.Bybit.APISecret, cfg.RequestTimeout))
		}
		return exchange.NewBybit(api, s)

	case config.Coinbase:
		var api exchange.FiatPricedAPI
		if cfg.HasCoinbase() {
			signer := clients.NewCoinbaseSigner(cfg.Coinbase.APIKey, cfg.Coinbase.APISecret)
			api = clients.NewCoinbaseGateway(newRESTClient(cfg, clients.CoinbaseBaseURL, signer, logger))
		}
		return exchange.NewCoinbase(api, s)

	case config.Kucoin:
		var api exchange.FiatPricedAPI
		if cfg.HasKucoin() {
			signer := clients.NewKucoinSigner(cfg.Kucoin.APIKey, cfg.Kucoin.APISecret, cfg.Kucoin.Passphrase)
			api = clients.NewKucoinGateway(newRESTClient(cfg, clients.KucoinBaseURL, signer, logger))
		}
		return exchange.NewKucoin(api, s)

	case config.Newton:
		var api exchange.BalancesAPI
		if cfg.HasNewton() {
			signer := clients.NewNewtonSigner(cfg.Newton.APIKey, cfg.Newton.APISecret)
			api = clients.NewNewtonGateway(newRESTClient(cfg, clients.NewtonBaseURL, signer, logger))
		}
		// public market data only, no keys needed
		prices := clients.NewBinanceGateway(clients.NewBinanceClient("", "", cfg.RequestTimeout))
		return exchange.NewNewton(api, prices, s)

	case config.Hyperliquid:
		var api exchange.BalanceAPI
		if cfg.HasHyperliquid() {
			client, err := clients.NewHyperliquidClient(cfg.HyperliquidPrivateKey, cfg.HyperliquidURL)
			if err != nil {
				logger.Error("invalid hyperliquid credentials", zap.Error(err))
			} else {
				api = client
			}
		}
		s.Oracle = pricer.NewOracle(logger,
			pricer.WithStable(clients.HyperliquidQuote),
			pricer.WithPegged(cfg.Stable),
			pricer.WithAnchors(cfg.Anchors...))
		return exchange.NewHyperliquid(api, s)
	}

	// config validation rejects unknown names
	panic("unknown exchange " + name)
}

// NewExchangesFromConfig orchestrator over every enabled exchange.
func NewExchangesFromConfig(cfg *config.Config, ids *fiat.IDCache, logger *zap.Logger) *portfolio.Exchanges {
	return portfolio.NewExchanges(NewAdapters(cfg, ids, logger),
		portfolio.WithAdapterTimeout(cfg.AdapterTimeout),
		portfolio.WithLogger(logger))
}

// NewPublisher Slack webhook publisher. A webhook post that failed after Slack
// took it would be shown twice, so only rate limits are retried.
func NewPublisher(cfg *config.Config, logger *zap.Logger) *notifier.Slack {
	rest := newRESTClient(cfg, cfg.SlackWebhook, nil, logger, clients.WithRetryIf(clients.IsRateLimited))
	return notifier.NewSlack(rest, cfg.Fiat, logger)
}

// NewUploader image host selected by config. A nil uploader means graphs are
// rendered but not published.
func NewUploader(ctx context.Context, cfg *config.Config, logger *zap.Logger) (imagehost.Uploader, error) {
	switch cfg.ImageHost {
	case config.ImageHostImgur:
		if cfg.ImgurClientID == "" {
			logger.Warn("IMGUR_CLIENT_ID is not set, graph upload disabled")
			return nil, nil
		}
		rest := newRESTClient(cfg, imagehost.ImgurBaseURL, imagehost.ClientIDSigner(cfg.ImgurClientID), logger)
		return imagehost.NewImgur(rest), nil

	case config.ImageHostS3:
		up, err := imagehost.NewS3(ctx, imagehost.S3Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			PublicURL: cfg.S3.PublicURL,
			Prefix:    cfg.S3.Prefix,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create s3 uploader")
		}
		return up, nil
	}
	return nil, nil
}
