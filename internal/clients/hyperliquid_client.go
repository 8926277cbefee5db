package clients

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"

	"github.com/vadiminshakov/balancecheck/internal/domain"
	"github.com/vadiminshakov/balancecheck/internal/services/pricer"
)

// HyperliquidQuote quote asset of every Hyperliquid mid price.
const HyperliquidQuote = "USDC"

// hyperliquidInfo read-only part of the SDK info endpoint.
type hyperliquidInfo interface {
	SpotUserState(ctx context.Context, address string) (*hyperliquid.SpotUserState, error)
	UserState(ctx context.Context, address string) (*hyperliquid.UserState, error)
	AllMids(ctx context.Context) (map[string]string, error)
}

type HyperliquidClient struct {
	info        hyperliquidInfo
	accountAddr string
}

func NewHyperliquidClient(privateKeyHex string, baseURL string) (*HyperliquidClient, error) {
	privateKey, accountAddr, err := parseHyperliquidKey(privateKeyHex)
	if err != nil {
		return nil, err
	}

	// build exchange; Info and SpotMeta are fetched lazily by the SDK
	ex := hyperliquid.NewExchange(
		context.Background(),
		privateKey,
		baseURL,
		nil,
		"",
		accountAddr,
		nil,
	)

	return &HyperliquidClient{info: ex.Info(), accountAddr: accountAddr}, nil
}

// HyperliquidAddress derives the account address from a hex private key.
func HyperliquidAddress(privateKeyHex string) (string, error) {
	_, addr, err := parseHyperliquidKey(privateKeyHex)
	return addr, err
}

func parseHyperliquidKey(privateKeyHex string) (*ecdsa.PrivateKey, string, error) {
	key := strings.TrimSpace(privateKeyHex)
	if len(key) >= 2 && (key[:2] == "0x" || key[:2] == "0X") {
		key = key[2:]
	}

	privateKey, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, "", errors.Wrap(err, "parse hyperliquid private key")
	}

	pub := privateKey.Public()
	pubECDSA, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, "", fmt.Errorf("error casting public key to ECDSA")
	}
	return privateKey, crypto.PubkeyToAddress(*pubECDSA).Hex(), nil
}

func (c *HyperliquidClient) AccountAddress() string { return c.accountAddr }

// Balances reports spot token totals as spot and the perp account value as
// USDC margin. Open perp positions are already priced into the account value,
// so their sizes are not reported.
func (c *HyperliquidClient) Balances(ctx context.Context) ([]domain.Balance, error) {
	spot, err := c.info.SpotUserState(ctx, c.accountAddr)
	if err != nil {
		return nil, errors.Wrap(err, "get spot user state")
	}

	var balances []domain.Balance
	for _, b := range spot.Balances {
		amount, err := decimal.NewFromString(b.Total)
		if err != nil {
			return nil, errors.Wrapf(err, "parse spot balance of %s", b.Coin)
		}
		balances = append(balances, domain.Balance{Asset: b.Coin, Amount: amount, Account: domain.AccountTypeSpot})
	}

	perp, err := c.info.UserState(ctx, c.accountAddr)
	if err != nil {
		return nil, errors.Wrap(err, "get user state")
	}
	equity, err := perpEquity(perp)
	if err != nil {
		return nil, err
	}
	if !equity.IsZero() {
		balances = append(balances, domain.Balance{Asset: HyperliquidQuote, Amount: equity, Account: domain.AccountTypeMargin})
	}
	return balances, nil
}

// perpEquity collateral plus unrealized pnl of the perp account.
func perpEquity(st *hyperliquid.UserState) (decimal.Decimal, error) {
	value := strings.TrimSpace(st.MarginSummary.AccountValue)
	if value == "" {
		return decimal.Zero, nil
	}
	equity, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "parse perp account value")
	}
	return equity, nil
}

// PriceSnapshot maps every mid price to a COIN+USDC pair.
func (c *HyperliquidClient) PriceSnapshot(ctx context.Context) (pricer.Snapshot, error) {
	mids, err := c.info.AllMids(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get all mids")
	}

	prices := make(map[string]decimal.Decimal, len(mids))
	for coin, mid := range mids {
		// spot indices like "@107" are not tickers
		if strings.HasPrefix(coin, "@") {
			continue
		}
		price, err := decimal.NewFromString(mid)
		if err != nil {
			continue
		}
		prices[coin+HyperliquidQuote] = price
	}
	return pricer.NewStaticSnapshot(prices), nil
}
