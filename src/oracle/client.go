package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

const (
	defaultRetryAttempts   = 5
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 8 * time.Second
)

// ErrTokenNotFound means the oracle has no XRP-quoted pair for the requested
// token: it is unknown or has been delisted. This is a terminal condition,
// unlike transport failures which are retryable.
var ErrTokenNotFound = errors.New("token not found on price oracle")

// TokenDetails is the current market snapshot of one issued token.
type TokenDetails struct {
	Address      string
	Name         string
	Issuer       string
	Price        decimal.Decimal // in XRP
	PriceUsd     decimal.Decimal
	LiquidityUsd decimal.Decimal
}

type pairResponse struct {
	BaseToken struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	QuoteToken struct {
		Address string `json:"address"`
	} `json:"quoteToken"`
	PriceNative string `json:"priceNative"`
	PriceUsd    string `json:"priceUsd"`
	Liquidity   struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}

	code := r.StatusCode()

	if code >= 500 && code <= 599 {
		return true
	}
	if code == 429 {
		return true
	}
	if code == 408 {
		return true
	}
	return false
}

// Client looks up token prices on DexScreener.
type Client struct {
	http *resty.Client
}

func NewClient() *Client {
	config := GetConfig()

	http := resty.New().
		SetBaseURL(config.Endpoint).
		SetTimeout(config.RequestTimeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &Client{http: http}
}

// WithBaseURL overrides the endpoint, for tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.http.SetBaseURL(baseURL)
	return c
}

// GetTokenDetails resolves a single CURRENCY.ISSUER token address to its
// current XRP and USD prices.
func (c *Client) GetTokenDetails(ctx context.Context, address string) (*TokenDetails, error) {
	details, err := c.GetTokensDetails(ctx, []string{address})
	if err != nil {
		return nil, err
	}

	for i := range details {
		if details[i].Address == address {
			return &details[i], nil
		}
	}
	// The oracle answered but without a pair for this exact address.
	if len(details) > 0 {
		return &details[0], nil
	}
	return nil, ErrTokenNotFound
}

// GetTokensDetails is the batched variant used by the slower audit/refresh
// path. Tokens without an XRP-quoted pair are silently absent from the
// result; an entirely empty result is ErrTokenNotFound.
func (c *Client) GetTokensDetails(ctx context.Context, addresses []string) ([]TokenDetails, error) {
	if len(addresses) == 0 {
		return nil, nil
	}

	var pairs []pairResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&pairs).
		Get("/tokens/v1/xrpl/" + strings.Join(addresses, ","))

	if err != nil {
		return nil, fmt.Errorf("price lookup failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("price lookup returned status %d", resp.StatusCode())
	}

	tokens := make([]TokenDetails, 0, len(pairs))
	for _, p := range pairs {
		if p.QuoteToken.Address != "XRP" {
			continue
		}

		price, err := decimal.NewFromString(p.PriceNative)
		if err != nil {
			logger.WithField("priceNative", p.PriceNative).
				Warn("skipping pair with unparsable native price")
			continue
		}
		priceUsd, err := decimal.NewFromString(p.PriceUsd)
		if err != nil {
			logger.WithField("priceUsd", p.PriceUsd).
				Warn("skipping pair with unparsable usd price")
			continue
		}

		issuer := ""
		if parts := strings.SplitN(p.BaseToken.Address, ".", 2); len(parts) == 2 {
			issuer = parts[1]
		}

		tokens = append(tokens, TokenDetails{
			Address:      p.BaseToken.Address,
			Name:         p.BaseToken.Name,
			Issuer:       issuer,
			Price:        price,
			PriceUsd:     priceUsd,
			LiquidityUsd: decimal.NewFromFloat(p.Liquidity.USD),
		})
	}

	if len(tokens) == 0 {
		return nil, ErrTokenNotFound
	}

	return tokens, nil
}
