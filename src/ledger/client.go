package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

var dropsPerXRP = decimal.New(1, 6)

// Client is a request/response XRPL websocket client. A mutex serializes
// requests on the shared connection, so one instance is safe for concurrent
// use by the per-user scan goroutines. A failed request closes the
// connection; the next request redials.
type Client struct {
	cfg Config
	log *logger.Entry

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient() *Client {
	return &Client{
		cfg: GetConfig(),
		log: logger.WithField("component", "ledger.Client"),
	}
}

// WithURL overrides the node endpoint, for tests.
func (c *Client) WithURL(url string) *Client {
	c.cfg.URL = url
	return c
}

func (c *Client) ensureConnected(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to ledger node %s: %w", c.cfg.URL, err)
	}

	c.conn = conn
	c.log.WithField("url", c.cfg.URL).Info("connected to ledger node")
	return nil
}

func (c *Client) dropConn() {
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

// Close shuts the websocket connection down.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropConn()
}

type responseEnvelope struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	Status       string          `json:"status"`
	Result       json.RawMessage `json:"result"`
	Error        string          `json:"error"`
	ErrorMessage string          `json:"error_message"`
}

// apiError is a ledger-level error answer (e.g. actNotFound) as opposed to a
// transport failure.
type apiError struct {
	Code    string
	Message string
}

func (e *apiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("ledger error %s: %s", e.Code, e.Message)
	}
	return "ledger error " + e.Code
}

func isAPIError(err error, code string) bool {
	var ae *apiError
	return errors.As(err, &ae) && ae.Code == code
}

// do sends one command and waits for the matching answer. Stream messages
// without our id are skipped.
func (c *Client) do(ctx context.Context, req map[string]interface{}) (json.RawMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConnected(ctx); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	req["id"] = id

	deadline := time.Now().Add(c.cfg.RequestTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = c.conn.SetWriteDeadline(deadline)
	_ = c.conn.SetReadDeadline(deadline)

	if err := c.conn.WriteJSON(req); err != nil {
		c.dropConn()
		return nil, fmt.Errorf("ledger write failed: %w", err)
	}

	for {
		var envelope responseEnvelope
		if err := c.conn.ReadJSON(&envelope); err != nil {
			c.dropConn()
			return nil, fmt.Errorf("ledger read failed: %w", err)
		}
		if envelope.ID != id {
			continue
		}
		if envelope.Status == "error" {
			return nil, &apiError{Code: envelope.Error, Message: envelope.ErrorMessage}
		}
		return envelope.Result, nil
	}
}

// XrpBalance returns the full XRP balance of an account, reserves included.
func (c *Client) XrpBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	result, err := c.do(ctx, map[string]interface{}{
		"command":      "account_info",
		"account":      address,
		"ledger_index": "validated",
	})
	if err != nil {
		if isAPIError(err, "actNotFound") {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	var parsed struct {
		AccountData struct {
			Balance string `json:"Balance"`
		} `json:"account_data"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return decimal.Zero, fmt.Errorf("malformed account_info result: %w", err)
	}

	drops, err := decimal.NewFromString(parsed.AccountData.Balance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("malformed account balance %q: %w", parsed.AccountData.Balance, err)
	}

	return drops.Div(dropsPerXRP), nil
}

// AccountSequence returns the next transaction sequence number of an
// account, read from the in-progress ledger so back-to-back submissions see
// their own queued transactions.
func (c *Client) AccountSequence(ctx context.Context, address string) (uint32, error) {
	result, err := c.do(ctx, map[string]interface{}{
		"command":      "account_info",
		"account":      address,
		"ledger_index": "current",
	})
	if err != nil {
		return 0, err
	}

	var parsed struct {
		AccountData struct {
			Sequence uint32 `json:"Sequence"`
		} `json:"account_data"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return 0, fmt.Errorf("malformed account_info result: %w", err)
	}

	return parsed.AccountData.Sequence, nil
}

// TrustLine is one account_lines entry.
type TrustLine struct {
	Account  string `json:"account"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
}

// Trustlines returns every open trustline of an account.
func (c *Client) Trustlines(ctx context.Context, address string) ([]TrustLine, error) {
	result, err := c.do(ctx, map[string]interface{}{
		"command":      "account_lines",
		"account":      address,
		"ledger_index": "validated",
	})
	if err != nil {
		if isAPIError(err, "actNotFound") {
			return nil, nil
		}
		return nil, err
	}

	var parsed struct {
		Lines []TrustLine `json:"lines"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return nil, fmt.Errorf("malformed account_lines result: %w", err)
	}

	return parsed.Lines, nil
}

// TrustlineBalance returns the held balance of one specific issued token,
// zero when the trustline does not exist.
func (c *Client) TrustlineBalance(ctx context.Context, address, currency, issuer string) (decimal.Decimal, error) {
	result, err := c.do(ctx, map[string]interface{}{
		"command":  "account_lines",
		"account":  address,
		"peer":     issuer,
		"currency": currency,
	})
	if err != nil {
		if isAPIError(err, "actNotFound") {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}

	var parsed struct {
		Lines []TrustLine `json:"lines"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return decimal.Zero, fmt.Errorf("malformed account_lines result: %w", err)
	}

	for _, line := range parsed.Lines {
		if line.Currency == currency && line.Account == issuer {
			balance, err := decimal.NewFromString(line.Balance)
			if err != nil {
				return decimal.Zero, fmt.Errorf("malformed trustline balance %q: %w", line.Balance, err)
			}
			return balance, nil
		}
	}

	return decimal.Zero, nil
}

// AvailableBalance is the spendable XRP balance: ledger balance minus the
// base reserve minus one owner reserve per open trustline.
func (c *Client) AvailableBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	balance, err := c.XrpBalance(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}

	lines, err := c.Trustlines(ctx, address)
	if err != nil {
		return decimal.Zero, err
	}

	reserve := decimal.NewFromFloat(c.cfg.BaseReserveXRP).
		Add(decimal.NewFromFloat(c.cfg.OwnerReserveXRP).Mul(decimal.NewFromInt(int64(len(lines)))))

	return balance.Sub(reserve), nil
}

// LedgerIndex returns the current (in-progress) ledger index.
func (c *Client) LedgerIndex(ctx context.Context) (uint32, error) {
	result, err := c.do(ctx, map[string]interface{}{
		"command": "ledger_current",
	})
	if err != nil {
		return 0, err
	}

	var parsed struct {
		LedgerCurrentIndex uint32 `json:"ledger_current_index"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return 0, fmt.Errorf("malformed ledger_current result: %w", err)
	}

	return parsed.LedgerCurrentIndex, nil
}

// IsValidToken checks that the issuing account actually issues the currency.
func (c *Client) IsValidToken(ctx context.Context, currency, issuer string) (bool, error) {
	result, err := c.do(ctx, map[string]interface{}{
		"command": "account_currencies",
		"account": issuer,
	})
	if err != nil {
		if isAPIError(err, "actNotFound") {
			return false, nil
		}
		return false, err
	}

	var parsed struct {
		SendCurrencies []string `json:"send_currencies"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return false, fmt.Errorf("malformed account_currencies result: %w", err)
	}

	for _, cur := range parsed.SendCurrencies {
		if cur == currency {
			return true, nil
		}
	}
	return false, nil
}
