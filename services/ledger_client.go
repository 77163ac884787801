package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

const (
	// Ledger confirmation can take minutes on congested networks.
	ledgerRequestTimeout = 3 * time.Minute
	defaultLedgerNetwork = "polygon"
)

// TxReceipt is the confirmation returned after a ledger write.
type TxReceipt struct {
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	CostWei     string `json:"cost_wei"`
	Network     string `json:"network"`
}

// LedgerRecord is an already-anchored credit issuance.
type LedgerRecord struct {
	SubmissionID string `json:"submission_id"`
	Amount       uint64 `json:"amount"`
	ContentHash  string `json:"content_hash"`
	TxHash       string `json:"tx_hash"`
	BlockNumber  uint64 `json:"block_number"`
	Network      string `json:"network"`
}

// LedgerClient talks to the smart-contract gateway. Exists is the mandatory
// idempotency guard before any issueCredit retry.
type LedgerClient interface {
	Exists(ctx context.Context, submissionID string) (bool, error)
	IssueCredit(ctx context.Context, submissionID string, amount uint64, contentHash string) (*TxReceipt, error)
	GetCredit(ctx context.Context, submissionID string) (*LedgerRecord, error)
}

// HTTPLedgerClient calls an HTTP gateway in front of the credit contract.
type HTTPLedgerClient struct {
	baseURL string
	apiKey  string
	network string
	client  *http.Client
}

// NewHTTPLedgerClient constructs an HTTPLedgerClient from LEDGER_GATEWAY_URL,
// LEDGER_API_KEY and LEDGER_NETWORK.
func NewHTTPLedgerClient(client *http.Client) *HTTPLedgerClient {
	if client == nil {
		client = &http.Client{Timeout: ledgerRequestTimeout}
	}
	network := os.Getenv("LEDGER_NETWORK")
	if network == "" {
		network = defaultLedgerNetwork
	}
	return &HTTPLedgerClient{
		baseURL: os.Getenv("LEDGER_GATEWAY_URL"),
		apiKey:  os.Getenv("LEDGER_API_KEY"),
		network: network,
		client:  client,
	}
}

// Network returns the configured ledger network id.
func (c *HTTPLedgerClient) Network() string { return c.network }

func (c *HTTPLedgerClient) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ledger gateway returned status %d: %s", resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode ledger response: %w", err)
		}
	}
	return nil
}

// Exists checks whether a credit record is already anchored for the id.
func (c *HTTPLedgerClient) Exists(ctx context.Context, submissionID string) (bool, error) {
	var result struct {
		Exists bool `json:"exists"`
	}
	path := "/credits/" + url.PathEscape(submissionID) + "/exists"
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return false, err
	}
	return result.Exists, nil
}

// IssueCredit writes one credit record and waits for confirmation.
func (c *HTTPLedgerClient) IssueCredit(ctx context.Context, submissionID string, amount uint64, contentHash string) (*TxReceipt, error) {
	body := map[string]interface{}{
		"submission_id": submissionID,
		"amount":        amount,
		"content_hash":  contentHash,
		"network":       c.network,
	}
	var receipt TxReceipt
	if err := c.do(ctx, http.MethodPost, "/credits", body, &receipt); err != nil {
		return nil, err
	}
	if receipt.Network == "" {
		receipt.Network = c.network
	}
	return &receipt, nil
}

// GetCredit fetches an anchored credit record.
func (c *HTTPLedgerClient) GetCredit(ctx context.Context, submissionID string) (*LedgerRecord, error) {
	var record LedgerRecord
	path := "/credits/" + url.PathEscape(submissionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
