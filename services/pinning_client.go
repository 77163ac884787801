package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	pinRequestTimeout = 30 * time.Second
	defaultPinBaseURL = "https://api.pinata.cloud"
)

// PinningClient stores a canonical JSON document in a content-addressed
// store and returns its content hash.
type PinningClient interface {
	Pin(ctx context.Context, name string, document interface{}) (string, error)
}

// HTTPPinningClient pins JSON documents through a Pinata-compatible API.
type HTTPPinningClient struct {
	baseURL string
	jwt     string
	client  *http.Client
}

// NewHTTPPinningClient constructs an HTTPPinningClient from PINNING_API_URL
// and PINNING_API_JWT.
func NewHTTPPinningClient(client *http.Client) *HTTPPinningClient {
	if client == nil {
		client = &http.Client{Timeout: pinRequestTimeout}
	}
	baseURL := os.Getenv("PINNING_API_URL")
	if baseURL == "" {
		baseURL = defaultPinBaseURL
	}
	return &HTTPPinningClient{
		baseURL: baseURL,
		jwt:     os.Getenv("PINNING_API_JWT"),
		client:  client,
	}
}

type pinRequest struct {
	PinataMetadata struct {
		Name string `json:"name"`
	} `json:"pinataMetadata"`
	PinataContent interface{} `json:"pinataContent"`
}

type pinResponse struct {
	IpfsHash string `json:"IpfsHash"`
}

// Pin submits the document and returns the content hash.
func (c *HTTPPinningClient) Pin(ctx context.Context, name string, document interface{}) (string, error) {
	reqBody := pinRequest{PinataContent: document}
	reqBody.PinataMetadata.Name = name

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.jwt)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("pinning service returned status %d: %s", resp.StatusCode, string(body))
	}

	var pinResp pinResponse
	if err := json.NewDecoder(resp.Body).Decode(&pinResp); err != nil {
		return "", fmt.Errorf("failed to decode pinning response: %w", err)
	}
	if pinResp.IpfsHash == "" {
		return "", fmt.Errorf("pinning service returned an empty content hash")
	}
	return pinResp.IpfsHash, nil
}
