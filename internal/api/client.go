// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Contract selects the query endpoint.
type Contract string

const (
	// ContractChat is POST /chat with the success/data/error envelope.
	ContractChat Contract = "chat"
	// ContractLegacy is POST /query with the flat status body.
	ContractLegacy Contract = "legacy"
)

const (
	DefaultBaseURL = "http://localhost:13000/api"
	DefaultTimeout = 60 * time.Second

	// maxBodyBytes bounds how much of a response is read.
	maxBodyBytes = 16 << 20
)

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL is the API root including the /api prefix.
	BaseURL string

	// Timeout bounds every request (default: 60s). Queries that run SQL
	// on the backend can be slow.
	Timeout time.Duration

	// Contract selects /chat or the legacy /query for Ask.
	Contract Contract

	// SessionID is sent with /chat requests when set.
	SessionID string

	// UserAgent overrides the User-Agent header.
	UserAgent string
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:   DefaultBaseURL,
		Timeout:   DefaultTimeout,
		Contract:  ContractChat,
		UserAgent: "chatbi-tui",
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client talks to the Chat-BI backend. It is safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

// NewClient creates a client with the default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a client, filling zero values with defaults.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	if config.Contract == "" {
		config.Contract = ContractChat
	}
	if config.UserAgent == "" {
		config.UserAgent = "chatbi-tui"
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.config.BaseURL
}

// Contract returns the configured query contract.
func (c *Client) Contract() Contract {
	return c.config.Contract
}

// CheckReachable verifies that something answers HTTP at the base URL.
// Any status counts; only transport failures are errors.
func (c *Client) CheckReachable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/health", nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(ctx, err)
	}
	resp.Body.Close()
	return nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

// do performs one JSON request. in is encoded as the body when non-nil;
// out receives the payload, unwrapped from the envelope when present.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to marshal request", Cause: err}
		}
		body = bytes.NewReader(data)
	}

	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Debug().Str("method", method).Str("path", path).Err(err).Msg("api request failed")
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return transportError(ctx, err)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Int("bytes", len(raw)).
		Msg("api request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, errorDetail(raw))
	}
	if out == nil {
		return nil
	}
	return decodePayload(raw, out)
}

// decodePayload unwraps the envelope when the body has a success field and
// decodes a bare payload otherwise.
func decodePayload(raw []byte, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "empty response body"}
	}

	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Success != nil {
			if !*env.Success {
				return businessError(env.Error)
			}
			trimmed = env.Data
			if len(trimmed) == 0 {
				return &ClientError{Type: ErrTypeInvalidResponse, Message: "envelope has no data"}
			}
		}
	}

	if bytes.Equal(trimmed, jsonNull) && !acceptsNull(out) {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "response payload is null"}
	}
	if err := json.Unmarshal(trimmed, out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

var jsonNull = []byte("null")

// acceptsNull reports whether a null payload is a valid value for out.
// Lists may be encoded as null when empty; objects may not.
func acceptsNull(out any) bool {
	v := reflect.ValueOf(out)
	return v.Kind() == reflect.Pointer && v.Elem().Kind() == reflect.Slice
}

func businessError(e *envelopeError) error {
	msg := "backend reported failure"
	if e != nil && e.Message != "" {
		msg = e.Message
	}
	ce := &ClientError{Type: ErrTypeBusiness, Message: msg}
	if e != nil && e.Code != 0 {
		ce.Message = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	return ce
}

// errorDetail extracts a human readable message from an error body.
func errorDetail(raw []byte) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil {
		return strings.TrimSpace(string(raw[:min(len(raw), 200)]))
	}
	switch {
	case eb.Error != nil && eb.Error.Message != "":
		return eb.Error.Message
	case eb.Message != "":
		return eb.Message
	case eb.Detail != nil:
		if s, ok := eb.Detail.(string); ok {
			return s
		}
		data, _ := json.Marshal(eb.Detail)
		return string(data)
	}
	return ""
}
