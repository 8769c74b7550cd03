package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/congo-pay/admin_console/internal/document"
)

// DefaultTimeout bounds a single verification call.
const DefaultTimeout = 30 * time.Second

const maxBodyBytes = 1 << 20

// Response is the provider envelope. Data is left undecoded; its shape
// depends on the document type.
type Response struct {
	Status  bool            `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client calls the identity verification provider.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a provider client. A zero timeout uses DefaultTimeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Verify submits req for subjectID. Calls are never retried; a provider
// answer with status false is returned as an *Error of CategoryProviderFailure.
func (c *Client) Verify(ctx context.Context, subjectID string, req document.Request) (Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return Response{}, fmt.Errorf("encode verification request: %w", err)
	}

	endpoint := c.baseURL + "/verify-id/" + url.PathEscape(subjectID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("build verification request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, classifyTransport(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Response{}, &Error{Category: CategoryTransport, StatusCode: resp.StatusCode, Underlying: err}
	}

	if c.logger != nil {
		c.logger.Debug("provider call completed",
			slog.String("document_type", req.DocumentType.String()),
			slog.Int("status", resp.StatusCode),
			slog.Duration("duration", time.Since(start)),
		)
	}

	var envelope Response
	decodeErr := json.Unmarshal(payload, &envelope)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return Response{}, &Error{Category: CategoryUnauthorized, StatusCode: resp.StatusCode, Message: envelope.Message, Underlying: ErrUnauthorized}
	case resp.StatusCode == http.StatusTooManyRequests:
		return Response{}, &Error{Category: CategoryRateLimited, StatusCode: resp.StatusCode, Message: envelope.Message, Underlying: ErrRateLimited}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return Response{}, &Error{Category: CategoryTransport, StatusCode: resp.StatusCode, Message: envelope.Message}
	}

	if decodeErr != nil {
		return Response{}, &Error{Category: CategoryBadData, StatusCode: resp.StatusCode, Underlying: decodeErr}
	}
	if !envelope.Status {
		return Response{}, &Error{Category: CategoryProviderFailure, StatusCode: resp.StatusCode, Message: envelope.Message, Underlying: ErrVerificationFailed}
	}
	return envelope, nil
}

func classifyTransport(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Category: CategoryTimeout, Underlying: err}
	}
	return &Error{Category: CategoryTransport, Underlying: err}
}
