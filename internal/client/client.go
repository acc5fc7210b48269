// Package client is the applicant-facing API client used by the wizard and
// tracker front ends.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dealership/internal/model"
	"dealership/internal/service"
	"dealership/internal/wizard"
	"dealership/pkg/apperror"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 30 * time.Second

// Client talks to the dealership API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// New creates a new API client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// envelope mirrors response.Response.
type envelope struct {
	Status string            `json:"status"`
	Code   string            `json:"code"`
	Data   json.RawMessage   `json:"data"`
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// SubmitApplication posts the wizard values and returns the new tracking id.
func (c *Client) SubmitApplication(ctx context.Context, values wizard.Values) (string, error) {
	var app model.Application
	if err := c.do(ctx, http.MethodPost, "/applications", values, &app); err != nil {
		return "", err
	}
	if app.TrackingID == "" {
		return "", apperror.Transport("response did not include a tracking id", nil)
	}
	return app.TrackingID, nil
}

// Submit lets the client drive a wizard.Controller directly.
func (c *Client) Submit(ctx context.Context, values wizard.Values) (string, error) {
	return c.SubmitApplication(ctx, values)
}

// Track fetches the public view of an application.
func (c *Client) Track(ctx context.Context, trackingID string) (*service.TrackingResponse, error) {
	var res service.TrackingResponse
	path := "/applications/track/" + url.PathEscape(service.NormalizeTrackingID(trackingID))
	if err := c.do(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SubmitPayment records the applicant's UPI transaction details.
func (c *Client) SubmitPayment(ctx context.Context, req service.SubmitPaymentRequest) (*model.Payment, error) {
	var payment model.Payment
	if err := c.do(ctx, http.MethodPost, "/payments", req, &payment); err != nil {
		return nil, err
	}
	return &payment, nil
}

// SubmitSupport sends the contact form.
func (c *Client) SubmitSupport(ctx context.Context, req service.CreateSupportRequest) (*model.SupportRequest, error) {
	var sr model.SupportRequest
	if err := c.do(ctx, http.MethodPost, "/support", req, &sr); err != nil {
		return nil, err
	}
	return &sr, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.Transport("could not reach the server", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.Transport("could not read the server response", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if decodeErr != nil {
			return apperror.Transport("malformed server response", decodeErr)
		}
		if out != nil && len(env.Data) > 0 {
			if err := json.Unmarshal(env.Data, out); err != nil {
				return apperror.Transport("malformed server response", err)
			}
		}
		return nil
	}
	return statusError(resp.StatusCode, env, decodeErr)
}

// statusError maps a non-2xx answer onto the error taxonomy.
func statusError(status int, env envelope, decodeErr error) error {
	msg := env.Error
	if decodeErr != nil || msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusNotFound:
		return apperror.New(apperror.CodeNotFound, msg)
	case status == http.StatusConflict:
		return apperror.New(apperror.CodeConflict, msg)
	case status == http.StatusUnauthorized:
		return apperror.New(apperror.CodeUnauthorized, msg)
	case status == http.StatusForbidden:
		return apperror.New(apperror.CodeForbidden, msg)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		code := apperror.CodeValidation
		switch apperror.Code(env.Code) {
		case apperror.CodeInvalidTransition, apperror.CodeMissingPrecondition:
			code = apperror.Code(env.Code)
		}
		return &apperror.Error{Code: code, Message: msg, Fields: env.Fields}
	default:
		return apperror.Transport(msg, fmt.Errorf("server answered %d", status))
	}
}
