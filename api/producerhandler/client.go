package producerhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/ruteri/custom-producer-backend/api"
)

// Client calls a producer endpoint the way the secrets manager does. It is
// used by the producer CLI and by integration tests.
type Client struct {
	baseURL    string
	httpClient *http.Client

	CreateEndpoint string
	RevokeEndpoint string
	RotateEndpoint string

	// BearerToken is sent as "Authorization: Bearer <token>" when set.
	BearerToken string
}

// NewClient creates a client for the producer served under baseURL (scheme,
// host and the producer's base path). A nil httpClient means http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     httpClient,
		CreateEndpoint: DefaultCreateEndpoint,
		RevokeEndpoint: DefaultRevokeEndpoint,
		RotateEndpoint: DefaultRotateEndpoint,
	}
}

// Create requests a new credential.
func (c *Client) Create(ctx context.Context, payload map[string]any) (*api.CredentialResponse, error) {
	serialized, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("could not serialize payload: %w", err)
	}

	var resp api.CredentialResponse
	if err := c.post(ctx, c.CreateEndpoint, api.CreateRequest{Payload: string(serialized)}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Revoke revokes the credentials identified by ids.
func (c *Client) Revoke(ctx context.Context, payload map[string]any, ids ...any) (*api.RevokeResponse, error) {
	serialized, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("could not serialize payload: %w", err)
	}

	var resp api.RevokeResponse
	if err := c.post(ctx, c.RevokeEndpoint, api.RevokeRequest{Payload: string(serialized), IDs: ids}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Rotate replaces the credential identified by id.
func (c *Client) Rotate(ctx context.Context, payload map[string]any, id any) (*api.CredentialResponse, error) {
	serialized, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("could not serialize payload: %w", err)
	}

	var resp api.CredentialResponse
	if err := c.post(ctx, c.RotateEndpoint, api.RotateRequest{Payload: string(serialized), ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) post(ctx context.Context, endpoint string, request, response any) error {
	reqBody, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("could not encode request: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, strings.Trim(endpoint, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("could not initialize request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.BearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach producer: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read producer response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		if err := json.Unmarshal(body, response); err != nil {
			return fmt.Errorf("could not parse producer response: %w", err)
		}
		return nil
	case http.StatusUnprocessableEntity:
		var inputErrResp api.InputErrorResponse
		if err := json.Unmarshal(body, &inputErrResp); err == nil && len(inputErrResp.InputErrors) > 0 {
			return InputErrors(inputErrResp.InputErrors)
		}
	}

	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		errResp.Error = strings.TrimSpace(string(body))
	}
	return &RequestError{StatusCode: resp.StatusCode, Err: errors.New(errResp.Error)}
}
