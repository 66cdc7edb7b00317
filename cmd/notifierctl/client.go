package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"activitynotifier/internal/models"
	"activitynotifier/internal/version"
)

// apiError is a non-2xx response from the notifier.
type apiError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *apiError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", e.Message, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.StatusCode)
}

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: reqTimeout},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &apiError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var errResp models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Message != "" {
			apiErr.Code = errResp.Code
			apiErr.Message = errResp.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func identityPath(prefix, identity string) string {
	return prefix + "/" + url.PathEscape(identity)
}

func (c *apiClient) TrackActivity(ctx context.Context, req *models.TrackActivityRequest) (*models.ActivityResult, error) {
	var result models.ActivityResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/activities", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *apiClient) Simulate(ctx context.Context, count int) (*models.SimulateResponse, error) {
	var resp models.SimulateResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/simulate", &models.SimulateRequest{Count: count}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) RateLimitStatus(ctx context.Context, identity string) (*models.IdentityRateLimits, error) {
	var status models.IdentityRateLimits
	if err := c.do(ctx, http.MethodGet, identityPath("/api/v1/ratelimits", identity), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *apiClient) ResetRateLimits(ctx context.Context, identity string) (*models.ResetRateLimitsResponse, error) {
	var resp models.ResetRateLimitsResponse
	if err := c.do(ctx, http.MethodDelete, identityPath("/api/v1/ratelimits", identity), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *apiClient) Users(ctx context.Context) ([]*models.UserProfile, error) {
	var profiles []*models.UserProfile
	if err := c.do(ctx, http.MethodGet, "/api/v1/users", nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (c *apiClient) GetUser(ctx context.Context, identity string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, http.MethodGet, identityPath("/api/v1/users", identity), nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *apiClient) RegisterUser(ctx context.Context, req *models.RegisterUserRequest) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := c.do(ctx, http.MethodPost, "/api/v1/users", req, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *apiClient) UpdatePreference(ctx context.Context, identity string, kind models.ActivityKind, selector models.ChannelSelector) (*models.UserProfile, error) {
	var profile models.UserProfile
	path := identityPath("/api/v1/users", identity) + "/preferences/" + kind.String()
	if err := c.do(ctx, http.MethodPut, path, &models.UpdatePreferenceRequest{Channel: selector}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *apiClient) DeleteUser(ctx context.Context, identity string) error {
	return c.do(ctx, http.MethodDelete, identityPath("/api/v1/users", identity), nil, nil)
}
