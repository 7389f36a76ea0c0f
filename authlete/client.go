/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package authlete

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/acronis/go-appkit/log"

	"github.com/acronis/go-resourceserver/internal/apiutil"
	"github.com/acronis/go-resourceserver/internal/metrics"
)

const clientPromSource = "authlete_client"

// API paths relative to the service base URL.
const (
	IntrospectionPath = "/api/auth/introspection"
	UserInfoPath      = "/api/auth/userinfo"
	UserInfoIssuePath = "/api/auth/userinfo/issue"
)

// ClientOpts is a set of options for creating Client.
type ClientOpts struct {
	// HTTPClient is an HTTP client for doing requests to the authorization service API.
	HTTPClient *http.Client

	// Logger is a logger for logging errors and debug information.
	Logger log.FieldLogger

	// PrometheusLibInstanceLabel is a label for Prometheus metrics.
	// It allows distinguishing metrics from different instances of the same library.
	PrometheusLibInstanceLabel string
}

// Client calls the remote authorization service API.
// All requests are JSON POSTs authenticated with the service API credentials.
type Client struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
	logger     log.FieldLogger

	promMetrics *metrics.PrometheusMetrics
}

// NewClient creates a new Client with the given base URL and service API credentials.
func NewClient(baseURL, apiKey, apiSecret string) *Client {
	return NewClientWithOpts(baseURL, apiKey, apiSecret, ClientOpts{})
}

// NewClientWithOpts creates a new Client with the given base URL, service API credentials and options.
// See ClientOpts for more details.
func NewClientWithOpts(baseURL, apiKey, apiSecret string, opts ClientOpts) *Client {
	opts.Logger = apiutil.PrepareLogger(opts.Logger)
	if opts.HTTPClient == nil {
		opts.HTTPClient = apiutil.MakeDefaultHTTPClient(apiutil.DefaultHTTPRequestTimeout, opts.Logger)
	}
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		apiSecret:   apiSecret,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		promMetrics: metrics.GetPrometheusMetrics(opts.PrometheusLibInstanceLabel, clientPromSource),
	}
}

// Introspect calls the token introspection API.
func (c *Client) Introspect(ctx context.Context, req IntrospectionRequest) (IntrospectionResponse, error) {
	var resp IntrospectionResponse
	if err := c.callAPI(ctx, IntrospectionPath, req, &resp); err != nil {
		return IntrospectionResponse{}, err
	}
	return resp, nil
}

// UserInfo calls the userinfo API.
func (c *Client) UserInfo(ctx context.Context, req UserInfoRequest) (UserInfoResponse, error) {
	var resp UserInfoResponse
	if err := c.callAPI(ctx, UserInfoPath, req, &resp); err != nil {
		return UserInfoResponse{}, err
	}
	return resp, nil
}

// UserInfoIssue calls the userinfo issue API.
func (c *Client) UserInfoIssue(ctx context.Context, req UserInfoIssueRequest) (UserInfoIssueResponse, error) {
	var resp UserInfoIssueResponse
	if err := c.callAPI(ctx, UserInfoIssuePath, req, &resp); err != nil {
		return UserInfoIssueResponse{}, err
	}
	return resp, nil
}

func (c *Client) callAPI(ctx context.Context, path string, reqBody, respOut interface{}) error {
	targetURL := c.baseURL + path

	reqBytes, err := json.Marshal(reqBody)
	if err != nil {
		c.promMetrics.ObserveHTTPClientRequest(http.MethodPost, targetURL, 0, 0, metrics.HTTPRequestErrorEncodeBody)
		return fmt.Errorf("marshal request body for POST %s: %w", targetURL, err)
	}
	req, err := http.NewRequest(http.MethodPost, targetURL, bytes.NewReader(reqBytes))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.SetBasicAuth(c.apiKey, c.apiSecret)
	req.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	elapsed := time.Since(startTime)
	if err != nil {
		c.promMetrics.ObserveHTTPClientRequest(http.MethodPost, targetURL, 0, elapsed, metrics.HTTPRequestErrorDo)
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if closeBodyErr := resp.Body.Close(); closeBodyErr != nil {
			c.logger.Error(fmt.Sprintf("closing response body error for POST %s", targetURL),
				log.Error(closeBodyErr))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		c.promMetrics.ObserveHTTPClientRequest(
			http.MethodPost, targetURL, resp.StatusCode, elapsed, metrics.HTTPRequestErrorUnexpectedStatusCode)
		if resp.StatusCode == http.StatusUnauthorized {
			return ErrUnauthenticated
		}
		return fmt.Errorf("POST %s: %w", targetURL, &UnexpectedResponseError{StatusCode: resp.StatusCode, Header: resp.Header})
	}

	if err = json.NewDecoder(resp.Body).Decode(respOut); err != nil {
		c.promMetrics.ObserveHTTPClientRequest(
			http.MethodPost, targetURL, resp.StatusCode, elapsed, metrics.HTTPRequestErrorDecodeBody)
		return fmt.Errorf("decode response body json for POST %s: %w", targetURL, err)
	}

	c.promMetrics.ObserveHTTPClientRequest(http.MethodPost, targetURL, resp.StatusCode, elapsed, "")
	return nil
}
