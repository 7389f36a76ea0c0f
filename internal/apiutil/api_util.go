/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package apiutil

import (
	"context"
	"net/http"
	"time"

	"github.com/acronis/go-appkit/httpclient"
	"github.com/acronis/go-appkit/log"

	"github.com/acronis/go-resourceserver/internal/libinfo"
)

const (
	DefaultHTTPRequestTimeout          = 30 * time.Second
	DefaultHTTPRequestMaxRetryAttempts = 3
)

func MakeDefaultHTTPClient(reqTimeout time.Duration, logger log.FieldLogger) *http.Client {
	if reqTimeout == 0 {
		reqTimeout = DefaultHTTPRequestTimeout
	}
	var tr http.RoundTripper = http.DefaultTransport.(*http.Transport).Clone()
	tr, _ = httpclient.NewRetryableRoundTripperWithOpts(tr, httpclient.RetryableRoundTripperOpts{
		MaxRetryAttempts: DefaultHTTPRequestMaxRetryAttempts, Logger: logger}) // error is always nil
	tr = httpclient.NewUserAgentRoundTripper(tr, libinfo.UserAgent())
	return &http.Client{Timeout: reqTimeout, Transport: tr}
}

func PrepareLogger(logger log.FieldLogger) log.FieldLogger {
	if logger == nil {
		return log.NewDisabledLogger()
	}
	return log.NewPrefixedLogger(logger, libinfo.LogPrefix())
}

// GetLoggerFromProvider resolves a logger from the given provider
// falling back to the disabled logger when nothing is available.
func GetLoggerFromProvider(ctx context.Context, provider func(ctx context.Context) log.FieldLogger) log.FieldLogger {
	if provider != nil {
		if logger := provider(ctx); logger != nil {
			return logger
		}
	}
	return log.NewDisabledLogger()
}
