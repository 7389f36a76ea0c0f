/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"errors"
	"fmt"
	golog "log"
	"net/http"
	"time"

	"github.com/acronis/go-appkit/config"
	"github.com/acronis/go-appkit/httpserver/middleware"
	"github.com/acronis/go-appkit/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	resourceserver "github.com/acronis/go-resourceserver"
	"github.com/acronis/go-resourceserver/authlete"
	"github.com/acronis/go-resourceserver/internal/apiutil"
	"github.com/acronis/go-resourceserver/userdb"
)

const serviceEnvVarPrefix = "RESOURCE_SERVER"

func main() {
	if err := runApp(); err != nil {
		golog.Fatal(err)
	}
}

func runApp() error {
	cfg := NewAppConfig()
	if err := config.NewDefaultLoader(serviceEnvVarPrefix).LoadFromFile("config.yml", config.DataTypeYAML, cfg); err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, loggerClose := log.NewLogger(cfg.Log)
	defer loggerClose()

	// Create the client for the remote authorization service API.
	httpClient := apiutil.MakeDefaultHTTPClient(time.Duration(cfg.Service.HTTPClient.RequestTimeout), logger)
	apiClient := authlete.NewClientWithOpts(
		cfg.Service.API.BaseURL, cfg.Service.API.ServiceAPIKey, cfg.Service.API.ServiceAPISecret,
		authlete.ClientOpts{HTTPClient: httpClient, Logger: logger})

	tokenValidator := resourceserver.NewTokenValidator(apiClient)
	userInfoHandler := resourceserver.NewUserInfoRequestHandler(apiClient, userdb.NewInMemoryDatabase())

	srvMux := http.NewServeMux()
	srvMux.Handle("/api/time", resourceserver.NewTimeEndpoint(tokenValidator))
	srvMux.Handle("/api/userinfo", resourceserver.NewUserInfoEndpoint(tokenValidator, userInfoHandler))
	srvMux.Handle("/metrics", promhttp.Handler())
	srvHandler := middleware.RequestID()(middleware.Logging(logger)(srvMux))

	logger.Info("resource server is starting", log.String("address", cfg.Service.Server.Address))
	if err := http.ListenAndServe(cfg.Service.Server.Address, srvHandler); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve HTTP server: %w", err)
	}

	return nil
}

type AppConfig struct {
	Log     *log.Config
	Service *resourceserver.Config
}

func NewAppConfig() *AppConfig {
	return &AppConfig{
		Log:     log.NewConfig(log.WithKeyPrefix("log")),
		Service: resourceserver.NewConfig(),
	}
}

func (c *AppConfig) SetProviderDefaults(dp config.DataProvider) {
	config.CallSetProviderDefaultsForFields(c, dp)
}

func (c *AppConfig) Set(dp config.DataProvider) error {
	return config.CallSetForFields(c, dp)
}
