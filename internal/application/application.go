package application

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/UniM0cha/gilton-system/internal/config"
	"github.com/UniM0cha/gilton-system/internal/handler"
	"github.com/UniM0cha/gilton-system/internal/router"
	"github.com/UniM0cha/gilton-system/internal/service"
	"github.com/UniM0cha/gilton-system/internal/store"
)

// API is the HTTP + WebSocket application.
type API struct {
	cfg *config.Config
	srv *http.Server
	hub *service.RoomHub
	log *zap.Logger
}

// NewAPI creates the application: validates config, prepares the data
// directory, loads the sheet catalog and builds the router.
func NewAPI(cfg *config.Config) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := store.EnsureDataFiles(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	logger, _ := zap.NewProduction()
	if cfg.AppEnv == "development" {
		logger, _ = zap.NewDevelopment()
	}

	sheetStore := store.NewSheetStore(cfg.DataDir, logger)
	if err := sheetStore.Load(); err != nil {
		return nil, fmt.Errorf("sheet catalog: %w", err)
	}
	profileStore := store.NewProfileStore(cfg.DataDir)

	hub := service.NewRoomHub(
		service.NewSessionRegistry(),
		service.NewPresentationState(),
		sheetStore,
		service.HubOptions{
			ReplayPresentation:  cfg.ReplayPresentation,
			ValidateSheetChange: cfg.ValidateSheetChange,
			SendBufferSize:      cfg.SendBufferSize,
		},
		cfg.WSMaxMessageSize,
		cfg.WSReadBufferSize,
		cfg.WSWriteBufferSize,
		logger,
	)

	profileHandler := handler.NewProfileHandler(profileStore, logger)
	sheetHandler := handler.NewSheetHandler(sheetStore, hub, logger)
	relayWS := handler.NewRelayWSHandler(hub, logger)
	health := handler.NewHealthHandler()

	r := router.New(profileHandler, sheetHandler, relayWS, health, sheetStore.ImageDir())

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &API{cfg: cfg, srv: srv, hub: hub, log: logger}, nil
}

// Run starts the hub loop and the HTTP server, blocking until ctx is
// cancelled; then shuts down gracefully.
func (a *API) Run(ctx context.Context) error {
	defer func() { _ = a.log.Sync() }()

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	host := a.cfg.AppHost
	if host == "0.0.0.0" {
		host = "localhost"
	}
	base := "http://" + host + ":" + a.cfg.HTTPPort
	log.Printf("HTTP server listening on %s", a.srv.Addr)
	log.Printf("  Health:    %s/health", base)
	log.Printf("  Profiles:  %s/profiles", base)
	log.Printf("  Sheets:    %s/api/sheets", base)
	log.Printf("  WebSocket: ws://%s:%s/ws", host, a.cfg.HTTPPort)

	go func() {
		if err := a.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}
