package configuration

import (
	"os"

	"go.uber.org/zap"

	"Murmur/internal/auth"
	"Murmur/internal/monitor"
	"Murmur/internal/rest"
	"Murmur/internal/router"
	"Murmur/internal/store"
	"Murmur/internal/transport"
)

type Container struct {
	Store     *store.Store
	Transport *transport.Manager
	Monitor   *monitor.Service
	Config    Config
	Logger    *zap.Logger
}

func BuildContainer(configPath string) (*Container, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	// An empty token is a defined do-not-connect state; the container still
	// comes up for REST-only use.
	creds, err := auth.NewCredentials(os.Getenv("MURMUR_TOKEN"))
	if err != nil {
		return nil, err
	}

	api := rest.NewClient(config.API.BaseURL, creds, logger)
	conversationStore := store.New(api, creds.Identity(), logger, store.Options{
		TypingTTL: config.TypingTTL(),
	})

	eventRouter := router.NewRouter(conversationStore, logger)
	manager := transport.NewManager(config.Socket.URL, creds, eventRouter, logger, transport.Options{
		KeepaliveInterval:    config.KeepaliveInterval(),
		ReconnectBaseDelay:   config.ReconnectBaseDelay(),
		MaxReconnectAttempts: config.Socket.MaxReconnectAttempts,
		QueueSize:            config.Socket.QueueSize,
	})
	conversationStore.SetSender(manager)

	return &Container{
		Store:     conversationStore,
		Transport: manager,
		Monitor:   monitor.NewService(manager, conversationStore),
		Config:    *config,
		Logger:    logger,
	}, nil
}

// Close gracefully shuts down the sync core.
func (c *Container) Close() error {
	if c.Transport != nil {
		c.Transport.Disconnect()
	}
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}
	return nil
}
