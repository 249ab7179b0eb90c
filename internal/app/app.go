package app

import (
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/fleetadmin/internal/credstore/sqlite"
	"github.com/aussiebroadwan/fleetadmin/pkg/adminsdk"
	"github.com/aussiebroadwan/fleetadmin/pkg/credstore"
	"github.com/aussiebroadwan/fleetadmin/pkg/cryptox"
	"github.com/aussiebroadwan/fleetadmin/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	// cipherLabel scopes the derived credential key.
	cipherLabel = "credstore"
)

// Application holds the wired logger, credential store and API client.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     *sqlite.Store // nil for the memory store
	store  credstore.Store
	client *adminsdk.Client
}

// New validates cfg and wires every dependency. Close releases them.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "fleetadmin",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initStore(); err != nil {
		return nil, err
	}
	app.initClient()

	return app, nil
}

func (a *Application) initStore() error {
	if a.cfg.Store == StoreMemory {
		a.store = credstore.NewMemoryStore(credstore.Session{})
		a.logger.Debug("using in-memory credential store")
		return nil
	}

	c, err := a.cipher()
	if err != nil {
		return err
	}

	db, err := sqlite.Open(a.cfg.DatabaseFile)
	if err != nil {
		return err
	}

	a.db = db
	a.store = credstore.NewEncryptedStore(db, c, a.cfg.Namespace)
	a.logger.Debug("using sqlite credential store",
		"file", a.cfg.DatabaseFile,
		"namespace", a.cfg.Namespace,
	)
	return nil
}

func (a *Application) cipher() (*cryptox.Cipher, error) {
	if a.cfg.EncryptionKeyFile != "" {
		c, err := cryptox.NewCipherFromFile(a.cfg.EncryptionKeyFile, cipherLabel)
		if err != nil {
			return nil, fmt.Errorf("failed to load encryption key: %w", err)
		}
		return c, nil
	}

	c, err := cryptox.NewCipher([]byte(a.cfg.EncryptionKey), cipherLabel)
	if err != nil {
		return nil, fmt.Errorf("failed to load encryption key: %w", err)
	}
	return c, nil
}

func (a *Application) initClient() {
	client := adminsdk.NewClient(a.cfg.BaseURL, a.store)
	client.HTTPClient.Timeout = a.cfg.Timeout
	client.Logger = a.logger
	client.Limiter = adminsdk.NewLimiter(a.cfg.RateLimit, a.cfg.RateBurst)
	a.client = client
}

func (a *Application) Client() *adminsdk.Client { return a.client }

func (a *Application) Logger() *slog.Logger { return a.logger }

func (a *Application) Store() credstore.Store { return a.store }

func (a *Application) Config() Config { return a.cfg }

// Close releases the credential database, if any.
func (a *Application) Close() error {
	if a.db == nil {
		return nil
	}
	db := a.db
	a.db = nil
	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close credential database: %w", err)
	}
	return nil
}
