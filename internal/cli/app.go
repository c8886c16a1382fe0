// Package cli implements the interactive flashdeck shell: a REPL over the
// content, review and synchronization services backed by the local store.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/tbellec/flashdeck/internal/common"
	"github.com/tbellec/flashdeck/internal/config"
	"github.com/tbellec/flashdeck/internal/filex"
	"github.com/tbellec/flashdeck/internal/logging"
	"github.com/tbellec/flashdeck/internal/remote"
	"github.com/tbellec/flashdeck/internal/repositories"
	"github.com/tbellec/flashdeck/internal/repositories/syncstate"
	"github.com/tbellec/flashdeck/internal/services"
	"github.com/tbellec/flashdeck/internal/srs"
	flashsync "github.com/tbellec/flashdeck/internal/sync"
)

// getSimpleText and getToken are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getMultiline = GetMultiline
var getToken = GetToken

// App holds the assembled services behind the REPL. The content, session
// and engine fields are nil until Login succeeds: they are scoped to the
// workspace and user carried by the access token.
type App struct {
	config *config.Config
	repos  *repositories.Repositories
	client *remote.Client
	logger logging.Logger

	claims  *remote.TokenClaims
	engine  *flashsync.Engine
	content *services.ContentService
	session *services.SessionService

	reader *bufio.Reader

	cancelBackground context.CancelFunc
}

// NewApp opens (or creates) the local database, binds the remote client and
// returns an App ready to run. No network call is made until Login.
func NewApp(ctx context.Context, cfg *config.Config, logger logging.Logger) (*App, error) {
	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dir, err := filex.EnsureDataDir("flashdeck")
		if err != nil {
			return nil, fmt.Errorf("failed to prepare data directory: %w", err)
		}
		dbPath = filepath.Join(dir, "flashdeck.db")
	}

	repos, err := repositories.Open(ctx, dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	deviceID, err := ensureDeviceID(ctx, repos.SyncState)
	if err != nil {
		return nil, err
	}
	logger = logger.With("device_id", deviceID)

	client := remote.NewClient(cfg.ServerEndpointAddr, cfg.APIKey, logger)

	return &App{
		config: cfg,
		repos:  repos,
		client: client,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

// ensureDeviceID returns the stable id of this installation, creating one
// on first start.
func ensureDeviceID(ctx context.Context, states syncstate.Repository) (string, error) {
	id, err := states.Get(ctx, syncstate.KeyDeviceID)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return "", fmt.Errorf("failed to read device id: %w", err)
	}
	id = uuid.NewString()
	if err := states.Set(ctx, syncstate.KeyDeviceID, id); err != nil {
		return "", fmt.Errorf("failed to store device id: %w", err)
	}
	return id, nil
}

func (a *App) isLoggedIn() bool {
	return a.claims != nil
}

// Login reads an access token, extracts the workspace and user it is scoped
// to, and assembles the per-account services. A background sync loop and,
// when configured, the realtime listener are started; the first sync cycle
// is kicked off immediately.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		printlnFn("Already logged in as", a.claims.Email)
		return nil
	}

	token, err := getToken(os.Stdout)
	if err != nil {
		return err
	}

	claims, err := remote.ParseTokenClaims(token)
	if err != nil {
		return fmt.Errorf("failed to parse access token: %w", err)
	}

	a.client.SetToken(token)
	a.claims = claims
	a.engine = flashsync.NewEngine(a.repos, a.client, claims.WorkspaceID, claims.UserID, a.logger)
	a.content = services.NewContentService(a.repos, claims.WorkspaceID, a.engine, a.logger)
	a.session = services.NewSessionService(a.repos, srs.DefaultParams(), claims.UserID, a.engine, a.logger)

	a.startBackground()

	go func() {
		if err := a.engine.Sync(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, common.ErrSyncInProgress) {
			a.logger.Warn(ctx, "initial sync failed", "error", err)
		}
	}()

	printlnFn("Logged in as", claims.Email)
	return nil
}

// startBackground launches the periodic sync loop and the realtime
// listener. Both stop when cancelBackground is called on logout.
func (a *App) startBackground() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelBackground = cancel

	go a.engine.Run(ctx, a.config.SyncInterval)

	if a.config.RealtimeEndpointAddr != "" {
		engine := a.engine
		handler := func(ch remote.Change) {
			if err := engine.HandleChange(ctx, ch); err != nil {
				a.logger.Warn(ctx, "failed to apply realtime change",
					"collection", ch.Collection, "error", err)
			}
		}
		listener := remote.NewListener(
			a.config.RealtimeEndpointAddr,
			a.config.APIKey,
			a.client.Token,
			handler,
			a.logger,
		)
		go func() {
			if err := listener.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn(ctx, "realtime listener stopped", "error", err)
			}
		}()
	}
}

// Logout stops the background loops, drops the token and clears the sync
// watermark so the next login starts with a full pull.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		return nil
	}
	if a.cancelBackground != nil {
		a.cancelBackground()
		a.cancelBackground = nil
	}
	if err := a.engine.Reset(ctx); err != nil {
		return err
	}
	a.client.SetToken("")
	a.claims = nil
	a.engine = nil
	a.content = nil
	a.session = nil
	printlnFn("Logged out")
	return nil
}

// Sync runs one synchronization cycle right away.
func (a *App) Sync(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.engine.Sync(ctx); err != nil {
		if errors.Is(err, common.ErrSyncInProgress) {
			printlnFn("Sync already running, changes will be picked up")
			return nil
		}
		return err
	}
	printlnFn("Sync complete")
	return nil
}

// Status reports the signed-in account and the synchronization state.
func (a *App) Status(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	printlnFn("Account:  ", a.claims.Email)
	printlnFn("Workspace:", a.claims.WorkspaceID)
	if a.engine.IsSyncing() {
		printlnFn("Sync:      running")
	} else if last := a.engine.LastSyncAt(); !last.IsZero() {
		printlnFn("Sync:      idle, last success", last.Format("2006-01-02 15:04:05"))
	} else {
		printlnFn("Sync:      never completed")
	}
	return nil
}

// Reset clears the sync watermark so the next cycle pulls everything.
func (a *App) Reset(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if err := a.engine.Reset(ctx); err != nil {
		return err
	}
	printlnFn("Watermark cleared, next sync pulls everything")
	return nil
}

func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		return errors.New("not logged in")
	}
	return nil
}

func (a *App) getStatus() string {
	if a.claims == nil {
		return ""
	}
	s := a.claims.Email
	if a.engine != nil && a.engine.IsSyncing() {
		s += " syncing"
	}
	return fmt.Sprintf("(%s)", s)
}

// Run greets the user and hands control to the REPL. It blocks until the
// user exits.
func (a *App) Run(ctx context.Context) {
	printlnFn("Welcome to flashdeck (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
	if a.isLoggedIn() {
		_ = a.Logout(ctx)
	}
	_ = a.repos.Close()
}
