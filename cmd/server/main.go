package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/sessions"
	"github.com/mocknhire/mocknhire/assets"
	"github.com/mocknhire/mocknhire/internal"
	"github.com/mocknhire/mocknhire/internal/auth"
	"github.com/mocknhire/mocknhire/internal/db"
	"github.com/mocknhire/mocknhire/internal/errorz"
	"github.com/mocknhire/mocknhire/internal/identity/supabase"
	"github.com/mocknhire/mocknhire/internal/krypto"
	"github.com/mocknhire/mocknhire/internal/notify"
	"github.com/mocknhire/mocknhire/internal/session"
	sessiondb "github.com/mocknhire/mocknhire/internal/session/db"
	"github.com/mocknhire/mocknhire/internal/web"
	websessions "github.com/mocknhire/mocknhire/internal/web/sessions"
	"github.com/mocknhire/mocknhire/internal/web/view"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Stderr))
}

func run(ctx context.Context, w io.Writer) int {
	logger := slog.New(slog.NewTextHandler(w, nil))

	cfg, err := configFromEnv()
	if err != nil {
		logger.Error("failed to get config from environment", "error", err)
		return 1
	}

	// Preferences survive restarts, so they come out of the database
	// before the store is created.
	prefDB, err := db.OpenSQLite(cfg.db.file, true)
	if err != nil {
		logger.Error("failed to open database", "error", err, "dbFile", cfg.db.file)
		return 1
	}

	defer func() {
		if err := prefDB.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}()

	prefStore, err := sessiondb.New(ctx, prefDB)
	if err != nil {
		logger.Error("failed to setup preferences store", "error", err)
		return 1
	}

	prefs, err := prefStore.Prefs(ctx)
	if err != nil {
		if !errors.Is(err, errorz.ErrNotFound) {
			logger.Error("failed to load preferences", "error", err)
			return 1
		}
		prefs = session.DefaultPrefs()
	}

	notifier := notify.NewCenter()

	store := session.NewStore(prefs, prefStore, func(err error) {
		logger.Error("failed to save preferences", "error", err)
	})

	idSvc := supabase.New(&http.Client{
		Timeout: cfg.identity.timeout,
	}, supabase.Settings{
		APIURL:           cfg.identity.apiURL,
		APIKey:           cfg.identity.apiKey,
		OAuthProvider:    cfg.identity.oauthProvider,
		OAuthRedirectURL: cfg.identity.oauthRedirectURL,
	})

	ctrl := auth.NewController(idSvc, store, notifier, logger)
	ctrl.RedirectDelay = cfg.auth.signupRedirectDelay

	// Restoring an earlier session is best effort, the app starts
	// signed out if it fails.
	if err := ctrl.Restore(ctx); err != nil {
		logger.Error("failed to restore session", "error", err)
	}

	var viewRenderer web.ViewRenderer
	if cfg.http.viewDir != "" {
		logger.Info("loading templates from disk", "dir", cfg.http.viewDir)
		viewRenderer = view.NewFSRenderer(os.DirFS(cfg.http.viewDir))
	} else {
		memRenderer, err := view.NewMemRenderer(assets.TemplateFS)
		if err != nil {
			logger.Error("failed to parse views", "error", err)
			return 1
		}
		viewRenderer = memRenderer
	}

	cookieStore := sessions.NewCookieStore(keyPairs(cfg.http.cookieKeys)...)
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.http.server.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}

	srv := &http.Server{
		Addr:         cfg.http.addr,
		ReadTimeout:  cfg.http.readTimeout,
		WriteTimeout: cfg.http.writeTimeout,
		IdleTimeout:  cfg.http.idleTimeout,
		Handler: web.NewServer(&web.ServerDeps{
			Logger:       logger,
			ViewRenderer: viewRenderer,
			Controller:   ctrl,
			Store:        store,
			Notifier:     notifier,
			SessionStore: websessions.NewStore(cookieStore),
			DistFS:       http.FS(assets.DistFS),
		}, cfg.http.server),
	}

	// We need to run two tasks concurrently:
	// - Listen and serving of the HTTP server.
	// - Waiting for a signal to stop the server.

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server",
			"addr", cfg.http.addr,
			"buildRevision", internal.BuildRevision,
			"buildRevisionTime", internal.BuildRevisionTime,
			"buildLocalModified", internal.BuildLocalModified,
		)
		// ListenAndServe always returns a non-nil error,
		// g will cancel gCtx when an error is returned, so
		// this will also stop the other goroutine.
		return srv.ListenAndServe()
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("stopping http server")

		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.http.shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutCtx)
	})

	err = g.Wait()
	if err != nil && err != http.ErrServerClosed {
		logger.Error("http server stopped with error", "error", err)
		return 1
	}

	logger.Info("http server stopped successfully")

	return 0
}

// keyPairs converts keys to the alternating authentication and
// encryption key pairs the cookie store wants.
func keyPairs(keys []krypto.Key) [][]byte {
	pairs := make([][]byte, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key.SecretValue())
	}
	return pairs
}
