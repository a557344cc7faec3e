package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AUTOFILL/internal"
	"AUTOFILL/internal/catalog"
	"AUTOFILL/internal/config"
	"AUTOFILL/internal/formstate"
	"AUTOFILL/internal/gitsync"
	"AUTOFILL/internal/handlers"
	"AUTOFILL/internal/logging"
	"AUTOFILL/internal/roster"
	"AUTOFILL/internal/services"
	"AUTOFILL/internal/storage"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Server.IsProduction(), cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := internal.InitDB(cfg, logger)
	if err != nil {
		return err
	}
	defer internal.CloseDB(db)

	gcs, err := storage.NewGCSClient(ctx, cfg.GCS.BucketName, cfg.GCS.ProjectID, cfg.GCS.CredentialsPath)
	if err != nil {
		return err
	}
	defer gcs.Close()

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return err
	}
	logger.Info("catalog loaded", zap.String("path", cfg.Catalog.Path), zap.Int("formats", cat.Len()))

	var git services.Committer
	gh, err := gitsync.NewClient(gitsync.Config{
		Token:  cfg.GitHub.Token,
		Owner:  cfg.GitHub.Owner,
		Repo:   cfg.GitHub.Repo,
		Branch: cfg.GitHub.Branch,
	}, logger)
	switch {
	case errors.Is(err, gitsync.ErrNotConfigured):
		logger.Info("github commits disabled")
	case err != nil:
		return err
	default:
		git = gh
	}

	// roster
	var source roster.Source
	var rosterStore services.RosterStore
	if cfg.Roster.Source == "file" {
		source = roster.NewFileSource(cfg.Roster.Dir)
	} else {
		dbSource := roster.NewDBSource(db)
		source, rosterStore = dbSource, dbSource
	}
	provider := roster.NewProvider(roster.Snapshot{})
	syncer := roster.NewSyncer(provider, source, cfg.Roster.SyncInterval, logger)
	if _, err := syncer.SyncNow(ctx); err != nil {
		logger.Warn("initial roster sync failed, starting empty", zap.Error(err))
	}
	syncer.Start()
	defer syncer.Stop()
	rosterService := services.NewRosterService(provider, syncer, rosterStore, git, cfg.GitHub.DataDir, logger)

	// library
	var persister formstate.Persister = services.NewGormLibraryPersister(db)
	if cfg.Library.Backend == "file" {
		persister = &services.FileLibraryPersister{Dir: cfg.Library.Dir}
	}
	library, err := formstate.NewLibrary(ctx, persister, logger)
	if err != nil {
		return err
	}
	if cfg.Library.MirrorSignatures {
		cancel := services.NewSignatureImageService(gcs, logger).Subscribe(library)
		defer cancel()
	}

	sessions := services.NewSessionManager(library, cat, provider, logger,
		services.WithIdleTTL(cfg.Session.IdleTTL))
	templates := services.NewTemplateService(gcs, cfg.Catalog.TemplatesDir, logger)
	documentStore := services.NewGormDocumentStore(db)

	var opts []services.SubmissionOption
	if cfg.Gotenberg.Enabled {
		pdf, err := services.NewPDFService(cfg.Gotenberg.URL, cfg.Gotenberg.Timeout, logger)
		if err != nil {
			return err
		}
		opts = append(opts, services.WithPDF(pdf))
	}
	if git != nil && cfg.GitHub.ArchiveSubmissions {
		opts = append(opts, services.WithGitArchive(git))
	}
	submissions := services.NewSubmissionService(sessions, templates, gcs, documentStore, logger, opts...)

	janitor := handlers.NewJanitor(sessions, cfg.Cleanup.Dirs, cfg.Cleanup.MaxAge, cfg.Cleanup.Interval, logger)
	janitor.Start()
	defer janitor.Stop()

	activityLog := services.NewActivityLogService(db, logger)

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(logger, true))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", services.SessionHeader, services.UserHeader},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(activityLog.LoggingMiddleware())

	handlers.Router{
		Formats:   handlers.NewFormatsHandler(cat, templates),
		Sessions:  handlers.NewSessionsHandler(sessions, submissions, logger),
		Library:   handlers.NewLibraryHandler(library),
		Roster:    handlers.NewRosterHandler(rosterService, logger),
		Documents: handlers.NewDocumentsHandler(services.NewDocumentService(gcs, documentStore, logger), logger),
		Logs:      handlers.NewLogsHandler(activityLog),
	}.Register(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("environment", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
