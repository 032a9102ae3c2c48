package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	googleauth "note-backend/internal/auth"
	"note-backend/internal/correction"
	"note-backend/internal/ingress"
	"note-backend/internal/members"
	"note-backend/internal/notes"
	"note-backend/internal/ocr"
	"note-backend/internal/shared/config"
	"note-backend/internal/shared/server"
	"note-backend/internal/shared/storage/db"
	"note-backend/internal/shared/storage/object"
	localstore "note-backend/internal/shared/storage/object/local"
	s3store "note-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies for the api and worker binaries.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore

	NotesRepo   notes.Repo
	MembersRepo members.Repo

	NotesService   *notes.Service
	MembersService *members.Service
	Corrector      correction.Gateway
	Processor      *ingress.Processor

	NoteHandler   *notes.Handler
	MemberHandler *members.Handler
	GoogleAuth    *googleauth.GoogleService
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        app.Config,
		NoteHandler:   app.NoteHandler,
		MemberHandler: app.MemberHandler,
		GoogleAuth:    app.GoogleAuth,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires AWS_REGION and S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var notesRepo notes.Repo
	var membersRepo members.Repo

	if app.DB != nil {
		notesRepo = &notes.PGRepo{DB: app.DB}
		membersRepo = &members.PGRepo{DB: app.DB}
	} else {
		notesRepo = notes.NewMemoryRepo()
		membersRepo = members.NewMemoryRepo()
	}

	var dispatcher notes.Dispatcher
	if strings.TrimSpace(app.Config.OCRBaseURL) != "" {
		d, err := ocr.NewDispatcher(app.Config.OCRBaseURL, time.Duration(app.Config.OCRTimeoutSeconds)*time.Second)
		if err != nil {
			return err
		}
		dispatcher = d
	} else {
		log.Printf("bootstrap: OCR_BASE_URL empty; uploads stay unrecognized")
	}

	corrector := correction.NewClient(
		app.Config.CorrectionURL,
		app.Config.CorrectionModel,
		app.Config.CorrectionAPIKey,
		time.Duration(app.Config.CorrectionTimeoutSeconds)*time.Second,
	)

	membersSvc := members.NewService(membersRepo)
	notesSvc := &notes.Service{
		Repo:       notesRepo,
		Members:    membersRepo,
		Store:      app.Store,
		Dispatcher: dispatcher,
	}

	app.NotesRepo = notesRepo
	app.MembersRepo = membersRepo
	app.NotesService = notesSvc
	app.MembersService = membersSvc
	app.Corrector = corrector
	app.Processor = &ingress.Processor{Repo: notesRepo, Corrector: corrector}
	app.NoteHandler = notes.NewHandler(notesSvc)
	app.MemberHandler = members.NewHandler(membersSvc)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		membersSvc,
	)

	return nil
}
