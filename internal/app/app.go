// Package app wires the stores, repositories and services together from a
// configuration. The CLI commands and the server build on it.
package app

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"newsdaily-web/internal/api"
	"newsdaily-web/internal/auth"
	"newsdaily-web/internal/comments"
	"newsdaily-web/internal/config"
	"newsdaily-web/internal/feeds"
	"newsdaily-web/internal/posts"
	"newsdaily-web/internal/render"
	"newsdaily-web/internal/seed"
	"newsdaily-web/internal/storage"
	"newsdaily-web/internal/users"
)

type App struct {
	Config *config.Config
	Logger *zap.Logger

	// Durable holds everything that survives a restart; Session holds the
	// admin login and is lost with the process.
	Durable *storage.FileStore
	Session *storage.MemoryStore

	Posts    *posts.Repository
	Users    *users.Repository
	Comments *comments.Repository
	Auth     *auth.Service
	Feeds    *feeds.Importer
	Renderer *render.Renderer
}

func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, name := range cfg.InsecureDefaults() {
		logger.Warn("⚠️ Built-in default still in use, set it before going live", zap.String("setting", name))
	}

	durable, err := storage.OpenFileStore(cfg.Storage.Path, logger)
	if err != nil {
		return nil, err
	}
	session := storage.NewMemoryStore()

	postRepo := posts.NewRepository(durable, logger)
	commentRepo := comments.NewRepository(durable, logger)
	userRepo := users.NewRepository(durable, postRepo, commentRepo, logger)
	userRepo.SetGuestName(cfg.Site.GuestName)

	authService, err := auth.NewService(auth.Options{
		Username:        cfg.Admin.Username,
		Password:        cfg.Admin.Password,
		PasswordHash:    cfg.Admin.PasswordHash,
		JWTSecret:       cfg.Admin.JWTSecret,
		SessionDuration: cfg.Admin.SessionDuration,
	}, session)
	if err != nil {
		return nil, err
	}

	renderer, err := render.New()
	if err != nil {
		return nil, err
	}

	importer := feeds.NewImporter(postRepo, feeds.Options{
		Timeout:         cfg.Feeds.Timeout,
		DefaultCategory: cfg.Feeds.DefaultCategory,
		UserAgent:       cfg.Feeds.UserAgent,
	}, logger)

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Durable:  durable,
		Session:  session,
		Posts:    postRepo,
		Users:    userRepo,
		Comments: commentRepo,
		Auth:     authService,
		Feeds:    importer,
		Renderer: renderer,
	}

	if cfg.Storage.SeedFile != "" {
		if _, err := a.Seed(cfg.Storage.SeedFile); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Seed loads a seed file into the store when it has no posts yet.
func (a *App) Seed(path string) (int, error) {
	f, err := seed.Load(path)
	if err != nil {
		return 0, err
	}
	n, err := seed.Apply(f, a.Posts)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		a.Logger.Info("Store seeded", zap.String("file", path), zap.Int("posts", n))
	}
	return n, nil
}

func (a *App) Services() api.Services {
	return api.Services{
		Posts:        a.Posts,
		Users:        a.Users,
		Comments:     a.Comments,
		Auth:         a.Auth,
		Feeds:        a.Feeds,
		Renderer:     a.Renderer,
		Logger:       a.Logger,
		SiteName:     a.Config.Site.Name,
		CORSOrigins:  a.Config.Server.CORSOrigins,
		CookieSecure: a.Config.Server.CookieSecure,
	}
}

func (a *App) Router() *gin.Engine {
	return api.NewRouter(a.Services())
}
