package bootstrap

import (
	"fmt"
	"log"

	"github.com/aihub/chatdoc-go/internal/cache"
	"github.com/aihub/chatdoc-go/internal/config"
	"github.com/aihub/chatdoc-go/internal/di"
	"github.com/aihub/chatdoc-go/internal/knowledge"
	"github.com/aihub/chatdoc-go/internal/logger"
	"github.com/aihub/chatdoc-go/internal/metrics"
	"github.com/aihub/chatdoc-go/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// App encapsulates lifecycle resources that need to be cleaned up on shutdown.
type App struct {
	cleanupTasks []func() error

	queryCache  cache.QueryCache
	vectorStore knowledge.VectorStore
	archive     *storage.ArchiveStore
}

// Global app instance for controllers to access
var globalApp *App

// GetApp returns the global app instance
func GetApp() *App {
	return globalApp
}

// SetGlobalApp sets the global app instance
func SetGlobalApp(app *App) {
	globalApp = app
}

// QueryCache returns the query cache backing the chat sessions.
func (a *App) QueryCache() cache.QueryCache {
	return a.queryCache
}

// VectorStore returns the vector index shared by ingestion and retrieval.
func (a *App) VectorStore() knowledge.VectorStore {
	return a.vectorStore
}

// Init bootstraps configuration, logger, external connections and the DI
// container required by the Beego application.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger.
	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	// Load dynamic configuration.
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}
	cfg := config.GetAppConfig()

	app := &App{}

	// Initialize Redis (optional). Failure degrades to an always-miss cache.
	if client, err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warn("Failed to initialize Redis, responses will not be cached", zap.Error(err))
		app.queryCache = &cache.NoopCache{}
	} else {
		app.queryCache = cache.NewRedisCache(client)
		app.cleanupTasks = append(app.cleanupTasks, client.Close)
	}

	// Initialize vector store. The index is required, failure blocks startup.
	store, err := newVectorStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize vector store: %w", err)
	}
	app.vectorStore = store
	logger.Info("Vector store initialized",
		zap.String("provider", cfg.Knowledge.VectorStore.Provider))

	// Initialize MinIO archive (optional). Failure shouldn't block the app.
	if cfg.Archive.Enabled {
		if archive, err := storage.InitMinIO(&cfg.Archive); err != nil {
			logger.Warn("Failed to initialize MinIO, document originals will not be archived", zap.Error(err))
		} else {
			app.archive = archive
			logger.Info("Document archive initialized", zap.String("bucket", cfg.Archive.Bucket))
		}
	}

	// Register business metrics.
	metrics.Register()

	// Wire up the DI container.
	container := di.InitContainer()
	if err := di.RegisterProviders(container, app.queryCache, app.vectorStore, app.archive); err != nil {
		return nil, fmt.Errorf("failed to register providers: %w", err)
	}

	SetGlobalApp(app)
	return app, nil
}

func newVectorStore(cfg *config.Config) (knowledge.VectorStore, error) {
	switch cfg.Knowledge.VectorStore.Provider {
	case "memory":
		return knowledge.NewMemoryVectorStore(), nil
	default:
		milvus := cfg.Knowledge.VectorStore.Milvus
		return knowledge.NewMilvusVectorStore(knowledge.MilvusOptions{
			Address:    milvus.Address,
			Username:   milvus.Username,
			Password:   milvus.Password,
			Collection: milvus.Collection,
			Database:   milvus.Database,
			VectorSize: milvus.VectorSize,
			UseTLS:     milvus.TLS,
		})
	}
}

// Shutdown flushes/logs and closes resources gracefully.
func (a *App) Shutdown() {
	// Execute cleanup tasks in reverse order (best effort).
	for i := len(a.cleanupTasks) - 1; i >= 0; i-- {
		if err := a.cleanupTasks[i](); err != nil {
			log.Printf("Cleanup error: %v\n", err)
		}
	}

	// Flush logger buffers.
	logger.Sync()
}
