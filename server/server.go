package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PellinesFM/cache"
	"PellinesFM/config"
	"PellinesFM/core/station"
	"PellinesFM/db"
	"PellinesFM/logger"
	"PellinesFM/model"
	"PellinesFM/repository"
	"PellinesFM/storage"

	"github.com/gorilla/mux"
)

// Start 组装并运行广播协调器：存储后端、曲目仓库、可选的Redis状态
// 持久化、事件分发中心、自动切歌调度器和HTTP服务，直到收到退出信号。
func Start() error {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogOutput,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})
	logger.Info("starting broadcast coordinator", logger.String("addr", cfg.ListenAddr))

	// 存储后端
	var store storage.AudioStore
	var fileStore *storage.FileStore
	switch cfg.StorageBackend {
	case "minio":
		ms, err := storage.NewMinioStore(cfg)
		if err != nil {
			logger.Fatal("failed to initialize MinIO storage", logger.ErrorField(err))
			return err
		}
		store = ms
	default:
		fs, err := storage.NewFileStore(cfg.UploadDir)
		if err != nil {
			logger.Fatal("failed to initialize file storage", logger.ErrorField(err))
			return err
		}
		store = fs
		fileStore = fs
	}

	// 曲目元数据仓库：配置了数据库就用MySQL，否则退回内存实现
	var repo repository.TrackRepository
	if cfg.DBHost != "" {
		if err := db.ConnectDB(cfg); err != nil {
			logger.Fatal("failed to connect to database", logger.ErrorField(err))
			return err
		}
		defer db.CloseDB()

		if err := db.ConnectGormDB(cfg); err != nil {
			logger.Fatal("failed to connect GORM", logger.ErrorField(err))
			return err
		}
		defer db.CloseGormDB()

		if err := db.AutoMigrateModels(&model.Track{}); err != nil {
			logger.Fatal("failed to migrate database schema", logger.ErrorField(err))
			return err
		}

		repo = repository.NewMySQLTrackRepository()
	} else {
		logger.Info("DB_HOST not set, using in-memory track repository")
		repo = repository.NewMemoryTrackRepository()
	}

	// Redis可选：连不上只是少了状态持久化和在线人数统计
	if cfg.RedisHost != "" {
		if err := db.ConnectRedis(cfg); err != nil {
			logger.Warn("Redis unavailable, state persistence disabled", logger.ErrorField(err))
		} else {
			defer db.CloseRedis()
			logger.Info("Redis connected",
				logger.String("host", cfg.RedisHost),
				logger.String("port", cfg.RedisPort))
		}
	}

	st := station.New(station.Options{
		Repo:       repo,
		Store:      store,
		StateCache: cache.NewStateCache(),
		DefaultMetadata: model.LiveMetadata{
			Title:       cfg.StationTitle,
			Artist:      cfg.StationArtist,
			Description: cfg.StationDescription,
		},
		DefaultAdvanceInterval: cfg.DefaultAdvanceInterval,
		MaxUploadBytes:         cfg.MaxUploadBytes,
		AllowedMimeTypes:       cfg.AllowedMimeList,
	})

	if err := st.Restore(context.Background()); err != nil {
		logger.Warn("failed to restore persisted broadcast state", logger.ErrorField(err))
	}

	go st.Hub().Run()
	defer st.Hub().Stop()

	// 文件后端下监听磁盘上被删掉的资产，及时清掉悬空引用
	if fileStore != nil {
		watcher, err := storage.WatchAssets(fileStore.Dir(), st.HandleAssetMissing)
		if err != nil {
			logger.Warn("asset watcher unavailable", logger.ErrorField(err))
		} else {
			defer watcher.Close()
		}
	}

	schedCtx, cancelSched := context.WithCancel(context.Background())
	defer cancelSched()
	go station.NewScheduler(st).Run(schedCtx)

	handler := NewAPIHandler(st, cfg)
	router := newRouter(handler)

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: corsMiddleware(router),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logger.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("HTTP server failed", logger.ErrorField(err))
		return err
	case sig := <-quit:
		logger.Info("shutting down", logger.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", logger.ErrorField(err))
		return err
	}

	logger.Info("server stopped")
	return nil
}

// newRouter 挂载所有路由。管理端点经过认证中间件，未配置口令时放行。
func newRouter(h *APIHandler) *mux.Router {
	r := mux.NewRouter()

	// 公开端点
	r.HandleFunc("/stream", h.StreamHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/status", h.StatusHandler).Methods(http.MethodGet)
	r.HandleFunc("/playlist", h.GetPlaylistHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HealthHandler).Methods(http.MethodGet)
	r.HandleFunc("/events", h.EventsHandler)
	r.HandleFunc("/auth/login", h.LoginHandler).Methods(http.MethodPost)

	// 管理端点
	admin := r.PathPrefix("").Subrouter()
	admin.Use(h.AuthMiddleware)
	admin.HandleFunc("/upload", h.UploadTrackHandler).Methods(http.MethodPost)
	admin.HandleFunc("/live/start", h.StartLiveHandler).Methods(http.MethodPost)
	admin.HandleFunc("/live/stop", h.StopLiveHandler).Methods(http.MethodPost)
	admin.HandleFunc("/track/{id}", h.SelectTrackHandler).Methods(http.MethodPost)
	admin.HandleFunc("/track/{id}", h.DeleteTrackHandler).Methods(http.MethodDelete)

	return r
}

// corsMiddleware 跨域支持，并把Range相关响应头暴露给浏览器
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Range, Accept-Ranges, Content-Length")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
