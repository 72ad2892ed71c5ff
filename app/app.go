package app

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"Gin_postgres_redis_robe_tracker/db"
	"Gin_postgres_redis_robe_tracker/localstore"
	"Gin_postgres_redis_robe_tracker/reconciler"
	"Gin_postgres_redis_robe_tracker/session"
	"Gin_postgres_redis_robe_tracker/store"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// 简化别名，便于 handlers 调用
type Ctx = gin.Context
type H = gin.H

const (
	DriverLocal    = "local"
	DriverPostgres = "postgres"
)

// App 聚合各依赖
type App struct {
	Router     *gin.Engine
	Log        *zap.Logger
	RDB        *redis.Client // 未启用 redis 时为 nil
	Store      store.RecordStore
	Reconciler *reconciler.Reconciler
	Sessions   session.Store
	Registry   *prometheus.Registry
	Config     Config

	closers []func() error
}

// Config 从环境变量读取
type Config struct {
	Port           string
	StoreDriver    string
	DB             db.Config
	StoreReady     time.Duration
	LocalStorePath string
	RedisEnabled   bool
	RedisAddr      string
	RedisPwd       string
	ScanSessionTTL time.Duration
	WebOrigin      string
	ExportLocation *time.Location
	LogLevel       string
}

func MustNew() *App {
	cfg := LoadConfig()
	logger := NewLogger(cfg.LogLevel)
	a, err := New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("init", zap.Error(err))
	}
	return a
}

func New(ctx context.Context, cfg Config, logger *zap.Logger) (*App, error) {
	a := &App{Log: logger, Config: cfg, Registry: prometheus.NewRegistry()}

	// --- Record store ---
	switch cfg.StoreDriver {
	case DriverPostgres:
		gdb, err := db.ConnectDB(cfg.DB)
		if err != nil {
			return nil, err
		}
		repo := db.NewRepo(gdb,
			db.WithReadyTimeout(cfg.StoreReady),
			db.WithLogger(logger.Named("db")),
		)
		a.Store = repo
		a.closers = append(a.closers, repo.Close)
	default:
		ls, err := localstore.New(cfg.LocalStorePath)
		if err != nil {
			return nil, err
		}
		a.Store = ls
	}

	opts := []reconciler.Option{
		reconciler.WithLogger(logger.Named("reconciler")),
		reconciler.WithMetrics(reconciler.NewMetrics(a.Registry)),
	}

	// --- Redis（可选）：扫码会话 + 跨实例锁 ---
	if cfg.RedisEnabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pctx).Err(); err != nil {
			return nil, err
		}
		a.RDB = rdb
		a.Sessions = session.NewRedisStore(rdb, cfg.ScanSessionTTL)
		opts = append(opts, reconciler.WithLocker(session.NewRedisLocker(rdb, 30*time.Second, 5*time.Second)))
		a.closers = append(a.closers, rdb.Close)
	} else {
		a.Sessions = session.NewMemoryStore(cfg.ScanSessionTTL)
	}

	a.Reconciler = reconciler.New(a.Store, opts...)
	if err := a.Reconciler.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}

	// --- Gin ---
	r := gin.New()
	r.Use(ginzap.Ginzap(logger, time.RFC3339, true))
	r.Use(ginzap.RecoveryWithZap(logger, true))
	useCORS(r, cfg.WebOrigin)
	a.Router = r
	return a, nil
}

func (a *App) Close() {
	for _, c := range a.closers {
		_ = c()
	}
	_ = a.Log.Sync()
}

func NewLogger(level string) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if strings.EqualFold(level, "debug") {
		l, err = zap.NewDevelopment()
	} else {
		zc := zap.NewProductionConfig()
		if lv, perr := zap.ParseAtomicLevel(level); perr == nil {
			zc.Level = lv
		}
		l, err = zc.Build()
	}
	if err != nil {
		return zap.NewExample()
	}
	return l
}

func LoadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}
	seconds := func(k string, def int) time.Duration {
		n, err := strconv.Atoi(get(k, strconv.Itoa(def)))
		if err != nil || n <= 0 {
			n = def
		}
		return time.Duration(n) * time.Second
	}
	loc, err := time.LoadLocation(get("EXPORT_TIMEZONE", "Asia/Jerusalem"))
	if err != nil {
		loc = time.UTC
	}
	redisOn, _ := strconv.ParseBool(get("REDIS_ENABLED", "false"))
	// 显式设为空 = 只在内存中保存
	localPath, ok := os.LookupEnv("LOCAL_STORE_PATH")
	if !ok {
		localPath = "robes.json"
	}
	return Config{
		Port:        get("PORT", "3001"),
		StoreDriver: strings.ToLower(get("STORE_DRIVER", DriverLocal)),
		DB: db.Config{
			Host:     get("DB_HOST", "127.0.0.1"),
			User:     get("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     get("DB_NAME", "robes"),
			Port:     get("DB_PORT", "5432"),
		},
		StoreReady:     seconds("STORE_READY_TIMEOUT_SECONDS", 10),
		LocalStorePath: localPath,
		RedisEnabled:   redisOn,
		RedisAddr:      get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:       os.Getenv("REDIS_PASSWORD"),
		ScanSessionTTL: seconds("SCAN_SESSION_TTL_SECONDS", 300),
		WebOrigin:      get("WEB_ORIGIN", "http://localhost:5173"),
		ExportLocation: loc,
		LogLevel:       get("LOG_LEVEL", "info"),
	}
}
