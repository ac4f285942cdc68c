package main

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	mw "github.com/5w1tchy/sigb-catalog/internal/api/middlewares"
	"github.com/5w1tchy/sigb-catalog/internal/api/router"
	"github.com/5w1tchy/sigb-catalog/internal/catalog"
	"github.com/5w1tchy/sigb-catalog/internal/maintenance"
	"github.com/5w1tchy/sigb-catalog/internal/metrics/searchqueue"
	"github.com/5w1tchy/sigb-catalog/internal/repository/sqlconnect"
	catalogstore "github.com/5w1tchy/sigb-catalog/internal/store/catalog"
	"github.com/5w1tchy/sigb-catalog/internal/store/searchcache"
	"github.com/5w1tchy/sigb-catalog/internal/validate"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()

	if err := validate.Env(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	for _, w := range validate.HardeningWarnings(os.Getenv("APP_ENV")) {
		log.Printf("[config] warning: %s", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlconnect.ConnectDB(ctx)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()
	log.Println("[startup] connected to Postgres")

	rdb := connectRedis()
	if rdb != nil {
		defer rdb.Close()
	}

	store := catalogstore.New(db)
	backend, _ := validate.ParseCacheBackend(os.Getenv("CATALOG_CACHE_BACKEND"))
	timeout := searchcache.TimeoutFromEnv()

	var (
		cache catalog.Cache
		jobs  = maintenance.Jobs{Stats: store}
	)
	switch backend {
	case validate.CacheRedis:
		cache = searchcache.NewRedis(rdb, timeout)
	case validate.CachePostgres:
		pg := searchcache.NewPG(db, timeout)
		cache = pg
		jobs.Cache = pg
	}
	log.Printf("[startup] result cache backend: %s", backend)

	events := searchqueue.Start(db, envInt("SEARCH_EVENTS_BUFFER", 10000), envInt("SEARCH_EVENTS_WORKERS", 2))
	defer events.Shutdown()
	svc := catalog.NewService(store, cache, catalog.ConfigFromEnv()).WithRecorder(events)

	jobsAt := envOr("CATALOG_JOBS_AT", "03:00")
	jobsTZ := envOr("CATALOG_JOBS_TZ", "Africa/Algiers")
	maintenance.StartCatalogJobs(ctx, jobs, jobsAt, jobsTZ)

	chain := []mw.Middleware{
		mw.RequestID,
		mw.Recovery,
		mw.ResponseTime,
		mw.SecurityHeaders,
		mw.Cors(mw.AllowedOrigins()),
		mw.BodySizeLimit,
		mw.HPP(mw.CatalogHPPOptions()),
	}
	if rdb != nil {
		search, availability := mw.BudgetsFromEnv()
		limiter := mw.NewSearchLimiter(rdb, mw.PerIPKey("catalog:rl"), search, availability)
		chain = append(chain, limiter.Middleware)
	}
	chain = append(chain, mw.Compression)

	server := &http.Server{
		Addr:              envOr("PORT", ":3000"),
		Handler:           mw.Chain(router.Router(svc, db), chain...),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("[shutdown] %v", err)
		}
	}()

	cert, key := os.Getenv("TLS_CERT"), os.Getenv("TLS_KEY")
	log.Printf("[startup] catalog API listening on %s (tls=%t)", server.Addr, cert != "")
	if cert != "" {
		err = server.ListenAndServeTLS(cert, key)
	} else {
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

// connectRedis returns nil when Redis is not configured. A configured but
// unreachable Redis is fatal.
func connectRedis() *redis.Client {
	var rdb *redis.Client
	if url := os.Getenv("UPSTASH_REDIS_URL"); url != "" {
		// rediss:// URLs come back with TLS configured
		opt, err := redis.ParseURL(url)
		if err != nil {
			log.Fatalf("invalid UPSTASH_REDIS_URL: %v", err)
		}
		opt.DialTimeout = 5 * time.Second
		opt.ReadTimeout = time.Second
		opt.WriteTimeout = time.Second
		rdb = redis.NewClient(opt)
	} else if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		opts := &redis.Options{
			Addr:         addr,
			Username:     os.Getenv("REDIS_USER"),
			Password:     os.Getenv("REDIS_PASSWORD"),
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		}
		if os.Getenv("REDIS_TLS") == "1" {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		rdb = redis.NewClient(opts)
	} else {
		return nil
	}

	if err := validate.PingRedis(rdb, 3*time.Second); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	log.Println("[startup] connected to Redis")
	return rdb
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n > 0 {
		return n
	}
	return def
}
