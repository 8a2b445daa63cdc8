package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/matheusM9/distribuidores-render/auth"
	"github.com/matheusM9/distribuidores-render/config"
	"github.com/matheusM9/distribuidores-render/distributors"
	"github.com/matheusM9/distribuidores-render/geo"
	"github.com/matheusM9/distribuidores-render/geocode"
	"github.com/matheusM9/distribuidores-render/handlers"
	"github.com/matheusM9/distribuidores-render/ibge"
	"github.com/matheusM9/distribuidores-render/middleware"
	"github.com/matheusM9/distribuidores-render/store"
)

type healthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Error   string `json:"error,omitempty"`
}

func healthCheck(cfg *config.Config, pg *store.Postgres) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Backend: cfg.StoreBackend}
		if pg != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			if err := pg.Ping(ctx); err != nil {
				resp.Status = "error"
				resp.Error = err.Error()
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.Load()
	log.Info().Str("backend", cfg.StoreBackend).Str("port", cfg.Port).Msg("starting server")

	// Select the row-store backend.
	var api store.RowAPI
	var pg *store.Postgres
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		db, err := config.OpenPostgres(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize PostgreSQL")
		}
		defer db.Close()
		pg = store.NewPostgres(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := pg.EnsureSchema(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to create schema")
		}
		cancel()
		api = pg
	case config.BackendMongo:
		db, client, err := config.OpenMongo(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize MongoDB")
		}
		defer config.CloseMongo(client)
		mg := store.NewMongo(db)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := mg.EnsureIndexes(ctx); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to create indexes")
		}
		cancel()
		api = mg
	case config.BackendCSV:
		api = store.NewCSVFile(cfg.CSVPath)
	default:
		log.Fatal().Str("backend", cfg.StoreBackend).Msg("unknown store backend")
	}

	capitals, err := geo.LoadCapitals(cfg.CapitalsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load capital exemption set")
	}

	recordStore := store.NewRecordStore(api, config.NewRecordCache(cfg.RecordCacheTTL))
	geocoder := geocode.New(
		geocode.NewNominatimClient(cfg.GeocoderURL, cfg.GeocodeTimeout),
		cfg.GeocodeCacheTTL,
		cfg.GeocodeCacheCap,
	)
	service := distributors.NewService(recordStore, geocoder, capitals)
	localities := ibge.NewClient(cfg.IBGEBaseURL, cfg.IBGETimeout, config.NewLocalityCache(cfg.LocalityCacheTTL))

	users, err := auth.LoadUsers(cfg.UsersFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load user file")
	}
	sessions := auth.NewSessionManager([]byte(cfg.CookieHashKey), blockKey(cfg.CookieBlockKey))

	h := &handlers.Handler{
		Service:  service,
		IBGE:     localities,
		Users:    users,
		Sessions: sessions,
	}

	r := mux.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Origin", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           86400,
	})

	r.Use(middleware.CORSDebugMiddleware)
	r.Use(corsHandler.Handler)
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(sessions.WithSession)

	api1 := r.PathPrefix("/api/v1").Subrouter()
	h.Register(api1)
	api1.HandleFunc("/health", healthCheck(cfg, pg)).Methods("GET")
	log.Info().Msg("routes registered")

	srv := &http.Server{
		Handler:           r,
		Addr:              ":" + cfg.Port,
		WriteTimeout:      15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutdown signal received")
	case err := <-serverErrors:
		log.Error().Err(err).Msg("server error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	} else {
		log.Info().Msg("server shutdown completed")
	}
}

func blockKey(key string) []byte {
	if key == "" {
		return nil
	}
	return []byte(key)
}
