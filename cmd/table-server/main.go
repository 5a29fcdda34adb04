package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v3"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"green-felt/internal/config"
	"green-felt/internal/game"
	"green-felt/internal/ledger"
	"green-felt/internal/logging"
	"green-felt/internal/store"
	"green-felt/internal/tcp"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	ctx := context.Background()
	st, err := newStore(ctx, cfg.Server)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()
	if err := st.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("store ping failed")
	}
	if err := st.EnsureDefaultTables(ctx); err != nil {
		log.Fatal().Err(err).Msg("ensure default tables failed")
	}
	seedUsers(ctx, st, cfg.Server)

	led := ledger.New(st)
	reg := game.NewRegistry()
	engine := game.NewEngine(st, led, reg, cfg.Server.StartNewGameDelay)
	if err := engine.LoadTables(ctx); err != nil {
		log.Fatal().Err(err).Msg("load tables failed")
	}
	broker := tcp.NewBroker(st, led, engine, cfg.Server.AutoFoldTimeout)

	go serveOps(cfg.Server.HTTPAddr, st, engine)

	srv := tcp.NewServer(cfg.Server.TCPAddr, st, broker)
	log.Fatal().Err(srv.ListenAndServe(ctx)).Msg("server stopped")
}

func newStore(ctx context.Context, cfg config.ServerConfig) (store.Store, error) {
	if cfg.PostgresDSN == "" {
		log.Warn().Msg("no POSTGRES_DSN, using in-memory store")
		return store.NewMem(), nil
	}
	pg, err := store.NewPG(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := pg.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return pg, nil
}

// seedUsers creates the SEED_USERS accounts if missing. Format is a
// comma-separated list of username:token pairs.
func seedUsers(ctx context.Context, st store.Store, cfg config.ServerConfig) {
	if cfg.SeedUsers == "" {
		return
	}
	for _, pair := range strings.Split(cfg.SeedUsers, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			log.Warn().Str("entry", pair).Msg("skipping malformed seed user")
			continue
		}
		if _, err := st.GetUserByToken(ctx, parts[1]); err == nil {
			continue
		}
		u := store.User{ID: store.NewID(), Username: parts[0], Token: parts[1]}
		if err := st.CreateUser(ctx, u, cfg.SeedBalance); err != nil {
			log.Error().Err(err).Str("username", parts[0]).Msg("seed user failed")
			continue
		}
		log.Info().Str("username", parts[0]).Int64("balance", cfg.SeedBalance).Msg("seeded user")
	}
}

// serveOps runs the small operational HTTP surface: liveness and a
// public table listing with live seat counts.
func serveOps(addr string, st store.Store, engine *game.Engine) {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(opsLogMiddleware())

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := st.Ping(req.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/api/public/tables", publicTablesHandler(st, engine))
	r.Get("/api/public/tables/{key}", publicTableHandler(st, engine))

	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("http listening")
	if err := server.ListenAndServe(); err != nil {
		log.Error().Err(err).Msg("http server stopped")
	}
}

func publicTablesHandler(st store.Store, engine *game.Engine) http.HandlerFunc {
	type tableView struct {
		Key        string `json:"key"`
		Name       string `json:"name"`
		MaxPlayers int    `json:"max_players"`
		MinBet     int64  `json:"min_bet"`
		Seated     int    `json:"seated"`
		InWait     bool   `json:"in_wait"`
	}
	return func(w http.ResponseWriter, req *http.Request) {
		recs, err := st.ListTables(req.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		out := make([]tableView, 0, len(recs))
		for _, rec := range recs {
			v := tableView{
				Key:        rec.Key,
				Name:       rec.Name,
				MaxPlayers: rec.MaxPlayers,
				MinBet:     rec.MinBet,
				InWait:     rec.InWait,
			}
			if t := engine.Registry().Get(rec.Key); t != nil {
				v.Seated = t.SeatedCount()
			}
			out = append(out, v)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}

func publicTableHandler(st store.Store, engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "key")
		rec, err := st.GetTable(req.Context(), key)
		if err != nil {
			http.Error(w, "table not found", http.StatusNotFound)
			return
		}
		seated := 0
		if t := engine.Registry().Get(rec.Key); t != nil {
			seated = t.SeatedCount()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"key":         rec.Key,
			"name":        rec.Name,
			"max_players": rec.MaxPlayers,
			"min_bet":     rec.MinBet,
			"seated":      seated,
			"in_wait":     rec.InWait,
		})
	}
}

func opsLogMiddleware() func(http.Handler) http.Handler {
	return httplog.RequestLogger(
		slog.New(slog.NewJSONHandler(logging.Writer(), &slog.HandlerOptions{})),
		&httplog.Options{
			Level:  slog.LevelInfo,
			Schema: httplog.Schema{ResponseStatus: "status", ResponseDuration: "duration_ms"},
			LogExtraAttrs: func(req *http.Request, _ string, _ int) []slog.Attr {
				rc := chi.RouteContext(req.Context())
				route := req.URL.Path
				if rc != nil && rc.RoutePattern() != "" {
					route = rc.RoutePattern()
				}
				return []slog.Attr{
					slog.String("request_id", chimw.GetReqID(req.Context())),
					slog.String("method", req.Method),
					slog.String("route", route),
				}
			},
		},
	)
}
