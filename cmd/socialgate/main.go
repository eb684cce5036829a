package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/socialgate/internal/auth"
	"github.com/dropDatabas3/socialgate/internal/cache"
	"github.com/dropDatabas3/socialgate/internal/email"
	httpapi "github.com/dropDatabas3/socialgate/internal/http"
	"github.com/dropDatabas3/socialgate/internal/http/controllers/health"
	"github.com/dropDatabas3/socialgate/internal/http/controllers/social"
	"github.com/dropDatabas3/socialgate/internal/http/router"
	"github.com/dropDatabas3/socialgate/internal/oauth"
	"github.com/dropDatabas3/socialgate/internal/oauth/facebook"
	"github.com/dropDatabas3/socialgate/internal/oauth/google"
	"github.com/dropDatabas3/socialgate/internal/observability/logger"
	"github.com/dropDatabas3/socialgate/internal/rate"
	"github.com/dropDatabas3/socialgate/internal/session"
	"github.com/dropDatabas3/socialgate/internal/settings"
	"github.com/dropDatabas3/socialgate/internal/user"
	migrations "github.com/dropDatabas3/socialgate/migrations/postgres"
)

var version = "dev"

func main() {
	// .env primero: settings.Load lee de os.Environ
	_ = godotenv.Load()

	var envFile string

	root := &cobra.Command{
		Use:     "socialgate",
		Short:   "Social login service (Google / Facebook)",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envFile != "" {
				if err := godotenv.Overload(envFile); err != nil {
					return fmt.Errorf("loading env file %s: %w", envFile, err)
				}
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "Archivo .env adicional (pisa el ambiente)")

	root.AddCommand(serveCmd())
	root.AddCommand(providersCmd())
	root.AddCommand(settingsCmd())
	root.AddCommand(migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// loadSettings arma el snapshot de configuración con el store que
// corresponda al driver configurado.
func loadSettings(ctx context.Context) (*settings.Settings, *pgxpool.Pool, error) {
	// primer pase sin store: necesitamos storage.driver y dsn
	boot, err := settings.Load(ctx, settings.Options{})
	if err != nil {
		return nil, nil, err
	}

	var store settings.Store
	var pool *pgxpool.Pool

	switch boot.GetString("storage.driver", "memory") {
	case "postgres":
		dsn := boot.GetString("storage.dsn", "")
		if dsn == "" {
			return nil, nil, errors.New("storage.driver=postgres requiere storage.dsn")
		}
		pool, err = pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		store = &settings.PGStore{Pool: pool}
	case "file":
		path := boot.GetString("storage.path", "socialgate.yaml")
		store = settings.NewFileStore(path)
	}

	s, err := settings.Load(ctx, settings.Options{Store: store})
	if err != nil {
		if pool != nil {
			pool.Close()
		}
		return nil, nil, err
	}
	return s, pool, nil
}

func newRegistry() *oauth.Registry {
	reg := oauth.NewRegistry()
	reg.Register(google.ID, google.New)
	reg.Register(facebook.ID, facebook.New)
	return reg
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, pool, err := loadSettings(ctx)
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
			}

			logger.Init(logger.Config{
				Env:         s.GetString("app.env", "dev"),
				Level:       s.GetString("log.level", "info"),
				ServiceName: "socialgate",
				Version:     version,
			})
			defer logger.Sync()
			log := logger.L()

			if addr == "" {
				addr = s.GetString("server.addr", ":8080")
			}

			// cache: state store + rate limiter comparten el backend
			cc, err := cache.New(cache.Config{
				Driver:   s.GetString("cache.driver", "memory"),
				Host:     s.GetString("cache.host", "localhost"),
				Port:     s.GetInt("cache.port", 0),
				Password: s.GetString("cache.password", ""),
				DB:       s.GetInt("cache.db", 0),
				Prefix:   s.GetString("cache.prefix", "sg"),
			})
			if err != nil {
				return fmt.Errorf("cache: %w", err)
			}
			defer cc.Close()

			// prefijos distintos: un login normal pasa por /start y por el
			// callback, y no debe gastar dos intentos del mismo presupuesto
			var startLimiter rate.Limiter = rate.Noop()
			var callbackLimiter rate.Limiter = rate.Noop()
			if s.GetBool("ratelimit.enabled", true) {
				max := s.GetInt("ratelimit.max_attempts", 5)
				window := s.GetDuration("ratelimit.window", 300*time.Second)
				startLimiter = rate.NewFixedWindow(cc, "rl:start", max, window)
				callbackLimiter = rate.NewFixedWindow(cc, "rl:cb", max, window)
			}

			var users user.Manager = user.NewMemManager()
			if pool != nil {
				users = user.NewPGManager(pool)
			}

			sessions, err := session.NewManager(session.Config{
				Secret:     s.GetString("session.secret", ""),
				TTL:        s.GetDuration("session.ttl", 12*time.Hour),
				CookieName: s.GetString("session.cookie_name", "sg_session"),
				Domain:     s.GetString("session.domain", ""),
				Secure:     s.GetBool("session.secure", true),
			})
			if err != nil {
				return err
			}

			var mailer email.Sender = email.NopSender{}
			if s.GetBool("smtp.enabled", false) {
				smtp := email.NewSMTPSender(
					s.GetString("smtp.host", ""),
					s.GetInt("smtp.port", 587),
					s.GetString("smtp.from", ""),
					s.GetString("smtp.username", ""),
					s.GetString("smtp.password", ""),
				)
				if mode := s.GetString("smtp.tls_mode", ""); mode != "" {
					smtp.TLSMode = mode
				}
				mailer = smtp
			}

			mgr := &auth.Manager{
				Settings: s,
				Registry: newRegistry(),
				States:   oauth.NewStateStore(cc, s.GetDuration("oauth.state_ttl", 300*time.Second)),
				Limiter:  callbackLimiter,
				Users:    users,
				Mailer:   mailer,
			}

			metricsHandler, err := httpapi.RegisterMetrics(httpapi.MetricsConfig{
				DBPool: func() *pgxpool.Pool { return pool },
			})
			if err != nil {
				return fmt.Errorf("metrics: %w", err)
			}

			hc := health.NewController(cc)
			if pool != nil {
				hc.Ready = func(ctx context.Context) error { return pool.Ping(ctx) }
			}

			handler := router.New(router.Deps{
				Social:          social.NewControllers(mgr, sessions),
				Health:          hc,
				Metrics:         metricsHandler,
				Limiter:         startLimiter,
				FailureLocation: mgr.FailureRedirect(&auth.AuthError{Reason: auth.ReasonAuthError}),
			})

			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       30 * time.Second,
				WriteTimeout:      30 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, gctx := errgroup.WithContext(runCtx)
			g.Go(func() error {
				log.Info("server listening",
					logger.String("addr", addr),
					logger.String("version", version),
				)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				log.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Dirección de escucha (default: settings server.addr)")
	return cmd
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Lista los providers habilitados y su estado de configuración",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, pool, err := loadSettings(ctx)
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
			}

			reg := newRegistry()
			for _, id := range reg.Known() {
				cfg, err := s.ProviderConfig(id)
				if err != nil {
					fmt.Printf("%-10s disabled (%v)\n", id, err)
					continue
				}
				p, err := reg.Create(id, cfg)
				if err != nil {
					fmt.Printf("%-10s error: %v\n", id, err)
					continue
				}
				if err := p.ValidateConfig(); err != nil {
					fmt.Printf("%-10s enabled, misconfigured: %v\n", id, err)
					continue
				}
				fmt.Printf("%-10s ready\n", id)
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones SQL embebidas sobre storage.dsn",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			boot, err := settings.Load(ctx, settings.Options{})
			if err != nil {
				return err
			}
			dsn := boot.GetString("storage.dsn", "")
			if dsn == "" {
				return errors.New("migrate requiere storage.dsn")
			}
			pool, err := pgxpool.New(ctx, dsn)
			if err != nil {
				return fmt.Errorf("connecting to postgres: %w", err)
			}
			defer pool.Close()

			entries, err := migrations.FS.ReadDir(".")
			if err != nil {
				return err
			}
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				names = append(names, e.Name())
			}
			sort.Strings(names)

			for _, name := range names {
				sql, err := migrations.FS.ReadFile(name)
				if err != nil {
					return err
				}
				if _, err := pool.Exec(ctx, string(sql)); err != nil {
					return fmt.Errorf("applying %s: %w", name, err)
				}
				fmt.Printf("applied %s\n", name)
			}
			return nil
		},
	}
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Operaciones sobre la configuración persistida",
	}

	dump := &cobra.Command{
		Use:   "dump",
		Short: "Imprime el snapshot efectivo de configuración (valores sensibles ocultos)",
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			s, pool, err := loadSettings(ctx)
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
			}

			flat := s.Flatten()
			m := make(map[string]any, len(flat))
			for k, v := range flat {
				m[k] = v
			}
			m = logger.Redact(m)

			keys := make([]string, 0, len(m))
			for k := range m {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s: %v\n", k, m[k])
			}
			return nil
		},
	}

	persist := &cobra.Command{
		Use:   "persist",
		Short: "Guarda el snapshot efectivo en el store configurado",
		RunE: func(c *cobra.Command, args []string) error {
			ctx := c.Context()
			s, pool, err := loadSettings(ctx)
			if err != nil {
				return err
			}
			if pool != nil {
				defer pool.Close()
			}

			boot, err := settings.Load(ctx, settings.Options{})
			if err != nil {
				return err
			}
			var store settings.Store
			switch boot.GetString("storage.driver", "memory") {
			case "postgres":
				if pool == nil {
					return errors.New("no hay pool de postgres")
				}
				store = &settings.PGStore{Pool: pool}
			case "file":
				store = settings.NewFileStore(boot.GetString("storage.path", "socialgate.yaml"))
			default:
				return errors.New("storage.driver=memory no persiste")
			}
			if err := s.Persist(ctx, store); err != nil {
				return err
			}
			fmt.Println("ok")
			return nil
		},
	}

	cmd.AddCommand(dump, persist)
	return cmd
}
