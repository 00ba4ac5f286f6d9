package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	consulsd "github.com/go-kit/kit/sd/consul"
	"github.com/hashicorp/consul/api"
	"github.com/ichigozero/taskapi/apigateway"
	"github.com/ichigozero/taskapi/authsvc"
	authgorm "github.com/ichigozero/taskapi/authsvc/db/gorm"
	"github.com/ichigozero/taskapi/authsvc/inmem"
	taskgorm "github.com/ichigozero/taskapi/tasksvc/db/gorm"
	"github.com/ichigozero/taskapi/usersvc"
	usergorm "github.com/ichigozero/taskapi/usersvc/db/gorm"
	avatars3 "github.com/ichigozero/taskapi/usersvc/s3"
	"github.com/joho/godotenv"
	"github.com/oklog/oklog/pkg/group"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/twinj/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	libgorm "gorm.io/gorm"
)

type config struct {
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":3000"`
	DatabaseURL    string        `env:"DATABASE_URL"`
	SQLitePath     string        `env:"SQLITE_PATH" envDefault:"taskapi.db"`
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" envDefault:"0s"`
	BcryptCost     int           `env:"BCRYPT_COST" envDefault:"8"`
	TokenStore     string        `env:"TOKEN_STORE" envDefault:"db"`
	AvatarStore    string        `env:"AVATAR_STORE" envDefault:"db"`
	ConsulAddr     string        `env:"CONSUL_ADDR"`
	ConsulRegister bool          `env:"CONSUL_REGISTER"`

	S3 avatars3.Config `envPrefix:"S3_"`
}

func main() {
	// A missing .env file is fine; the environment may be set already.
	if err := godotenv.Load(getEnv("ENV_FILE", ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load env file: %v\n", err)
		os.Exit(1)
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "parse env: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("taskapi", flag.ExitOnError)
	{
		fs.StringVar(&cfg.HTTPAddr, "http.addr", cfg.HTTPAddr, "HTTP listen address")
		fs.StringVar(&cfg.DatabaseURL, "database.url", cfg.DatabaseURL, "Postgres URL, SQLite is used when empty")
		fs.StringVar(&cfg.SQLitePath, "sqlite.path", cfg.SQLitePath, "SQLite database file")
		fs.StringVar(&cfg.JWTSecret, "jwt.secret", cfg.JWTSecret, "Secret used to sign tokens")
		fs.DurationVar(&cfg.TokenTTL, "token.ttl", cfg.TokenTTL, "Token lifetime, 0 for tokens that never expire")
		fs.IntVar(&cfg.BcryptCost, "bcrypt.cost", cfg.BcryptCost, "bcrypt cost for password hashes")
		fs.StringVar(&cfg.TokenStore, "token.store", cfg.TokenStore, "Token store: db or consul")
		fs.StringVar(&cfg.AvatarStore, "avatar.store", cfg.AvatarStore, "Avatar store: db or s3")
		fs.StringVar(&cfg.ConsulAddr, "consul.addr", cfg.ConsulAddr, "Consul agent address")
		fs.BoolVar(&cfg.ConsulRegister, "consul.register", cfg.ConsulRegister, "Register the service with Consul")
		fs.StringVar(&cfg.S3.Bucket, "s3.bucket", cfg.S3.Bucket, "S3 bucket for avatars")
		fs.StringVar(&cfg.S3.Region, "s3.region", cfg.S3.Region, "S3 region")
		fs.StringVar(&cfg.S3.BaseEndpoint, "s3.endpoint", cfg.S3.BaseEndpoint, "S3 endpoint for S3-compatible stores")
	}
	fs.Usage = usageFor(fs, os.Args[0]+" [flags]")
	fs.Parse(os.Args[1:])

	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(os.Stderr)
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}

	if cfg.JWTSecret == "" {
		level.Error(logger).Log("err", "JWT_SECRET must be set")
		os.Exit(1)
	}

	var db *libgorm.DB
	{
		var err error
		if cfg.DatabaseURL != "" {
			db, err = libgorm.Open(postgres.Open(cfg.DatabaseURL), &libgorm.Config{})
		} else {
			db, err = libgorm.Open(sqlite.Open(cfg.SQLitePath), &libgorm.Config{})
		}
		if err != nil {
			level.Error(logger).Log("during", "Open", "err", err)
			os.Exit(1)
		}

		for _, migrate := range []func(*libgorm.DB) error{
			usergorm.Migrate,
			authgorm.Migrate,
			taskgorm.Migrate,
		} {
			if err := migrate(db); err != nil {
				level.Error(logger).Log("during", "Migrate", "err", err)
				os.Exit(1)
			}
		}
	}

	var consulClient *api.Client
	if cfg.TokenStore == "consul" || cfg.ConsulRegister {
		consulConfig := api.DefaultConfig()
		if len(cfg.ConsulAddr) > 0 {
			consulConfig.Address = cfg.ConsulAddr
		}

		var err error
		consulClient, err = api.NewClient(consulConfig)
		if err != nil {
			level.Error(logger).Log("during", "Consul", "err", err)
			os.Exit(1)
		}
	}

	var tokens authsvc.TokenRepository
	switch cfg.TokenStore {
	case "db":
		tokens = authgorm.NewTokenRepository(db)
	case "consul":
		tokens = inmem.NewTokenRepository(inmem.NewClient(consulClient))
	default:
		level.Error(logger).Log("err", fmt.Sprintf("unknown token store %q", cfg.TokenStore))
		os.Exit(1)
	}

	var avatars usersvc.AvatarRepository
	switch cfg.AvatarStore {
	case "db":
		avatars = usergorm.NewAvatarRepository(db)
	case "s3":
		client, err := avatars3.NewClient(context.Background(), cfg.S3)
		if err != nil {
			level.Error(logger).Log("during", "S3", "err", err)
			os.Exit(1)
		}
		avatars = avatars3.NewAvatarRepository(client, cfg.S3.Bucket)
	default:
		level.Error(logger).Log("err", fmt.Sprintf("unknown avatar store %q", cfg.AvatarStore))
		os.Exit(1)
	}

	registry := stdprometheus.NewRegistry()
	registry.MustRegister(
		stdprometheus.NewGoCollector(),
		stdprometheus.NewProcessCollector(stdprometheus.ProcessCollectorOpts{}),
	)

	handler, err := apigateway.New(
		apigateway.Stores{
			Users:   usergorm.NewUserRepository(db),
			Avatars: avatars,
			Tokens:  tokens,
			Tasks:   taskgorm.NewTaskRepository(db),
		},
		apigateway.Config{
			Secret:     []byte(cfg.JWTSecret),
			TokenTTL:   cfg.TokenTTL,
			BcryptCost: cfg.BcryptCost,
			Registry:   registry,
		},
		logger,
	)
	if err != nil {
		level.Error(logger).Log("during", "Build", "err", err)
		os.Exit(1)
	}

	if cfg.ConsulRegister {
		host, port, err := net.SplitHostPort(cfg.HTTPAddr)
		if err != nil {
			level.Error(logger).Log("err", err)
			os.Exit(1)
		}
		if host == "" {
			host = "localhost"
		}

		p, _ := strconv.Atoi(port)
		asr := &api.AgentServiceRegistration{
			ID:      uuid.NewV4().String(),
			Name:    "taskapi",
			Address: host,
			Port:    p,
		}

		registrar := consulsd.NewRegistrar(consulsd.NewClient(consulClient), asr, logger)
		registrar.Register()
		defer registrar.Deregister()
	}

	var g group.Group
	{
		httpListener, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			level.Error(logger).Log("transport", "HTTP", "during", "Listen", "err", err)
			os.Exit(1)
		}
		server := &http.Server{Handler: handler}
		g.Add(func() error {
			level.Info(logger).Log("transport", "HTTP", "addr", cfg.HTTPAddr)
			return server.Serve(httpListener)
		}, func(error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(ctx)
		})
	}
	{
		// This function just sits and waits for ctrl-C.
		cancelInterrupt := make(chan struct{})
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-c:
				return fmt.Errorf("received signal %s", sig)
			case <-cancelInterrupt:
				return nil
			}
		}, func(error) {
			close(cancelInterrupt)
		})
	}
	logger.Log("exit", g.Run())
}

func usageFor(fs *flag.FlagSet, short string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "USAGE\n")
		fmt.Fprintf(os.Stderr, "  %s\n", short)
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "FLAGS\n")
		w := tabwriter.NewWriter(os.Stderr, 0, 2, 2, ' ', 0)
		fs.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(w, "\t-%s %s\t%s\n", f.Name, f.DefValue, f.Usage)
		})
		w.Flush()
		fmt.Fprintf(os.Stderr, "\n")
	}
}

func getEnv(key, fallback string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		value = fallback
	}
	return value
}
