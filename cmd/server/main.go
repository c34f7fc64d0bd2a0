package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/npezzotti/roomchat/internal/api"
	"github.com/npezzotti/roomchat/internal/config"
	"github.com/npezzotti/roomchat/internal/database"
	"github.com/npezzotti/roomchat/internal/server"
	"github.com/npezzotti/roomchat/internal/stats"
	"golang.org/x/sync/errgroup"
)

type stringSliceFlag []string

func (s *stringSliceFlag) String() string {
	return strings.Join(*s, ",")
}

func (s *stringSliceFlag) Set(value string) error {
	*s = append(*s, strings.Split(value, ",")...)
	return nil
}

var (
	configPath     string
	addr           string
	httpAddr       string
	driver         string
	dsn            string
	allowedOrigins stringSliceFlag
)

func main() {
	flag.StringVar(&configPath, "config", "", "path to a YAML config file")
	flag.StringVar(&addr, "addr", ":5000", "chat server address")
	flag.StringVar(&httpAddr, "http-addr", "localhost:8000", "HTTP gateway address, empty to disable")
	flag.StringVar(&driver, "driver", "sqlite3", "database driver: sqlite3, postgres or memory")
	flag.StringVar(&dsn, "dsn", "file:roomchat.db?_busy_timeout=5000", "database connection string")
	flag.Var(&allowedOrigins, "allowed-origins", "comma-separated list of allowed origins for the gateway")
	flag.Parse()

	logger := log.New(os.Stderr, "[roomchat] ", log.LstdFlags)

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatal("config: ", err)
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config: ", err)
	}

	if err := run(logger, cfg); err != nil {
		logger.Fatal("server: ", err)
	}
	logger.Println("shutdown complete")
}

func run(logger *log.Logger, cfg *config.Config) error {
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Println("db close:", err)
		}
	}()

	if sqlDB, ok := db.(*database.SQLRepository); ok {
		if err := sqlDB.Migrate(); err != nil {
			return fmt.Errorf("db migrate: %w", err)
		}
	}

	statsUpdater := stats.NewStatsUpdater()
	statsUpdater.Run()
	defer statsUpdater.Stop()

	chatServer, err := server.NewChatServer(logger, db, statsUpdater, cfg)
	if err != nil {
		return fmt.Errorf("new chat server: %w", err)
	}

	var gateway *api.ChatApp
	if cfg.HTTPAddr != "" {
		gateway = api.NewChatApp(logger, chatServer, db, statsUpdater.Handler(), cfg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := chatServer.ListenAndServe(cfg.ListenAddr); !errors.Is(err, server.ErrServerClosed) {
			return err
		}
		return nil
	})
	if gateway != nil {
		g.Go(func() error {
			if err := gateway.Start(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Println("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		var errs []error
		if gateway != nil {
			errs = append(errs, gateway.Shutdown(shutdownCtx))
		}
		errs = append(errs, chatServer.Shutdown(shutdownCtx))
		return errors.Join(errs...)
	})

	return g.Wait()
}

// applyFlags overrides loaded configuration with flags set on the command
// line.
func applyFlags(cfg *config.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.ListenAddr = addr
		case "http-addr":
			cfg.HTTPAddr = httpAddr
		case "driver":
			cfg.Database.Driver = driver
		case "dsn":
			cfg.Database.DSN = dsn
		case "allowed-origins":
			cfg.AllowedOrigins = allowedOrigins
		}
	})
}
