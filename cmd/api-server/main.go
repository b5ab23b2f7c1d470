package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"

	"github.com/teamdesk/teamdesk/internal/attendance"
	"github.com/teamdesk/teamdesk/internal/database"
	"github.com/teamdesk/teamdesk/internal/env"
	"github.com/teamdesk/teamdesk/internal/notify"
	"github.com/teamdesk/teamdesk/internal/version"
)

var _cfgFile = flag.String("cfg", "", "path to config file")

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	err := run(logger)
	if err != nil {
		trace := string(debug.Stack())
		logger.Error(err.Error(), "trace", trace)
		os.Exit(1)
	}
}

type config struct {
	httpHost string
	httpPort int
	db       struct {
		dsn         string
		automigrate bool
	}
	jwt struct {
		secret string
	}
}

type application struct {
	config     config
	db         *database.DB
	logger     *slog.Logger
	registry   *notify.Registry
	notifier   *notify.Dispatcher
	attendance *attendance.Manager
	wg         sync.WaitGroup
}

func run(logger *slog.Logger) error {
	showVersion := flag.Bool("version", false, "display version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("version: %s\n", version.Get())
		return nil
	}

	var cfg config

	if *_cfgFile != "" {
		err := env.Load(*_cfgFile)
		if err != nil {
			return err
		}
	}

	cfg.httpHost = env.GetString("HTTP_HOST", "localhost")
	cfg.httpPort = env.GetInt("HTTP_PORT", 8080)
	cfg.db.dsn = env.GetString("DB_DSN", "postgres:postgres@localhost:5432/postgres")
	cfg.db.automigrate = env.GetBool("DB_AUTOMIGRATE", true)
	cfg.jwt.secret = env.GetString("JWT_SECRET", "")

	if cfg.jwt.secret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}

	db, err := database.New(logger, cfg.db.dsn, cfg.db.automigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	registry := notify.NewRegistry()

	app := &application{
		config:     cfg,
		db:         db,
		logger:     logger,
		registry:   registry,
		notifier:   notify.NewDispatcher(logger, database.NewNotificationDAO(logger, db), registry),
		attendance: attendance.NewManager(logger, database.NewAttendanceDAO(logger, db)),
	}

	return app.serveHTTP()
}
