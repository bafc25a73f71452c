package main

import (
	"os"

	"podfeed/internal/config"
	"podfeed/internal/fetcher"
	"podfeed/internal/logger"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.Log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "podfeed",
		Usage: "Podcast feed backend",
		Description: `Fetches RSS and Atom podcast feeds, normalizes them into a single
JSON shape and keeps a list of subscriptions.

Flags can generally be set via environment variables, e.g.:

--config => PODFEED_CONFIG=config.toml
--store-driver => PODFEED_STORE_DRIVER=sqlite`,
		Commands: []*cli.Command{
			serveCmd(),
			subscribeCmd(),
			subscriptionsCmd(),
		},
		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},
	}
}

// commonFlags - флаги конфигурации, общие для всех команд.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to a .json or .toml config file",
			EnvVars: []string{"PODFEED_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "store-driver",
			Usage:   "Subscription store: file, sqlite or postgres",
			EnvVars: []string{"PODFEED_STORE_DRIVER"},
		},
		&cli.StringFlag{
			Name:    "store-path",
			Usage:   "Subscription file or SQLite database path",
			EnvVars: []string{"PODFEED_STORE_PATH"},
		},
		&cli.StringFlag{
			Name:    "store-dsn",
			Usage:   "PostgreSQL connection string",
			EnvVars: []string{"PODFEED_STORE_DSN"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn, error",
			EnvVars: []string{"PODFEED_LOG_LEVEL"},
		},
	}
}

// loadConfig читает файл конфигурации и применяет поверх него флаги.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("store-driver") {
		cfg.Store.Driver = c.String("store-driver")
	}
	if c.IsSet("store-path") {
		cfg.Store.Path = c.String("store-path")
	}
	if c.IsSet("store-dsn") {
		cfg.Store.DSN = c.String("store-dsn")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("addr") {
		cfg.Addr = c.String("addr")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newResolver(cfg *config.Config) *fetcher.Resolver {
	return fetcher.NewResolver(fetcher.New(
		fetcher.WithTimeout(cfg.Timeout()),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithMaxBodyBytes(cfg.MaxBodyBytes),
	))
}
