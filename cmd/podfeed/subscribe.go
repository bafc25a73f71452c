package main

import (
	"errors"
	"fmt"
	"os"

	"podfeed/internal/logger"
	"podfeed/internal/subscription"

	"github.com/urfave/cli/v2"
)

func subscribeCmd() *cli.Command {
	return &cli.Command{
		Name:      "subscribe",
		Usage:     "Add a feed to the subscriptions",
		ArgsUsage: "<url>",
		Flags:     commonFlags(),
		Action: func(c *cli.Context) error {
			url := c.Args().First()
			if url == "" {
				return errors.New("missing feed url")
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger.Init(cfg.LogLevel, cfg.LogFormat)
			// stdout остаётся для результата.
			logger.Log.SetOutput(os.Stderr)

			store, err := subscription.Open(c.Context, cfg.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			res, err := subscription.NewService(store, newResolver(cfg)).AddIfAbsent(c.Context, url)
			if err != nil {
				return err
			}

			status := "already subscribed"
			if res.Created {
				status = "subscribed"
			}
			fmt.Fprintf(c.App.Writer, "%s: %s (%s)\n", status, res.Subscription.Title, res.Subscription.ID)
			return nil
		},
	}
}
