package main

import (
	"fmt"
	"os"
	"time"

	"podfeed/internal/logger"
	"podfeed/internal/models"
	"podfeed/internal/subscription"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/urfave/cli/v2"
)

func subscriptionsCmd() *cli.Command {
	return &cli.Command{
		Name:  "subscriptions",
		Usage: "List subscriptions",
		Flags: commonFlags(),
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger.Init(cfg.LogLevel, cfg.LogFormat)
			logger.Log.SetOutput(os.Stderr)

			store, err := subscription.Open(c.Context, cfg.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			subs, err := store.List(c.Context)
			if err != nil {
				return err
			}
			if len(subs) == 0 {
				fmt.Fprintln(c.App.Writer, "No subscriptions")
				return nil
			}
			fmt.Fprintln(c.App.Writer, renderSubscriptions(subs))
			return nil
		},
	}
}

func renderSubscriptions(subs []models.Subscription) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Title", "URL", "Last updated", "ID"})
	for i, sub := range subs {
		tw.AppendRow(table.Row{
			i + 1,
			sub.Title,
			sub.URL,
			sub.LastUpdated.UTC().Format(time.DateTime),
			sub.ID,
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
