package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	"podfeed/internal/models"
	"podfeed/internal/subscription"

	"github.com/stretchr/testify/require"
)

func TestSubscriptionsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subscriptions.json")
	store, err := subscription.NewFileStore(path)
	require.NoError(t, err)
	_, _, err = store.Insert(context.Background(), models.Subscription{
		ID:          "0190f5a8-0000-7000-8000-000000000001",
		Title:       "Keep Calm",
		URL:         "https://keepcalm.banlan.show/feed/audio.xml",
		LastUpdated: time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	err = app.Run([]string{"podfeed", "subscriptions", "--store-path", path})
	require.NoError(t, err)
	require.Contains(t, out.String(), "Keep Calm")
	require.Contains(t, out.String(), "https://keepcalm.banlan.show/feed/audio.xml")
	require.Contains(t, out.String(), "2024-03-01 08:30:00")
}

func TestSubscriptionsCommand_Empty(t *testing.T) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out

	path := filepath.Join(t.TempDir(), "subscriptions.json")
	err := app.Run([]string{"podfeed", "subscriptions", "--store-driver", "file", "--store-path", path})
	require.NoError(t, err)
	require.Equal(t, "No subscriptions\n", out.String())
}

func TestSubscribeCommand_RequiresURL(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}

	err := app.Run([]string{"podfeed", "subscribe"})
	require.EqualError(t, err, "missing feed url")
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}

	err := app.Run([]string{"podfeed", "subscriptions", "--store-driver", "mongo"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown store driver")
}
