package main

import (
	"flag"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestSetupLogger(t *testing.T) {
	defer slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	newContext := func(level string) *cli.Context {
		set := flag.NewFlagSet("test", flag.ContinueOnError)
		set.String("log-level", level, "")
		require.NoError(t, set.Set("log-level", level))
		return cli.NewContext(nil, set, nil)
	}

	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error", "INFO", "Debug"} {
			assert.NoError(t, setupLogger(newContext(level)), level)
		}
	})

	t.Run("rejects unknown level", func(t *testing.T) {
		err := setupLogger(newContext("verbose"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestSeedFlagDefaults(t *testing.T) {
	findString := func(flags []cli.Flag, name string) *cli.StringFlag {
		for _, f := range flags {
			if sf, ok := f.(*cli.StringFlag); ok && sf.Name == name {
				return sf
			}
		}
		return nil
	}

	flags := append(append(append([]cli.Flag{}, storageFlags...), aiFlags...), upstreamFlags...)

	t.Run("embedding-host has default value", func(t *testing.T) {
		hostFlag := findString(flags, "embedding-host")
		require.NotNil(t, hostFlag)
		assert.Equal(t, "http://localhost:11434/v1", hostFlag.Value)
	})

	t.Run("embedding-model defaults to all-minilm", func(t *testing.T) {
		modelFlag := findString(flags, "embedding-model")
		require.NotNil(t, modelFlag)
		assert.Equal(t, "all-minilm", modelFlag.Value)
	})

	t.Run("storage flags read environment", func(t *testing.T) {
		dbFlag := findString(flags, "db")
		require.NotNil(t, dbFlag)
		assert.Contains(t, dbFlag.EnvVars, "HARMONIA_DB_PATH")

		dsnFlag := findString(flags, "postgres-dsn")
		require.NotNil(t, dsnFlag)
		assert.Contains(t, dsnFlag.EnvVars, "HARMONIA_POSTGRES_DSN")
	})
}

func TestDefaultSeedQueries(t *testing.T) {
	assert.NotEmpty(t, defaultSeedQueries)
	seen := make(map[string]bool)
	for _, query := range defaultSeedQueries {
		assert.NotEmpty(t, query)
		assert.False(t, seen[query], "duplicate seed query %q", query)
		seen[query] = true
	}
}
