// Copyright 2026 Harmonia Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/harmoniahq/harmonia"
	"github.com/harmoniahq/harmonia/ai"
	"github.com/harmoniahq/harmonia/provider"
	"github.com/harmoniahq/harmonia/recommend"
	"github.com/harmoniahq/harmonia/server"
)

var storageFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "db",
		Aliases: []string{"d"},
		Usage:   "Path to BadgerDB database directory",
		Value:   "harmonia-db",
		EnvVars: []string{"HARMONIA_DB_PATH"},
	},
	&cli.StringFlag{
		Name:    "postgres-dsn",
		Usage:   "PostgreSQL DSN; when set, songs are stored in postgres with pgvector instead of BadgerDB",
		EnvVars: []string{"HARMONIA_POSTGRES_DSN"},
	},
}

var aiFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "embedding-host",
		Usage:   "Embedding service host URL",
		Value:   "http://localhost:11434/v1",
		EnvVars: []string{"HARMONIA_EMBEDDING_HOST"},
	},
	&cli.StringFlag{
		Name:    "embedding-model",
		Usage:   "Embedding model name",
		Value:   "all-minilm",
		EnvVars: []string{"HARMONIA_EMBEDDING_MODEL"},
	},
}

var upstreamFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "upstream-url",
		Usage:   "Base URL of the upstream song catalogue API",
		Value:   "https://saavn.dev/api",
		EnvVars: []string{"HARMONIA_UPSTREAM_URL"},
	},
	&cli.IntFlag{
		Name:    "upstream-retries",
		Usage:   "Retries for failed upstream requests",
		Value:   0,
		EnvVars: []string{"HARMONIA_UPSTREAM_RETRIES"},
	},
}

func main() {
	app := &cli.App{
		Name:   "harmonia",
		Usage:  "Song search proxy with embedding-based recommendations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server",
				Action: serveCommand,
				Flags: append(append(append([]cli.Flag{
					&cli.StringFlag{
						Name:    "listen",
						Usage:   "Address to listen on",
						Value:   ":8000",
						EnvVars: []string{"HARMONIA_LISTEN_ADDR"},
					},
					&cli.DurationFlag{
						Name:    "search-cache-ttl",
						Usage:   "Cache upstream search responses for this long (0 disables, BadgerDB only)",
						Value:   0,
						EnvVars: []string{"HARMONIA_SEARCH_CACHE_TTL"},
					},
					&cli.DurationFlag{
						Name:    "request-timeout",
						Usage:   "Timeout for foreground request handling",
						Value:   10 * time.Second,
						EnvVars: []string{"HARMONIA_REQUEST_TIMEOUT"},
					},
				}, storageFlags...), aiFlags...), upstreamFlags...),
			},
			{
				Name:   "seed",
				Usage:  "Pre-load popular songs so recommendations work immediately",
				Action: seedCommand,
				Flags: append(append(append([]cli.Flag{
					&cli.StringSliceFlag{
						Name:  "query",
						Usage: "Search query to seed from (repeatable, defaults to a built-in list of popular artists)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Songs to fetch per query",
						Value: 10,
					},
				}, storageFlags...), aiFlags...), upstreamFlags...),
			},
			{
				Name:      "recommend",
				Usage:     "Print recommendations for an already-analyzed song",
				ArgsUsage: "<song-id>",
				Action:    recommendCommand,
				Flags: append(append([]cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of recommendations",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "verbose",
						Usage: "Print each stage of the recommendation query",
					},
				}, storageFlags...), aiFlags...),
			},
			{
				Name:   "stats",
				Usage:  "Print store statistics",
				Action: statsCommand,
				Flags:  append(append([]cli.Flag{}, storageFlags...), aiFlags...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func openService(c *cli.Context, extra ...harmonia.ServiceOption) (*harmonia.Service, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	opts := []harmonia.ServiceOption{harmonia.WithAIConfig(aiConfig)}
	if dsn := c.String("postgres-dsn"); dsn != "" {
		opts = append(opts, harmonia.WithPostgres(dsn))
	}
	if retries := c.Int("upstream-retries"); retries > 0 {
		opts = append(opts, harmonia.WithUpstreamOptions(provider.WithRetries(retries)))
	}
	opts = append(opts, extra...)

	upstreamURL := c.String("upstream-url")
	if upstreamURL == "" {
		// Commands that never talk to the upstream still need a client.
		upstreamURL = "http://localhost:0"
	}

	svc, err := harmonia.NewService(c.String("db"), upstreamURL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open service: %w", err)
	}

	if err := svc.EnsureSchema(c.Context); err != nil {
		svc.Close()
		return nil, fmt.Errorf("failed to provision schema: %w", err)
	}

	return svc, nil
}

func serveCommand(c *cli.Context) error {
	var extra []harmonia.ServiceOption
	if ttl := c.Duration("search-cache-ttl"); ttl > 0 {
		extra = append(extra, harmonia.WithSearchCacheTTL(ttl))
	}

	svc, err := openService(c, extra...)
	if err != nil {
		return err
	}
	defer svc.Close()

	srv, pipeline, err := svc.NewServer(server.WithRequestTimeout(c.Duration("request-timeout")))
	if err != nil {
		return err
	}
	defer pipeline.Release()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.ListenAndServe(ctx, c.String("listen"))
}

// defaultSeedQueries pre-loads well-known artists so fresh installs can
// recommend something before any organic search traffic arrives.
var defaultSeedQueries = []string{
	"Imagine Dragons",
	"Ed Sheeran",
	"The Weeknd",
	"Taylor Swift",
	"Ariana Grande",
	"Billie Eilish",
	"Post Malone",
	"Drake",
	"Justin Bieber",
	"Dua Lipa",
	"Coldplay",
	"Maroon 5",
	"Bruno Mars",
	"Sia",
	"Eminem",
	"Adele",
	"Sam Smith",
	"Shawn Mendes",
	"Charlie Puth",
	"OneRepublic",
}

func seedCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	pipeline, err := svc.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	queries := c.StringSlice("query")
	if len(queries) == 0 {
		queries = defaultSeedQueries
	}
	limit := c.Int("limit")

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	totalInserted := 0

	for i, query := range queries {
		if ctx.Err() != nil {
			break
		}

		fmt.Fprintf(os.Stderr, "[%d/%d] %s\n", i+1, len(queries), query)

		result, err := svc.UpstreamClient().SearchSongs(ctx, query, 0, limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "  error fetching %q: %v\n", query, err)
			continue
		}

		inserted, err := pipeline.IngestSync(ctx, result.Songs)
		if err != nil {
			return err
		}
		totalInserted += inserted
		fmt.Fprintf(os.Stderr, "  %d fetched, %d new\n", len(result.Songs), inserted)
	}

	stats, err := svc.SongRepository().Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\nSeeded %d new songs in %s (store total: %d)\n",
		totalInserted, time.Since(start).Round(time.Second), stats.TotalSongs)
	return nil
}

func recommendCommand(c *cli.Context) error {
	songID := c.Args().First()
	if songID == "" {
		return fmt.Errorf("song id argument is required")
	}

	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	engine, err := svc.NewRecommendEngine()
	if err != nil {
		return err
	}

	var monitor recommend.Monitor
	if c.Bool("verbose") {
		monitor = &printMonitor{out: os.Stderr}
	}

	results, err := engine.RecommendWithMonitor(c.Context, songID, c.Int("limit"), monitor)
	if err != nil {
		return err
	}

	fmt.Printf("Recommendations for %q (%s):\n", results.QuerySongName, results.QuerySongID)
	for i, song := range results.Songs {
		fmt.Printf("%2d. %-40s %-25s %.4f\n", i+1, song.Name, song.PrimaryArtist, song.SimilarityScore)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	svc, err := openService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	stats, err := svc.SongRepository().Stats(c.Context)
	if err != nil {
		return err
	}

	fmt.Printf("Total songs: %d\n", stats.TotalSongs)
	for _, bucket := range stats.Languages {
		fmt.Printf("  %-15s %d\n", bucket.Language, bucket.Count)
	}
	return nil
}
