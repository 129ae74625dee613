package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/spf13/cobra"

	"portfolio-be/bot"
	"portfolio-be/config"
	"portfolio-be/gallery"
	"portfolio-be/publish"
	"portfolio-be/store"
)

func main() {
	app := pocketbase.New()

	var configPath string
	app.RootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("GALLERY_CONFIG"), "gallery config file (yaml)")

	app.RootCmd.AddCommand(&cobra.Command{
		Use:   "scrape",
		Short: "Scrape the art channels and write the gallery artifact",
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sinks, closeSinks, err := buildSinks(ctx, app, conf)
			if err != nil {
				return err
			}
			defer closeSinks()

			_, err = bot.Start(ctx, conf, sinks...)
			if errors.Is(err, bot.ErrGuildNotFound) {
				slog.Error("SCRAPE ABORTED", "MSG", err)
				return nil
			}
			return err
		},
	})

	app.RootCmd.AddCommand(&cobra.Command{
		Use:   "validate [artifact]",
		Short: "Check a gallery artifact against the configured year range",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conf, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			path := conf.Output.Path
			if len(args) == 1 {
				path = args[0]
			}
			ds, err := gallery.Read(path)
			if err != nil {
				return err
			}
			if err := conf.Schema().Validate(ds); err != nil {
				return err
			}

			totals := ds.Totals()
			slog.Info("✅ Gallery artifact is valid", "path", path, "years", len(ds), "main", totals.Main, "alt", totals.Alt, "sketches", totals.Sketches)
			return nil
		},
	})

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		conf, err := loadConfig(configPath)
		if err != nil {
			return err
		}

		registerRoutes(e, conf)
		return e.Next()
	})

	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
}

// registerRoutes adds the public gallery endpoint. Data that fails validation
// is still served; the failure is only logged.
func registerRoutes(se *core.ServeEvent, conf *config.Config) {
	se.Router.GET("/api/gallery", func(e *core.RequestEvent) error {
		ds, err := loadDataset(e.App, conf)
		if err != nil {
			return e.NotFoundError("gallery data unavailable", err)
		}
		if err := conf.Schema().Validate(ds); err != nil {
			slog.Warn("Serving gallery data that failed validation", "error", err)
		}
		return e.JSON(http.StatusOK, ds)
	})
}

func loadConfig(path string) (*config.Config, error) {
	conf, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: conf.SlogLevel()})))
	return conf, nil
}

func buildSinks(ctx context.Context, app core.App, conf *config.Config) ([]bot.Sink, func(), error) {
	var sinks []bot.Sink
	closeSinks := func() {}

	if conf.Output.Bucket != "" {
		bucket, err := publish.New(ctx, conf.Output, slog.Default())
		if err != nil {
			return nil, closeSinks, err
		}
		sinks = append(sinks, bucket)
		closeSinks = func() {
			if err := bucket.Close(); err != nil {
				slog.Warn("Failed to close storage client", "error", err)
			}
		}
	}

	if conf.Mirror.Enabled {
		sinks = append(sinks, store.New(app, conf.Mirror.Collection))
	}

	return sinks, closeSinks, nil
}

func loadDataset(app core.App, conf *config.Config) (gallery.Dataset, error) {
	if !conf.Mirror.Enabled {
		return gallery.Read(conf.Output.Path)
	}

	years := make([]int, 0, conf.Gallery.LastYear-conf.Gallery.FirstYear+1)
	for y := conf.Gallery.FirstYear; y <= conf.Gallery.LastYear; y++ {
		years = append(years, y)
	}
	return store.New(app, conf.Mirror.Collection).Load(years...)
}
