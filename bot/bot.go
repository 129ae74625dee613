package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	"portfolio-be/config"
	"portfolio-be/gallery"
)

var ErrGuildNotFound = errors.New("no guild visible to this token")

// Sink receives the finished dataset after the artifact is written.
type Sink interface {
	Name() string
	Publish(ctx context.Context, d gallery.Dataset) error
}

// Job is one scrape run.
type Job struct {
	client     Client
	log        *RunLog
	assembler  *Assembler
	outputPath string
	sinks      []Sink
}

// NewJob wires a run from conf. console receives the mirrored run log.
func NewJob(client Client, conf *config.Config, console io.Writer, sinks ...Sink) *Job {
	emoji := Emoji{
		Info:  conf.Logger.Emoji.Info,
		Warn:  conf.Logger.Emoji.Warn,
		Error: conf.Logger.Emoji.Error,
		Time:  conf.Logger.Emoji.Time,
	}
	runLog := NewRunLog(client, conf.Discord.LogChannelID, emoji, console)

	paginator := NewPaginator(client, conf.Discord.PageSize, newLimiter(conf.Discord.RequestsPerSecond))

	var cache DimsCache
	if conf.Cache.Enabled {
		cache = NewDimsCache(conf.Cache.Size)
	}
	prober := NewHTTPProber(
		&http.Client{Timeout: conf.Probe.Timeout},
		conf.Probe.UserAgent,
		newLimiter(conf.Probe.RequestsPerSecond),
		cache,
	)
	resolver := NewResolver(prober, runLog, conf.Gallery.DatedFromYear, conf.Location(), conf.Probe.Concurrency)

	return &Job{
		client:     client,
		log:        runLog,
		assembler:  NewAssembler(paginator, resolver, runLog),
		outputPath: conf.Output.Path,
		sinks:      sinks,
	}
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Log exposes the run log.
func (j *Job) Log() *RunLog {
	return j.log
}

// Run scrapes the first guild visible to the client, writes the artifact and
// hands the dataset to every sink. Partial failures end up in the run log only;
// the returned error is non-nil when no dataset could be assembled at all. The
// run log is flushed on every path.
func (j *Job) Run(ctx context.Context) (gallery.Dataset, error) {
	defer func() {
		if err := j.log.Flush(context.WithoutCancel(ctx)); err != nil {
			slog.Error("UNABLE TO SEND RUN LOG", "MSG", err)
		}
	}()

	j.log.Time()
	j.log.NewLine()

	if me, err := j.client.User("@me", discordgo.WithContext(ctx)); err != nil {
		j.log.Warn("Failed to look up bot user: %v", err)
	} else {
		j.log.Info("Logged in as %s!", me.String())
	}
	j.log.NewLine()

	guilds, err := j.client.UserGuilds(1, "", "", false, discordgo.WithContext(ctx))
	if err != nil || len(guilds) == 0 || guilds[0] == nil {
		if err != nil {
			j.log.Error("Failed to find guild: %v", err)
		} else {
			j.log.Error("Failed to find guild")
		}
		j.log.NewLine()
		return nil, ErrGuildNotFound
	}
	guild := guilds[0]

	channels, err := j.client.GuildChannels(guild.ID, discordgo.WithContext(ctx))
	if err != nil {
		j.log.Error("Failed to list channels of guild %s: %v", guild.ID, err)
		j.log.NewLine()
		return nil, fmt.Errorf("list guild channels: %w", err)
	}

	channelMap := Discover(channels, j.log)
	dataset := j.assembler.Assemble(ctx, channelMap)
	LogTotals(j.log, dataset)

	j.log.Info("Writing data to json...")
	if err := gallery.Write(j.outputPath, dataset); err != nil {
		j.log.Error("Failed to write %s: %v", j.outputPath, err)
	} else {
		j.log.Info("Write completed")
	}

	for _, sink := range j.sinks {
		if err := sink.Publish(ctx, dataset); err != nil {
			j.log.Error("Failed to publish to %s: %v", sink.Name(), err)
			continue
		}
		j.log.Info("Published to %s", sink.Name())
	}

	slog.Info("✅ Gallery scrape finished", "years", len(dataset), "items", dataset.Totals().All(),
		"warnings", j.log.Count(EntryWarn), "errors", j.log.Count(EntryError))
	return dataset, nil
}

// Start opens a REST session with the configured token and runs one scrape.
func Start(ctx context.Context, conf *config.Config, sinks ...Sink) (gallery.Dataset, error) {
	if err := conf.RequireToken(); err != nil {
		slog.Error("DISCORD_TOKEN environment variable is not set")
		return nil, err
	}

	dg, err := discordgo.New("Bot " + conf.Discord.Token)
	if err != nil {
		slog.Error("UNABLE TO CREATE DISCORD SESSION: ", "MSG", err)
		return nil, err
	}

	slog.Info("🤖 Starting gallery scrape", "output", conf.Output.Path, "sinks", len(sinks))
	return NewJob(dg, conf, os.Stdout, sinks...).Run(ctx)
}
