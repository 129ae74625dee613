// Package config loads the scrape job and server settings.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gookit/validate"
	"github.com/spf13/viper"

	"portfolio-be/gallery"
)

type DiscordConfig struct {
	Token             string  `mapstructure:"token"`
	LogChannelID      string  `mapstructure:"logChannelID"`
	PageSize          int     `mapstructure:"pageSize" validate:"required|min:1|max:100"`
	RequestsPerSecond float64 `mapstructure:"requestsPerSecond" validate:"min:0"`
}

type GalleryConfig struct {
	DatedFromYear int    `mapstructure:"datedFromYear" validate:"required|min:1970"`
	FirstYear     int    `mapstructure:"firstYear" validate:"required|min:1970"`
	LastYear      int    `mapstructure:"lastYear" validate:"min:0"`
	Timezone      string `mapstructure:"timezone" validate:"required"`
}

type OutputConfig struct {
	Path            string `mapstructure:"path" validate:"required"`
	Bucket          string `mapstructure:"bucket"`
	Object          string `mapstructure:"object"`
	CredentialsFile string `mapstructure:"credentialsFile"`
	Gzip            bool   `mapstructure:"gzip"`
	Attempts        int    `mapstructure:"attempts" validate:"required|min:1"`
}

type ProbeConfig struct {
	Timeout           time.Duration `mapstructure:"timeout" validate:"required"`
	UserAgent         string        `mapstructure:"userAgent"`
	Concurrency       int           `mapstructure:"concurrency" validate:"required|min:1"`
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond" validate:"min:0"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Size    int  `mapstructure:"size" validate:"min:0"`
}

type MirrorConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Collection string `mapstructure:"collection" validate:"required"`
}

type EmojiConfig struct {
	Info  string `mapstructure:"info"`
	Warn  string `mapstructure:"warn"`
	Error string `mapstructure:"error"`
	Time  string `mapstructure:"time"`
}

type LoggerConfig struct {
	Level string      `mapstructure:"level" validate:"required|in:debug,info,warn,error"`
	Emoji EmojiConfig `mapstructure:"emoji"`
}

type Config struct {
	Path    string        `mapstructure:"-"`
	Discord DiscordConfig `mapstructure:"discord"`
	Gallery GalleryConfig `mapstructure:"gallery"`
	Output  OutputConfig  `mapstructure:"output"`
	Probe   ProbeConfig   `mapstructure:"probe"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Mirror  MirrorConfig  `mapstructure:"mirror"`
	Logger  LoggerConfig  `mapstructure:"logger"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("discord.logChannelID", "1065828557370175539")
	v.SetDefault("discord.pageSize", 100)
	v.SetDefault("discord.requestsPerSecond", 0)

	v.SetDefault("gallery.datedFromYear", 2023)
	v.SetDefault("gallery.firstYear", 2017)
	v.SetDefault("gallery.lastYear", 0)
	v.SetDefault("gallery.timezone", "Local")

	v.SetDefault("output.path", "src/galleryImages.json")
	v.SetDefault("output.object", "galleryImages.json")
	v.SetDefault("output.gzip", true)
	v.SetDefault("output.attempts", 3)

	v.SetDefault("probe.timeout", 15*time.Second)
	v.SetDefault("probe.userAgent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36")
	v.SetDefault("probe.concurrency", 4)
	v.SetDefault("probe.requestsPerSecond", 0)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", 8)

	v.SetDefault("mirror.enabled", false)
	v.SetDefault("mirror.collection", "gallery_items")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.emoji.info", "<:info_icon:1065819769514766337>")
	v.SetDefault("logger.emoji.warn", "<:warn_icon:1065819766541004920>")
	v.SetDefault("logger.emoji.error", "<:error_icon:1065819768319385630>")
	v.SetDefault("logger.emoji.time", "<:time_icon:1065823425244975234>")
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("discord.token", "DISCORD_TOKEN")
	v.BindEnv("discord.logChannelID", "GALLERY_LOG_CHANNEL_ID")
	v.BindEnv("output.path", "GALLERY_OUTPUT_PATH")
	v.BindEnv("output.bucket", "GALLERY_BUCKET")
	v.BindEnv("output.credentialsFile", "GOOGLE_APPLICATION_CREDENTIALS")
	v.BindEnv("mirror.enabled", "GALLERY_MIRROR_ENABLED")
	v.BindEnv("logger.level", "GALLERY_LOG_LEVEL")
}

// Load reads the optional YAML file at path, applies environment overrides and
// validates the result. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	bindEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	conf.Path = path

	if conf.Gallery.LastYear == 0 {
		conf.Gallery.LastYear = time.Now().Year()
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Validate checks field rules and the cross-field constraints.
func (c *Config) Validate() error {
	v := validate.Struct(c)
	if !v.Validate() {
		return fmt.Errorf("invalid config: %s", v.Errors.One())
	}

	if c.Gallery.LastYear < c.Gallery.FirstYear {
		return fmt.Errorf("invalid config: gallery.lastYear %d before gallery.firstYear %d", c.Gallery.LastYear, c.Gallery.FirstYear)
	}
	if _, err := time.LoadLocation(c.Gallery.Timezone); err != nil {
		return fmt.Errorf("invalid config: gallery.timezone: %w", err)
	}
	if c.Output.Bucket != "" && c.Output.Object == "" {
		return errors.New("invalid config: output.object is required when output.bucket is set")
	}
	return nil
}

// RequireToken reports a missing Discord token.
func (c *Config) RequireToken() error {
	if strings.TrimSpace(c.Discord.Token) == "" {
		return errors.New("DISCORD_TOKEN is required")
	}
	return nil
}

// Location returns the timezone used to date messages.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Gallery.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Schema returns the consumer-side validation rules for the configured range.
func (c *Config) Schema() gallery.Schema {
	return gallery.Schema{
		FirstYear:     c.Gallery.FirstYear,
		LastYear:      c.Gallery.LastYear,
		DatedFromYear: c.Gallery.DatedFromYear,
	}
}

// SlogLevel maps logger.level onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch c.Logger.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
