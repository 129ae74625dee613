package bot

import (
	"github.com/bwmarrin/discordgo"

	"portfolio-be/gallery"
)

// Client is the part of *discordgo.Session the scrape job talks to.
type Client interface {
	User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error)
	UserGuilds(limit int, beforeID, afterID string, withCounts bool, options ...discordgo.RequestOption) ([]*discordgo.UserGuild, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	MessageFetcher
	Sender
}

// MessageFetcher returns one page of a channel's history.
type MessageFetcher interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
}

// Sender posts a text message to a channel.
type Sender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// YearChannels holds the channel ids found under one year category. Empty ids
// mean the sector has no channel.
type YearChannels struct {
	Label    string
	Year     int
	Main     string
	Alt      string
	Sketches string
}

// ID returns the channel id for sector s.
func (y YearChannels) ID(s gallery.Sector) string {
	switch s {
	case gallery.SectorMain:
		return y.Main
	case gallery.SectorAlt:
		return y.Alt
	case gallery.SectorSketches:
		return y.Sketches
	}
	return ""
}

func (y *YearChannels) set(s gallery.Sector, id string) {
	switch s {
	case gallery.SectorMain:
		y.Main = id
	case gallery.SectorAlt:
		y.Alt = id
	case gallery.SectorSketches:
		y.Sketches = id
	}
}

// Empty reports whether no sector was classified.
func (y YearChannels) Empty() bool {
	return y.Main == "" && y.Alt == "" && y.Sketches == ""
}

// ChannelMap is the result of discovery, in processing order (newest year first).
type ChannelMap []YearChannels

// Get returns the entry for a category label.
func (m ChannelMap) Get(label string) (YearChannels, bool) {
	for _, y := range m {
		if y.Label == label {
			return y, true
		}
	}
	return YearChannels{}, false
}
