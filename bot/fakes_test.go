package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"portfolio-be/gallery"
)

type fakeClient struct {
	mu sync.Mutex

	user      *discordgo.User
	guilds    []*discordgo.UserGuild
	guildsErr error
	channels  []*discordgo.Channel

	// messages are stored newest first, the order Discord pages them in.
	messages map[string][]*discordgo.Message
	fetchErr map[string]error
	stuck    map[string]bool
	fetches  map[string]int

	sent    []string
	sentTo  []string
	sendErr error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		user:     &discordgo.User{ID: "1", Username: "gallery-bot", Discriminator: "0"},
		guilds:   []*discordgo.UserGuild{{ID: "guild-1", Name: "Art"}},
		messages: make(map[string][]*discordgo.Message),
		fetchErr: make(map[string]error),
		stuck:    make(map[string]bool),
		fetches:  make(map[string]int),
	}
}

func (f *fakeClient) User(userID string, options ...discordgo.RequestOption) (*discordgo.User, error) {
	return f.user, nil
}

func (f *fakeClient) UserGuilds(limit int, beforeID, afterID string, withCounts bool, options ...discordgo.RequestOption) ([]*discordgo.UserGuild, error) {
	if f.guildsErr != nil {
		return nil, f.guildsErr
	}
	if limit < len(f.guilds) {
		return f.guilds[:limit], nil
	}
	return f.guilds, nil
}

func (f *fakeClient) GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error) {
	return f.channels, nil
}

func (f *fakeClient) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetches[channelID]++
	if err := f.fetchErr[channelID]; err != nil {
		return nil, err
	}

	all := f.messages[channelID]
	if f.stuck[channelID] {
		return append([]*discordgo.Message(nil), all[:min(limit, len(all))]...), nil
	}

	start := 0
	if beforeID != "" {
		start = len(all)
		for i, m := range all {
			if m.ID == beforeID {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(all))
	if start >= end {
		return []*discordgo.Message{}, nil
	}
	return append([]*discordgo.Message(nil), all[start:end]...), nil
}

func (f *fakeClient) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent = append(f.sent, content)
	f.sentTo = append(f.sentTo, channelID)
	return &discordgo.Message{ID: fmt.Sprintf("log-%d", len(f.sent)), ChannelID: channelID, Content: content}, nil
}

func (f *fakeClient) fetchCount(channelID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches[channelID]
}

func (f *fakeClient) sentText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.sent, "\n")
}

type fakeProber struct {
	mu    sync.Mutex
	dims  map[string]gallery.Dims
	err   error
	calls []string
}

func (p *fakeProber) Probe(ctx context.Context, link string) (gallery.Dims, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, link)
	if p.err != nil {
		return gallery.Dims{}, p.err
	}
	if d, ok := p.dims[link]; ok {
		return d, nil
	}
	return gallery.Dims{}, errors.New("unsupported format")
}

func (p *fakeProber) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

var testEmoji = Emoji{Info: ":info:", Warn: ":warn:", Error: ":error:", Time: ":time:"}

func categoryChannel(id, name string, position int) *discordgo.Channel {
	return &discordgo.Channel{ID: id, Name: name, Type: discordgo.ChannelTypeGuildCategory, Position: position}
}

func textChannel(id, name, parentID string, position int) *discordgo.Channel {
	return &discordgo.Channel{ID: id, Name: name, Type: discordgo.ChannelTypeGuildText, ParentID: parentID, Position: position}
}

// history builds n image messages for a channel, newest first.
func history(channelID string, n int, base string, created time.Time) []*discordgo.Message {
	msgs := make([]*discordgo.Message, 0, n)
	for i := n; i >= 1; i-- {
		id := fmt.Sprintf("%d", 1000000+i)
		msgs = append(msgs, &discordgo.Message{
			ID:        id,
			ChannelID: channelID,
			Timestamp: created.Add(time.Duration(i) * time.Hour),
			Attachments: []*discordgo.MessageAttachment{{
				ID:          "a" + id,
				Filename:    "art" + id + ".png",
				ContentType: "image/png",
				URL:         base + "/attachments/" + channelID + "/" + id + "/art" + id + ".png",
				ProxyURL:    base + "/attachments/" + channelID + "/" + id + "/art" + id + ".png?width=400",
			}},
		})
	}
	return msgs
}
