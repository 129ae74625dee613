package bot

import (
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"portfolio-be/bot/utils"
	"portfolio-be/gallery"
)

// channelNameDelimiters are the runes a sector channel name is split on: en
// dash, comma, space and hyphen. Other dash glyphs (em dash, minus sign) are
// not delimiters, so "2023—sketches" stays unclassified.
const channelNameDelimiters = "–, -"

// splitChannelName splits on every delimiter rune without collapsing runs, so
// "2023 - main" yields ["2023", "", "", "main"].
func splitChannelName(name string) []string {
	var tokens []string
	start := 0
	for i, r := range name {
		if strings.ContainsRune(channelNameDelimiters, r) {
			tokens = append(tokens, name[start:i])
			start = i + len(string(r))
		}
	}
	return append(tokens, name[start:])
}

// ClassifyChannel maps a channel name to its sector using the second token of
// splitChannelName. Trailing tokens are ignored ("2023-sketches-extra" is a
// sketches channel).
func ClassifyChannel(name string) (gallery.Sector, bool) {
	tokens := splitChannelName(name)
	if len(tokens) < 2 {
		return "", false
	}
	return gallery.ParseSector(tokens[1])
}

type category struct {
	channel *discordgo.Channel
	year    int
}

// Discover builds the channel map from a guild's channel list. Categories whose
// name carries a year marker are visited newest first; a category is dropped
// when none of its children classify.
func Discover(channels []*discordgo.Channel, log *RunLog) ChannelMap {
	var categories []category
	children := make(map[string][]*discordgo.Channel)

	for _, ch := range channels {
		if ch == nil {
			continue
		}
		if ch.Type == discordgo.ChannelTypeGuildCategory {
			year, ok := utils.LeadingYear(ch.Name)
			if ok {
				categories = append(categories, category{channel: ch, year: year})
			}
			continue
		}
		if ch.ParentID != "" {
			children[ch.ParentID] = append(children[ch.ParentID], ch)
		}
	}

	sort.SliceStable(categories, func(i, j int) bool {
		if categories[i].year != categories[j].year {
			return categories[i].year > categories[j].year
		}
		return lessChannel(categories[i].channel, categories[j].channel)
	})

	var out ChannelMap
	for _, cat := range categories {
		log.Info("Processing Category: %s", cat.channel.Name)

		entry := YearChannels{Label: cat.channel.Name, Year: cat.year}

		kids := children[cat.channel.ID]
		sort.SliceStable(kids, func(i, j int) bool { return lessChannel(kids[i], kids[j]) })

		for _, ch := range kids {
			sector, ok := ClassifyChannel(ch.Name)
			if !ok {
				log.Error("Failed to load channel: %s | %s", ch.ID, ch.Name)
				continue
			}
			if prev := entry.ID(sector); prev != "" {
				log.Warn("Duplicate %s channel, replacing %s with %s", sector, prev, ch.ID)
			}
			log.Info("Channel found: %s", utils.Capitalize(string(sector)))
			entry.set(sector, ch.ID)
		}

		if entry.Empty() {
			log.Error("Invalid category: %s", cat.channel.Name)
			log.NewLine()
			continue
		}

		log.NewLine()
		out = out.put(entry, log)
	}

	return out
}

func (m ChannelMap) put(entry YearChannels, log *RunLog) ChannelMap {
	for i := range m {
		if m[i].Label == entry.Label {
			log.Warn("Duplicate category name: %s", entry.Label)
			m[i] = entry
			return m
		}
	}
	return append(m, entry)
}

func lessChannel(a, b *discordgo.Channel) bool {
	if a.Position != b.Position {
		return a.Position < b.Position
	}
	if len(a.ID) != len(b.ID) {
		return len(a.ID) < len(b.ID)
	}
	return a.ID < b.ID
}
