package bot

import (
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-be/gallery"
)

func TestSplitChannelName(t *testing.T) {
	assert.Equal(t, []string{"2023", "main"}, splitChannelName("2023-main"))
	assert.Equal(t, []string{"2023", "", "", "main"}, splitChannelName("2023 - main"))
	assert.Equal(t, []string{"2023", "sketches"}, splitChannelName("2023–sketches"))
	assert.Equal(t, []string{"art", "alt", "old"}, splitChannelName("art,alt,old"))
	assert.Equal(t, []string{"general"}, splitChannelName("general"))
}

func TestClassifyChannel(t *testing.T) {
	cases := []struct {
		name   string
		sector gallery.Sector
		ok     bool
	}{
		{"2023-main", gallery.SectorMain, true},
		{"2023-alt", gallery.SectorAlt, true},
		{"2023-sketches-extra", gallery.SectorSketches, true},
		{"2022–sketches", gallery.SectorSketches, true},
		{"2021,alt", gallery.SectorAlt, true},
		{"2021 alt", gallery.SectorAlt, true},
		// The em dash and minus sign are not delimiters; these channels drop out.
		{"2023—sketches", "", false},
		{"2023−sketches", "", false},
		{"2023 - main", "", false},
		{"2023-Main", "", false},
		{"2023-misc", "", false},
		{"main", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sector, ok := ClassifyChannel(tc.name)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.sector, sector)
		})
	}
}

func guildFixture() []*discordgo.Channel {
	return []*discordgo.Channel{
		categoryChannel("900", "General", 0),
		textChannel("901", "chat", "900", 0),

		categoryChannel("2021", "2021 - Art", 3),
		textChannel("2101", "2021-main", "2021", 0),

		categoryChannel("2023", "2023 - Art", 1),
		textChannel("2301", "2023-main", "2023", 0),
		textChannel("2302", "2023-alt", "2023", 1),
		textChannel("2303", "2023-sketches-extra", "2023", 2),
		textChannel("2304", "2023-misc", "2023", 3),

		categoryChannel("2022", "2022 - Art", 2),
		textChannel("2201", "2022—sketches", "2022", 0),
	}
}

func TestDiscover_SectorsFromChannelNames(t *testing.T) {
	log := NewRunLog(nil, "", testEmoji, nil)
	cm := Discover(guildFixture(), log)

	entry, ok := cm.Get("2023 - Art")
	require.True(t, ok)
	assert.Equal(t, YearChannels{Label: "2023 - Art", Year: 2023, Main: "2301", Alt: "2302", Sketches: "2303"}, entry)
}

func TestDiscover_UnclassifiedChannelLoggedOnce(t *testing.T) {
	log := NewRunLog(nil, "", testEmoji, nil)
	cm := Discover(guildFixture(), log)

	entry, _ := cm.Get("2023 - Art")
	assert.NotContains(t, []string{entry.Main, entry.Alt, entry.Sketches}, "2304")

	matches := 0
	for _, e := range log.snapshot() {
		if e.Kind == EntryError && strings.Contains(e.Text, "2304") && strings.Contains(e.Text, "2023-misc") {
			matches++
		}
	}
	assert.Equal(t, 1, matches)
}

func TestDiscover_EmptyCategoryDropped(t *testing.T) {
	log := NewRunLog(nil, "", testEmoji, nil)
	cm := Discover(guildFixture(), log)

	_, ok := cm.Get("2022 - Art")
	assert.False(t, ok, "em dash sketches channel must not classify")
	_, ok = cm.Get("General")
	assert.False(t, ok)

	var invalid []string
	for _, e := range log.snapshot() {
		if e.Kind == EntryError && strings.HasPrefix(e.Text, "Invalid category") {
			invalid = append(invalid, e.Text)
		}
	}
	assert.Equal(t, []string{"Invalid category: 2022 - Art"}, invalid)
}

func TestDiscover_NewestYearFirst(t *testing.T) {
	log := NewRunLog(nil, "", testEmoji, nil)
	cm := Discover(guildFixture(), log)

	var years []int
	for _, y := range cm {
		years = append(years, y.Year)
	}
	assert.Equal(t, []int{2023, 2021}, years)
}

func TestDiscover_Idempotent(t *testing.T) {
	channels := guildFixture()
	first := Discover(channels, NewRunLog(nil, "", testEmoji, nil))
	second := Discover(channels, NewRunLog(nil, "", testEmoji, nil))
	assert.Equal(t, first, second)
}

func TestDiscover_DuplicateSectorKeepsLast(t *testing.T) {
	log := NewRunLog(nil, "", testEmoji, nil)
	cm := Discover([]*discordgo.Channel{
		categoryChannel("20", "2020 Art", 0),
		textChannel("202", "2020-main-new", "20", 1),
		textChannel("201", "2020-main", "20", 0),
	}, log)

	entry, ok := cm.Get("2020 Art")
	require.True(t, ok)
	assert.Equal(t, "202", entry.Main)
	assert.Equal(t, 1, log.Count(EntryWarn))
}
