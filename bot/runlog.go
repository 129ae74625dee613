package bot

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/lipgloss"
)

// messageLimit is the longest message Discord accepts.
const messageLimit = 2000

type EntryKind int

const (
	EntryInfo EntryKind = iota
	EntryWarn
	EntryError
	EntryNewLine
	EntryTime
)

type Entry struct {
	Kind EntryKind
	Text string
}

// Emoji prefixes each entry kind in the posted log.
type Emoji struct {
	Info  string
	Warn  string
	Error string
	Time  string
}

// RunLog buffers the entries of one scrape run and posts them as a batch to a
// log channel when the run ends. Every entry is echoed to the console as it is
// appended.
type RunLog struct {
	mu      sync.Mutex
	entries []Entry

	sender    Sender
	channelID string
	emoji     Emoji
	now       func() time.Time

	console    io.Writer
	infoStyle  lipgloss.Style
	warnStyle  lipgloss.Style
	errorStyle lipgloss.Style
}

// NewRunLog creates a run log. A nil sender or empty channelID turns Flush into
// a plain reset.
func NewRunLog(sender Sender, channelID string, emoji Emoji, console io.Writer) *RunLog {
	if console == nil {
		console = io.Discard
	}
	r := lipgloss.NewRenderer(console)
	return &RunLog{
		sender:     sender,
		channelID:  channelID,
		emoji:      emoji,
		now:        time.Now,
		console:    console,
		infoStyle:  r.NewStyle().Foreground(lipgloss.Color("12")),
		warnStyle:  r.NewStyle().Foreground(lipgloss.Color("11")),
		errorStyle: r.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

func (l *RunLog) Info(format string, args ...any) {
	l.append(EntryInfo, fmt.Sprintf(format, args...))
}

func (l *RunLog) Warn(format string, args ...any) {
	l.append(EntryWarn, fmt.Sprintf(format, args...))
}

func (l *RunLog) Error(format string, args ...any) {
	l.append(EntryError, fmt.Sprintf(format, args...))
}

func (l *RunLog) NewLine() {
	l.append(EntryNewLine, "")
}

// Time records the current time as a Discord timestamp tag.
func (l *RunLog) Time() {
	l.append(EntryTime, fmt.Sprintf("<t:%d:T>", l.now().Unix()))
}

func (l *RunLog) append(kind EntryKind, text string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, Entry{Kind: kind, Text: text})

	switch kind {
	case EntryInfo:
		fmt.Fprintln(l.console, l.infoStyle.Render("INFO:")+" "+text)
	case EntryWarn:
		fmt.Fprintln(l.console, l.warnStyle.Render("WARN:")+" "+text)
	case EntryError:
		fmt.Fprintln(l.console, l.errorStyle.Render("ERROR:")+" "+text)
	case EntryNewLine:
		fmt.Fprintln(l.console)
	case EntryTime:
		fmt.Fprintln(l.console, text)
	}
}

func (l *RunLog) snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Entry(nil), l.entries...)
}

// Count returns how many buffered entries are of kind.
func (l *RunLog) Count(kind EntryKind) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func (l *RunLog) line(e Entry) string {
	switch e.Kind {
	case EntryNewLine:
		return e.Text
	case EntryTime:
		return l.emoji.Time + " " + e.Text
	case EntryWarn:
		return l.emoji.Warn + " `" + e.Text + "`"
	case EntryError:
		return l.emoji.Error + " `" + e.Text + "`"
	}
	return l.emoji.Info + " `" + e.Text + "`"
}

// Render formats the buffered entries into messages that each fit Discord's
// length limit.
func (l *RunLog) Render() []string {
	entries := l.snapshot()
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, l.line(e))
	}

	return chunkLines(lines, messageLimit)
}

// Flush posts the buffered entries and clears the buffer, even when posting fails.
func (l *RunLog) Flush(ctx context.Context) error {
	messages := l.Render()

	l.mu.Lock()
	l.entries = nil
	l.mu.Unlock()

	if l.sender == nil || l.channelID == "" {
		return nil
	}

	for _, msg := range messages {
		if strings.TrimSpace(msg) == "" {
			continue
		}
		if _, err := l.sender.ChannelMessageSend(l.channelID, msg, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("send run log: %w", err)
		}
	}
	return nil
}

func chunkLines(lines []string, limit int) []string {
	var chunks []string
	var b strings.Builder
	started := false

	emit := func() {
		if started {
			chunks = append(chunks, b.String())
		}
		b.Reset()
		started = false
	}

	for _, line := range lines {
		for len(line) > limit {
			emit()
			cut := limit
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				cut = limit
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}

		need := len(line)
		if started {
			need++
		}
		if b.Len()+need > limit {
			emit()
		}
		if started {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		started = true
	}
	emit()

	return chunks
}
