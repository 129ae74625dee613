package utils

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

var yearRegexp = regexp.MustCompile(`[0-9]{3,}`)

// LeadingYear returns the first numeral of at least three digits in name.
func LeadingYear(name string) (int, bool) {
	match := yearRegexp.FindString(name)
	if match == "" {
		return 0, false
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return year, true
}

// AttachmentPath extracts "{channel}/{attachment}/{filename}" from a Discord
// CDN or media proxy URL. Query strings are dropped.
func AttachmentPath(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return "", false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 3 {
		return "", false
	}
	parts = parts[len(parts)-3:]

	for _, id := range parts[:2] {
		if !isSnowflake(id) {
			return "", false
		}
	}
	if parts[2] == "" {
		return "", false
	}

	return strings.Join(parts, "/"), true
}

func isSnowflake(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// IsAnimated reports whether the attachment is a GIF. Those are served from the
// original URL because the media proxy does not keep animation.
func IsAnimated(a *discordgo.MessageAttachment) bool {
	if strings.EqualFold(a.ContentType, "image/gif") {
		return true
	}
	name := a.Filename
	if name == "" {
		if u, err := url.Parse(a.URL); err == nil {
			name = u.Path
		}
	}
	return strings.EqualFold(path.Ext(name), ".gif")
}

// IsImage reports whether the attachment looks like an image. Attachments
// without a content type are given the benefit of the doubt.
func IsImage(a *discordgo.MessageAttachment) bool {
	return a.ContentType == "" || strings.HasPrefix(a.ContentType, "image/")
}

func Capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
