// Package gallery holds the dataset consumed by the gallery page and the JSON
// artifact it is persisted to.
package gallery

import (
	"regexp"
	"sort"
)

type Sector string

const (
	SectorMain     Sector = "main"
	SectorAlt      Sector = "alt"
	SectorSketches Sector = "sketches"
)

// Sectors lists every sector in the order they are scraped and logged.
var Sectors = []Sector{SectorMain, SectorAlt, SectorSketches}

// ParseSector returns the sector named s, if any.
func ParseSector(s string) (Sector, bool) {
	switch Sector(s) {
	case SectorMain, SectorAlt, SectorSketches:
		return Sector(s), true
	}
	return "", false
}

// Dims is a [width, height] pair in pixels.
type Dims [2]int

// DefaultDims is used whenever the real size of an image is unknown.
var DefaultDims = Dims{1080, 720}

func (d Dims) Width() int  { return d[0] }
func (d Dims) Height() int { return d[1] }

// Valid reports whether both sides are at least one pixel.
func (d Dims) Valid() bool {
	return d[0] >= 1 && d[1] >= 1
}

// pathRegexp matches the "{snowflake}/{snowflake}/{filename}" image path.
var pathRegexp = regexp.MustCompile(`^[0-9]+/[0-9]+/[^/?#]+$`)

// ValidPath reports whether p has the image path shape the front end expects.
func ValidPath(p string) bool {
	return pathRegexp.MatchString(p)
}

type ArtItem struct {
	URL   string `json:"url"`
	Dims  Dims   `json:"dims"`
	Month int    `json:"month,omitempty"`
	Day   int    `json:"day,omitempty"`
}

// Dated reports whether the item carries month/day fields.
func (a ArtItem) Dated() bool {
	return a.Month != 0 || a.Day != 0
}

type ArtYear struct {
	Main     []ArtItem `json:"main"`
	Alt      []ArtItem `json:"alt"`
	Sketches []ArtItem `json:"sketches"`
}

// NewArtYear returns a year whose sequences are empty but never nil, so they
// serialize as [] rather than null.
func NewArtYear() ArtYear {
	return ArtYear{
		Main:     []ArtItem{},
		Alt:      []ArtItem{},
		Sketches: []ArtItem{},
	}
}

// Items returns the sequence held for sector s.
func (y ArtYear) Items(s Sector) []ArtItem {
	switch s {
	case SectorMain:
		return y.Main
	case SectorAlt:
		return y.Alt
	case SectorSketches:
		return y.Sketches
	}
	return nil
}

// Append adds items to the sequence for sector s.
func (y *ArtYear) Append(s Sector, items ...ArtItem) {
	switch s {
	case SectorMain:
		y.Main = append(y.Main, items...)
	case SectorAlt:
		y.Alt = append(y.Alt, items...)
	case SectorSketches:
		y.Sketches = append(y.Sketches, items...)
	}
}

// Dataset maps a year to its art. It is the root of the JSON artifact.
type Dataset map[int]ArtYear

// Years returns the dataset's years, newest first.
func (d Dataset) Years() []int {
	years := make([]int, 0, len(d))
	for y := range d {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// Totals counts items per sector. It is derived for logging and never persisted.
type Totals struct {
	Main     int
	Alt      int
	Sketches int
}

func (t Totals) Count(s Sector) int {
	switch s {
	case SectorMain:
		return t.Main
	case SectorAlt:
		return t.Alt
	case SectorSketches:
		return t.Sketches
	}
	return 0
}

func (t Totals) All() int {
	return t.Main + t.Alt + t.Sketches
}

// Totals sums sequence lengths across every year.
func (d Dataset) Totals() Totals {
	var t Totals
	for _, y := range d {
		t.Main += len(y.Main)
		t.Alt += len(y.Alt)
		t.Sketches += len(y.Sketches)
	}
	return t
}
