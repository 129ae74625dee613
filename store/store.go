// Package store mirrors the gallery dataset into a PocketBase collection so
// the server can answer reads without touching the artifact on disk.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"portfolio-be/gallery"
)

// Row is one art item flattened into its collection fields.
type Row struct {
	Year     int
	Sector   gallery.Sector
	Position int
	URL      string
	Width    int
	Height   int
	Month    int
	Day      int
}

// Rows flattens a dataset. Position is the item's index inside its sector.
func Rows(d gallery.Dataset) []Row {
	var rows []Row
	for _, year := range d.Years() {
		art := d[year]
		for _, sector := range gallery.Sectors {
			for i, item := range art.Items(sector) {
				rows = append(rows, Row{
					Year:     year,
					Sector:   sector,
					Position: i,
					URL:      item.URL,
					Width:    item.Dims.Width(),
					Height:   item.Dims.Height(),
					Month:    item.Month,
					Day:      item.Day,
				})
			}
		}
	}
	return rows
}

// FromRows rebuilds a dataset, ordering items by position. Every year in
// years is present even without rows. Rows with an unknown sector are
// rejected.
func FromRows(rows []Row, years ...int) (gallery.Dataset, error) {
	sorted := append([]Row(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	out := gallery.Dataset{}
	for _, y := range years {
		out[y] = gallery.NewArtYear()
	}
	for _, r := range sorted {
		if _, ok := gallery.ParseSector(string(r.Sector)); !ok {
			return nil, fmt.Errorf("row %d/%s/%d: unknown sector", r.Year, r.Sector, r.Position)
		}
		art, ok := out[r.Year]
		if !ok {
			art = gallery.NewArtYear()
		}
		art.Append(r.Sector, gallery.ArtItem{
			URL:   r.URL,
			Dims:  gallery.Dims{r.Width, r.Height},
			Month: r.Month,
			Day:   r.Day,
		})
		out[r.Year] = art
	}
	return out, nil
}

// Mirror keeps the collection in sync with the latest scrape.
type Mirror struct {
	app        core.App
	collection string
}

func New(app core.App, collection string) *Mirror {
	return &Mirror{app: app, collection: collection}
}

func (m *Mirror) Name() string {
	return "pocketbase:" + m.collection
}

// EnsureCollection creates the mirror collection when it does not exist yet.
// The collection is publicly readable and writable only by superusers.
func (m *Mirror) EnsureCollection() (*core.Collection, error) {
	existing, err := m.app.FindCollectionByNameOrId(m.collection)
	if err == nil {
		return existing, nil
	}

	collection := core.NewBaseCollection(m.collection)
	collection.ListRule = types.Pointer("")
	collection.ViewRule = types.Pointer("")

	collection.Fields.Add(&core.NumberField{Name: "year", Required: true, OnlyInt: true})
	collection.Fields.Add(&core.SelectField{
		Name:      "sector",
		Required:  true,
		MaxSelect: 1,
		Values:    []string{string(gallery.SectorMain), string(gallery.SectorAlt), string(gallery.SectorSketches)},
	})
	collection.Fields.Add(&core.NumberField{Name: "position", OnlyInt: true})
	collection.Fields.Add(&core.TextField{Name: "url", Required: true})
	collection.Fields.Add(&core.NumberField{Name: "width", OnlyInt: true})
	collection.Fields.Add(&core.NumberField{Name: "height", OnlyInt: true})
	collection.Fields.Add(&core.NumberField{Name: "month", OnlyInt: true})
	collection.Fields.Add(&core.NumberField{Name: "day", OnlyInt: true})
	collection.AddIndex("idx_"+m.collection+"_order", false, "year, sector, position", "")

	if err := m.app.Save(collection); err != nil {
		return nil, fmt.Errorf("create collection %s: %w", m.collection, err)
	}
	return collection, nil
}

// Publish replaces the mirrored contents with d in a single transaction.
func (m *Mirror) Publish(ctx context.Context, d gallery.Dataset) error {
	collection, err := m.EnsureCollection()
	if err != nil {
		return err
	}

	return m.app.RunInTransaction(func(txApp core.App) error {
		old, err := txApp.FindAllRecords(collection)
		if err != nil {
			return fmt.Errorf("list mirrored items: %w", err)
		}
		for _, record := range old {
			if err := txApp.DeleteWithContext(ctx, record); err != nil {
				return fmt.Errorf("delete mirrored item %s: %w", record.Id, err)
			}
		}

		for _, row := range Rows(d) {
			record := core.NewRecord(collection)
			record.Set("year", row.Year)
			record.Set("sector", string(row.Sector))
			record.Set("position", row.Position)
			record.Set("url", row.URL)
			record.Set("width", row.Width)
			record.Set("height", row.Height)
			record.Set("month", row.Month)
			record.Set("day", row.Day)
			if err := txApp.SaveWithContext(ctx, record); err != nil {
				return fmt.Errorf("save mirrored item %s: %w", row.URL, err)
			}
		}
		return nil
	})
}

var ErrNoCollection = errors.New("gallery collection does not exist")

// Load reads the mirrored dataset back. Years without mirrored items are
// filled from years.
func (m *Mirror) Load(years ...int) (gallery.Dataset, error) {
	collection, err := m.app.FindCollectionByNameOrId(m.collection)
	if err != nil {
		return nil, ErrNoCollection
	}

	var records []*core.Record
	err = m.app.RecordQuery(collection).
		OrderBy("year DESC", "sector ASC", "position ASC").
		All(&records)
	if err != nil {
		return nil, fmt.Errorf("query mirrored items: %w", err)
	}

	rows := make([]Row, 0, len(records))
	for _, r := range records {
		rows = append(rows, Row{
			Year:     r.GetInt("year"),
			Sector:   gallery.Sector(r.GetString("sector")),
			Position: r.GetInt("position"),
			URL:      r.GetString("url"),
			Width:    r.GetInt("width"),
			Height:   r.GetInt("height"),
			Month:    r.GetInt("month"),
			Day:      r.GetInt("day"),
		})
	}
	return FromRows(rows, years...)
}
