package gallery

import (
	"errors"
	"fmt"

	"github.com/gookit/validate"
)

// Schema describes what a consumer expects of a dataset. The year range is
// configuration; nothing in the rules depends on specific years.
type Schema struct {
	FirstYear     int
	LastYear      int
	DatedFromYear int
}

type itemRules struct {
	URL    string `validate:"required"`
	Width  int    `validate:"required|min:1"`
	Height int    `validate:"required|min:1"`
	Month  int    `validate:"min:1|max:12"`
	Day    int    `validate:"min:1|max:31"`
}

// Validate checks every expected year is present and every item is well formed.
// All problems are reported together.
func (s Schema) Validate(d Dataset) error {
	var errs []error

	for year := s.FirstYear; year <= s.LastYear; year++ {
		if _, ok := d[year]; !ok {
			errs = append(errs, fmt.Errorf("year %d: missing", year))
		}
	}

	for _, year := range d.Years() {
		art := d[year]
		for _, sector := range Sectors {
			for i, item := range art.Items(sector) {
				if err := s.ValidateItem(year, item); err != nil {
					errs = append(errs, fmt.Errorf("year %d %s[%d]: %w", year, sector, i, err))
				}
			}
		}
	}

	return errors.Join(errs...)
}

// ValidateItem checks a single item as it would appear under year.
func (s Schema) ValidateItem(year int, item ArtItem) error {
	if !ValidPath(item.URL) {
		return fmt.Errorf("url %q does not match {snowflake}/{snowflake}/{filename}", item.URL)
	}

	v := validate.Struct(&itemRules{
		URL:    item.URL,
		Width:  item.Dims.Width(),
		Height: item.Dims.Height(),
		Month:  item.Month,
		Day:    item.Day,
	})
	if !v.Validate() {
		return errors.New(v.Errors.One())
	}

	if s.DatedFromYear > 0 && year < s.DatedFromYear && item.Dated() {
		return fmt.Errorf("dated item before %d", s.DatedFromYear)
	}
	return nil
}
