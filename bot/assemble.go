package bot

import (
	"context"

	"portfolio-be/bot/utils"
	"portfolio-be/gallery"
)

// Assembler runs the paginate-and-resolve pipeline for every year and sector
// of a channel map, one channel at a time.
type Assembler struct {
	paginator *Paginator
	resolver  *Resolver
	log       *RunLog
}

func NewAssembler(paginator *Paginator, resolver *Resolver, log *RunLog) *Assembler {
	return &Assembler{
		paginator: paginator,
		resolver:  resolver,
		log:       log,
	}
}

// Assemble builds the dataset. Every year of the channel map is present, with
// empty sequences for sectors that failed or have no channel. Categories that
// share a year are merged in channel map order.
func (a *Assembler) Assemble(ctx context.Context, channels ChannelMap) gallery.Dataset {
	out := gallery.Dataset{}
	for _, entry := range channels {
		art, ok := out[entry.Year]
		if !ok {
			art = gallery.NewArtYear()
		}
		for _, sector := range gallery.Sectors {
			art.Append(sector, a.sector(ctx, entry, sector)...)
		}
		out[entry.Year] = art
	}
	return out
}

func (a *Assembler) sector(ctx context.Context, entry YearChannels, sector gallery.Sector) []gallery.ArtItem {
	name := utils.Capitalize(string(sector))

	id := entry.ID(sector)
	if id == "" {
		a.log.Error("Channel not found: %s %s", entry.Label, name)
		return nil
	}

	messages, err := a.paginator.All(ctx, id)
	if err != nil {
		a.log.Error("Failed to populate %s %s (%s): %v", entry.Label, name, id, err)
		return nil
	}

	items := a.resolver.ResolveAll(ctx, entry.Year, messages)
	a.log.Info("%d %s: %d messages, %d items", entry.Year, name, len(messages), len(items))
	return items
}

// LogTotals writes per-sector and overall counts to the run log.
func LogTotals(log *RunLog, d gallery.Dataset) gallery.Totals {
	totals := d.Totals()
	for _, sector := range gallery.Sectors {
		log.Info("Total %s: %d", utils.Capitalize(string(sector)), totals.Count(sector))
	}
	log.Info("Total: %d across %d years", totals.All(), len(d))
	log.NewLine()
	return totals
}
