package bot

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"portfolio-be/bot/utils"
	"portfolio-be/gallery"
)

// Resolver turns message attachments into gallery items.
type Resolver struct {
	prober        Prober
	log           *RunLog
	datedFromYear int
	loc           *time.Location
	concurrency   int
}

// NewResolver returns a resolver. Items from datedFromYear onwards carry the
// message's month and day in loc.
func NewResolver(prober Prober, log *RunLog, datedFromYear int, loc *time.Location, concurrency int) *Resolver {
	if loc == nil {
		loc = time.Local
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Resolver{
		prober:        prober,
		log:           log,
		datedFromYear: datedFromYear,
		loc:           loc,
		concurrency:   concurrency,
	}
}

// ResolveAll resolves the messages one after another, keeping message order.
func (r *Resolver) ResolveAll(ctx context.Context, year int, messages []*discordgo.Message) []gallery.ArtItem {
	items := []gallery.ArtItem{}
	for _, msg := range messages {
		items = append(items, r.Resolve(ctx, year, msg)...)
	}
	return items
}

// Resolve returns the items of one message in attachment order. Attachments
// are probed concurrently but Resolve only returns once all of them are done.
func (r *Resolver) Resolve(ctx context.Context, year int, msg *discordgo.Message) []gallery.ArtItem {
	if msg == nil {
		return nil
	}
	if len(msg.Attachments) == 0 {
		r.log.Warn("Message has no attachments: %s", msg.ID)
		return nil
	}

	results := make([]*gallery.ArtItem, len(msg.Attachments))

	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, attach := range msg.Attachments {
		g.Go(func() error {
			results[i] = r.resolveAttachment(ctx, year, msg, attach)
			return nil
		})
	}
	_ = g.Wait()

	items := make([]gallery.ArtItem, 0, len(results))
	for _, item := range results {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items
}

func (r *Resolver) resolveAttachment(ctx context.Context, year int, msg *discordgo.Message, attach *discordgo.MessageAttachment) *gallery.ArtItem {
	if attach == nil {
		return nil
	}
	if !utils.IsImage(attach) {
		r.log.Warn("Skipping non-image attachment: %s (%s)", attach.ID, attach.ContentType)
		return nil
	}

	animated := utils.IsAnimated(attach)

	link := attach.ProxyURL
	if animated || link == "" {
		link = attach.URL
	}
	if link == "" {
		r.log.Error("No URL for attachment: %s on message %s", attach.ID, msg.ID)
		return nil
	}

	path, ok := utils.AttachmentPath(link)
	if !ok || !gallery.ValidPath(path) {
		r.log.Error("Failed to extract image path: %s on message %s", link, msg.ID)
		return nil
	}

	dims := gallery.DefaultDims
	if !animated {
		probed, err := r.prober.Probe(ctx, link)
		if err != nil {
			r.log.Warn("Failed to probe %s, using default dims: %v", path, err)
		} else {
			dims = probed
		}
	}

	item := &gallery.ArtItem{URL: path, Dims: dims}

	if year >= r.datedFromYear {
		if msg.Timestamp.IsZero() {
			r.log.Warn("Message %s has no timestamp, leaving %s undated", msg.ID, path)
		} else {
			created := msg.Timestamp.In(r.loc)
			item.Month = int(created.Month())
			item.Day = created.Day()
		}
	}

	return item
}
