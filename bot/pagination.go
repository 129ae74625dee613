package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

// maxPageSize is the largest page the messages endpoint returns.
const maxPageSize = 100

// Paginator walks a channel's history backwards using the oldest message of
// each page as the cursor for the next.
type Paginator struct {
	fetcher  MessageFetcher
	pageSize int
	limiter  *rate.Limiter
}

// NewPaginator returns a paginator. A nil limiter means no rate limit.
func NewPaginator(fetcher MessageFetcher, pageSize int, limiter *rate.Limiter) *Paginator {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	return &Paginator{
		fetcher:  fetcher,
		pageSize: pageSize,
		limiter:  limiter,
	}
}

// All returns every message in the channel in retrieval order. An empty
// channelID yields no messages and no error. Fetch errors are returned as is,
// without retrying.
func (p *Paginator) All(ctx context.Context, channelID string) ([]*discordgo.Message, error) {
	if channelID == "" {
		return nil, nil
	}

	var all []*discordgo.Message
	before := ""
	for {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		page, err := p.fetcher.ChannelMessages(channelID, p.pageSize, before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("fetch messages before %q: %w", before, err)
		}
		if len(page) == 0 {
			return all, nil
		}

		all = append(all, page...)

		last := page[len(page)-1]
		if last == nil || last.ID == "" || last.ID == before {
			return nil, fmt.Errorf("pagination cursor did not advance past %q", before)
		}
		before = last.ID
	}
}
