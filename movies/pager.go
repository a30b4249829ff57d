package movies

import (
	"context"
	"sync"
)

// Pager accumulates a category listing page by page: LoadMore appends the
// next page, Refresh starts over from page one. It is the list-backing state
// for a scrolling movie grid.
type Pager struct {
	client   *Client
	category Category

	mu         sync.Mutex
	movies     []Movie
	page       int
	totalPages int
	loading    bool
	err        error
}

// NewPager creates a pager over the given category.
func NewPager(client *Client, category Category) *Pager {
	return &Pager{
		client:     client,
		category:   category,
		page:       0,
		totalPages: 1,
	}
}

// Refresh replaces the accumulated listing with a fresh first page.
func (p *Pager) Refresh(ctx context.Context) error {
	return p.load(ctx, 1, false)
}

// LoadMore appends the next page. It is a no-op when all pages are loaded
// or a load is already in flight.
func (p *Pager) LoadMore(ctx context.Context) error {
	p.mu.Lock()
	if p.loading || p.page >= p.totalPages {
		p.mu.Unlock()
		return nil
	}
	next := p.page + 1
	p.mu.Unlock()

	return p.load(ctx, next, true)
}

func (p *Pager) load(ctx context.Context, page int, appendResults bool) error {
	p.mu.Lock()
	if p.loading {
		p.mu.Unlock()
		return nil
	}
	p.loading = true
	p.mu.Unlock()

	result, err := p.client.Movies(ctx, p.category, page)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loading = false

	if err != nil {
		p.err = err
		return err
	}

	if appendResults {
		p.movies = append(p.movies, result.Results...)
	} else {
		p.movies = result.Results
	}
	p.page = result.Page
	p.totalPages = result.TotalPages
	p.err = nil
	return nil
}

// Movies returns a copy of the accumulated listing.
func (p *Pager) Movies() []Movie {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Movie, len(p.movies))
	copy(out, p.movies)
	return out
}

// HasMore reports whether pages remain beyond the last one loaded.
func (p *Pager) HasMore() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.page < p.totalPages
}

// Loading reports whether a page load is in flight.
func (p *Pager) Loading() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// Err returns the last load error, cleared by the next successful load.
func (p *Pager) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Category returns the category this pager lists.
func (p *Pager) Category() Category {
	return p.category
}
