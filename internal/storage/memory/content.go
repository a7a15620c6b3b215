package memory

import (
	"context"
	"sort"

	"github.com/exiledproject/launcher-cms/internal/news"
	"github.com/exiledproject/launcher-cms/internal/pageaccess"
	"github.com/exiledproject/launcher-cms/internal/ticket"
)

type newsRepo struct {
	s *Store
}

func (r *newsRepo) List(_ context.Context, limit, offset int) ([]news.News, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	items := make([]news.News, 0, len(r.s.newsItems))
	for _, n := range r.s.newsItems {
		items = append(items, n)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID > items[j].ID
	})
	return page(items, limit, offset), nil
}

func (r *newsRepo) GetByID(_ context.Context, id int64) (*news.News, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n, ok := r.s.newsItems[id]
	if !ok {
		return nil, nil
	}
	copied := n
	return &copied, nil
}

func (r *newsRepo) Create(_ context.Context, n *news.News) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if n.ID == 0 {
		n.ID = r.s.id("news")
	}
	r.s.newsItems[n.ID] = *n
	return nil
}

func (r *newsRepo) Update(_ context.Context, n *news.News) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.newsItems[n.ID] = *n
	return nil
}

func (r *newsRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.newsItems, id)
	return nil
}

type ticketRepo struct {
	s *Store
}

func (r *ticketRepo) Create(_ context.Context, t *ticket.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.ID == 0 {
		t.ID = r.s.id("tickets")
	}
	r.s.tickets[t.ID] = *t
	return nil
}

func (r *ticketRepo) GetByID(_ context.Context, id int64) (*ticket.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, nil
	}
	copied := t
	return &copied, nil
}

func (r *ticketRepo) ListByUser(_ context.Context, userID int64, limit, offset int) ([]ticket.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var tickets []ticket.Ticket
	for _, t := range r.s.tickets {
		if t.UserID == userID {
			tickets = append(tickets, t)
		}
	}
	sortTickets(tickets)
	return page(tickets, limit, offset), nil
}

func (r *ticketRepo) ListAll(_ context.Context, status ticket.Status, limit, offset int) ([]ticket.Ticket, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var tickets []ticket.Ticket
	for _, t := range r.s.tickets {
		if status == "" || t.Status == status {
			tickets = append(tickets, t)
		}
	}
	sortTickets(tickets)
	return page(tickets, limit, offset), nil
}

func (r *ticketRepo) Update(_ context.Context, t *ticket.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tickets[t.ID] = *t
	return nil
}

func sortTickets(tickets []ticket.Ticket) {
	sort.Slice(tickets, func(i, j int) bool {
		if !tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return tickets[i].CreatedAt.After(tickets[j].CreatedAt)
		}
		return tickets[i].ID > tickets[j].ID
	})
}

type pageRepo struct {
	s *Store
}

func (r *pageRepo) List(_ context.Context) ([]pageaccess.PageAccess, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rules := make([]pageaccess.PageAccess, 0, len(r.s.pages))
	for _, p := range r.s.pages {
		rules = append(rules, p)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Path < rules[j].Path })
	return rules, nil
}

func (r *pageRepo) GetByID(_ context.Context, id int64) (*pageaccess.PageAccess, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.pages[id]
	if !ok {
		return nil, nil
	}
	copied := p
	return &copied, nil
}

func (r *pageRepo) Create(_ context.Context, p *pageaccess.PageAccess) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.s.id("page_accesses")
	}
	r.s.pages[p.ID] = *p
	return nil
}

func (r *pageRepo) Update(_ context.Context, p *pageaccess.PageAccess) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.pages[p.ID] = *p
	return nil
}

func (r *pageRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.pages, id)
	return nil
}
