package ticket

import (
	"context"
	"time"
)

type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Ticket is a support request filed by a user. Closing is one-way; closed
// tickets stay readable.
type Ticket struct {
	ID        int64      `json:"id" gorm:"primaryKey"`
	UserID    int64      `json:"user_id"`
	Subject   string     `json:"subject"`
	Message   string     `json:"message"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	GetByID(ctx context.Context, id int64) (*Ticket, error)
	// ListByUser returns the user's tickets newest-first.
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Ticket, error)
	// ListAll returns every ticket newest-first, optionally filtered by status.
	ListAll(ctx context.Context, status Status, limit, offset int) ([]Ticket, error)
	Update(ctx context.Context, t *Ticket) error
}
