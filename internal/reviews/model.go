package reviews

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
)

// Status is the moderation state of a review.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus reads a ?status= value. Empty means pending.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case "", StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	}
	return "", httpx.Invalid("status", fmt.Sprintf("unknown status %q", raw))
}

// Review is a user-submitted rating of a tool.
type Review struct {
	ID        uuid.UUID `json:"id"`
	ToolID    uuid.UUID `json:"toolId"`
	UserID    uuid.UUID `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Rating    float64   `json:"rating"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// SubmitInput carries a new review.
type SubmitInput struct {
	Title   string   `json:"title" validate:"required,max=255"`
	Content string   `json:"content" validate:"required,max=20000"`
	Rating  *float64 `json:"rating" validate:"required,gte=1,lte=5"`
}

var (
	// ErrNotFound is returned when the review does not exist.
	ErrNotFound = httpx.NotFound("review")
	// ErrToolNotFound is returned when the reviewed tool does not exist.
	ErrToolNotFound = httpx.NotFound("tool")
)
