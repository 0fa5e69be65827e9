package affiliates

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
)

// Program is an affiliate program on a network.
type Program struct {
	ID             uuid.UUID `json:"id"`
	Network        string    `json:"network"`
	ProgramName    string    `json:"programName"`
	APIProgramID   string    `json:"apiProgramId"`
	CommissionType string    `json:"commissionType"`
	CommissionRate *float64  `json:"commissionRate"`
	Recurring      bool      `json:"recurring"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ProgramInput carries a new program.
type ProgramInput struct {
	Network        string   `json:"network" validate:"required,max=80"`
	ProgramName    string   `json:"programName" validate:"required,max=255"`
	APIProgramID   string   `json:"apiProgramId" validate:"required,max=255"`
	CommissionType string   `json:"commissionType" validate:"max=80"`
	CommissionRate *float64 `json:"commissionRate" validate:"omitnil,gte=0"`
	Recurring      bool     `json:"recurring"`
}

// Link attaches a program's tracking URL to a tool.
type Link struct {
	ID                 uuid.UUID `json:"id"`
	ToolID             uuid.UUID `json:"toolId"`
	AffiliateProgramID uuid.UUID `json:"affiliateProgramId"`
	TrackingURL        string    `json:"trackingUrl"`
	IsPrimary          bool      `json:"isPrimary"`
	CreatedAt          time.Time `json:"createdAt"`
}

// LinkInput carries a new link.
type LinkInput struct {
	AffiliateProgramID uuid.UUID `json:"affiliateProgramId" validate:"required"`
	TrackingURL        string    `json:"trackingUrl" validate:"required,url,max=2048"`
	IsPrimary          bool      `json:"isPrimary"`
}

// Target is where an outbound /go request lands.
type Target struct {
	ToolID      uuid.UUID `json:"toolId"`
	ProgramID   uuid.UUID `json:"programId"`
	TrackingURL string    `json:"trackingUrl"`
}

// Click is one outbound affiliate redirect.
type Click struct {
	ToolID    uuid.UUID
	ProgramID uuid.UUID
	UserID    *uuid.UUID
	IPAddress string
	UserAgent string
}

var (
	// ErrProgramExists is returned on a (network, apiProgramId) collision.
	ErrProgramExists = fmt.Errorf("affiliate program already exists for network: %w", httpx.ErrDuplicate)
	// ErrProgramNotFound is returned when a link references a missing program.
	ErrProgramNotFound = httpx.NotFound("affiliate program")
	// ErrToolNotFound is returned when the tool does not exist.
	ErrToolNotFound = httpx.NotFound("tool")
	// ErrNoTarget is returned when a tool has no outbound link or is not published.
	ErrNoTarget = httpx.NotFound("affiliate link")
)
