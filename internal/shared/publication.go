package shared

import (
	"fmt"
	"time"

	"github.com/reviewdesk/reviewdesk/internal/platform/httpx"
)

// Status is the publication state shared by tools, posts and comparisons.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// ListScope selects which publication states a listing returns.
type ListScope string

const (
	ScopePublished ListScope = "published"
	ScopeDraft     ListScope = "draft"
	ScopeAll       ListScope = "all"
)

// ParseListScope reads a ?status= value. Empty means published.
func ParseListScope(raw string) (ListScope, error) {
	switch ListScope(raw) {
	case "", ScopePublished:
		return ScopePublished, nil
	case ScopeDraft:
		return ScopeDraft, nil
	case ScopeAll:
		return ScopeAll, nil
	}
	return "", httpx.Invalid("status", fmt.Sprintf("unknown status %q", raw))
}

// Statuses returns the states matched by the scope.
func (s ListScope) Statuses() []string {
	switch s {
	case ScopeDraft:
		return []string{string(StatusDraft)}
	case ScopeAll:
		return []string{string(StatusDraft), string(StatusPublished)}
	default:
		return []string{string(StatusPublished)}
	}
}

// Publication flips a resource between draft and published. PublishedAt is
// non-nil exactly when the state is published.
type Publication struct {
	Status      Status
	PublishedAt *time.Time
}

// Publish returns the published state stamped at now.
func Publish(now time.Time) Publication {
	at := now.UTC()
	return Publication{Status: StatusPublished, PublishedAt: &at}
}

// Unpublish returns the draft state with the timestamp cleared.
func Unpublish() Publication {
	return Publication{Status: StatusDraft}
}
