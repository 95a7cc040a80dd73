// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/dalemusser/resolvehub/internal/app/store/audit"
	"github.com/dalemusser/resolvehub/internal/app/system/paging"
)

// listItem is one audit event as the admin UI sees it. Names are set
// whenever the matching id is, even when the stored username is empty.
type listItem struct {
	ID            string            `json:"_id"`
	Timestamp     time.Time         `json:"timestamp"`
	Category      string            `json:"category"`
	EventType     string            `json:"event_type"`
	UserID        string            `json:"user_id,omitempty"`
	UserName      *string           `json:"user_name,omitempty"`
	ActorID       string            `json:"actor_id,omitempty"`
	ActorName     *string           `json:"actor_name,omitempty"`
	IP            string            `json:"ip"`
	UserAgent     string            `json:"user_agent,omitempty"`
	Success       bool              `json:"success"`
	FailureReason string            `json:"failure_reason,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Items []listItem  `json:"items"`
	Meta  paging.Meta `json:"meta"`
}

// validCategory reports whether c is a category events are recorded under.
func validCategory(c string) bool {
	return c == audit.CategoryAuth || c == audit.CategoryAdmin
}
