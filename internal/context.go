package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextActorKey ctxKey = "actor"

// Actor is the identity supplied by the external identity provider. The core
// treats it as an opaque id/name pair plus the permissions it was granted.
type Actor struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// DisplayName prefers the human name, falling back to email and then id.
func (a Actor) DisplayName() string {
	switch {
	case a.Name != "":
		return a.Name
	case a.Email != "":
		return a.Email
	default:
		return a.ID
	}
}

func (a Actor) HasAnyPermission(perms ...string) bool {
	for _, want := range perms {
		for _, have := range a.Permissions {
			if have == want || have == PermissionAdmin {
				return true
			}
		}
	}
	return false
}

const (
	PermissionAdmin              = "admin"
	PermissionApproveExpenses    = "approve_expenses"
	PermissionApproveInvoices    = "approve_invoices"
	PermissionProcessPaymentRuns = "process_payment_runs"
	PermissionManageBudgets      = "manage_budgets"
)

func ActorFromContext(ctx context.Context) (Actor, bool) {
	if ctx == nil {
		return Actor{}, false
	}
	actor, ok := ctx.Value(ContextActorKey).(Actor)
	return actor, ok
}

func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, ContextActorKey, actor)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
