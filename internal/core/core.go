package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// UserID is the opaque identifier issued by the identity provider.
	// The application never constructs one; it only observes them.
	UserID string

	// Identity is the currently signed-in user as reported by the
	// identity provider. The zero value means "no active identity".
	Identity struct {
		UID         UserID
		DisplayName string
	}

	// Expense is one spending event. Records are immutable after
	// creation; ID and Date are assigned by the store.
	Expense struct {
		ID       string
		Amount   decimal.Decimal
		Category string
		Label    string
		Date     time.Time
		UserID   UserID
	}

	// BudgetSnapshot is the observed budget document for a user.
	// Set is false when no document exists, which is not an error.
	BudgetSnapshot struct {
		Set    bool
		Amount decimal.Decimal
	}
)

// DefaultDisplayName is shown when the provider reports no display name.
const DefaultDisplayName = "Utilisateur"

// None reports whether the identity is absent.
func (id Identity) None() bool {
	return id.UID == ""
}

// Name returns the display name, falling back to DefaultDisplayName.
func (id Identity) Name() string {
	if strings.TrimSpace(id.DisplayName) == "" {
		return DefaultDisplayName
	}
	return id.DisplayName
}

var (
	// ErrMissingIdentity is returned by mutations attempted with no
	// active session. Detected locally, never retried.
	ErrMissingIdentity = errors.New("no active user identity")
)

// ValidationError reports malformed or missing user input. It is
// detected before any external call and produces no store write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StoreError wraps a failed external read, write or subscribe. Retry
// policy, if any, belongs to the store, not to this core.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ParseAmount parses user-entered text as a decimal amount.
// Empty input and non-numeric text fail with a ValidationError.
// No range check is applied: zero and negative values pass through
// as written, matching the behavior users already rely on.
func ParseAmount(field, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, &ValidationError{Field: field, Reason: "required"}
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: field, Reason: "not a number"}
	}
	return v, nil
}

// NormalizeLabel applies the label rule: labels are meaningful only for
// the catch-all category; every other category persists an empty label
// regardless of what the caller supplied.
func NormalizeLabel(category, label string) string {
	if category == CategoryOther {
		return label
	}
	return ""
}
