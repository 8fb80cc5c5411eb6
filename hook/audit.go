// Package hook wraps a database/sql driver so every statement it executes
// is validated before it reaches the database. It is the pre/post-execution
// boundary SPEC_FULL describes: a query is parsed and checked on the way
// in, and the caller can read back the ValidationResult that decided its
// fate on the way out.
package hook

import (
	"context"
	"sync"

	"github.com/nsxbet/sql-guard/guard"
)

type auditKey struct{}

// AuditSlot is the per-call correlation slot a wrapped connection writes
// its ValidationResult into. Go has no thread-local storage to hang this
// off of the way a per-thread "last validation result" would in a
// thread-per-request runtime, so it rides along on the context.Context
// value the caller already threads through the call — one slot per logical
// request, populated at most once per statement it observes.
type AuditSlot struct {
	mu     sync.Mutex
	result guard.ValidationResult
	set    bool
}

func (s *AuditSlot) record(result guard.ValidationResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = result
	s.set = true
}

// Result returns the most recently recorded ValidationResult and whether
// one has been recorded yet.
func (s *AuditSlot) Result() (guard.ValidationResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.set
}

// WithAudit returns a child context carrying a fresh AuditSlot, and the
// slot itself so the caller can read it back after the query runs.
func WithAudit(ctx context.Context) (context.Context, *AuditSlot) {
	slot := &AuditSlot{}
	return context.WithValue(ctx, auditKey{}, slot), slot
}

func slotFromContext(ctx context.Context) *AuditSlot {
	slot, _ := ctx.Value(auditKey{}).(*AuditSlot)
	return slot
}
