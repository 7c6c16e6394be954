package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

type allocatorRepository interface {
	IssuedIdentifiers(ctx context.Context, prefix string) ([]string, error)
}

// IDAllocator computes the next membership identifier in a strictly
// increasing sequence formatted as <prefix><zero-padded number>.
//
// The scan-based algorithm is deliberate: approvals are manual and
// low-frequency, so an indexed scan beats maintaining a counter table.
// Concurrent double-allocation is prevented by the caller, which holds the
// allocation mutex and relies on the unique constraint on membership_id as a
// backstop (retry with a fresh scan on collision).
type IDAllocator struct {
	repo     allocatorRepository
	prefix   string
	padWidth int
}

// NewIDAllocator constructs an allocator for the configured prefix and
// padding width.
func NewIDAllocator(repo allocatorRepository, prefix string, padWidth int) *IDAllocator {
	if padWidth <= 0 {
		padWidth = 4
	}
	return &IDAllocator{repo: repo, prefix: prefix, padWidth: padWidth}
}

// Next scans issued identifiers and returns the formatted successor of the
// highest numeric suffix, or the first identifier when none exist.
func (a *IDAllocator) Next(ctx context.Context) (string, error) {
	issued, err := a.repo.IssuedIdentifiers(ctx, a.prefix)
	if err != nil {
		return "", fmt.Errorf("allocate membership id: %w", err)
	}
	return a.Format(NextSequence(issued, a.prefix)), nil
}

// Format renders a sequence number as a membership identifier.
func (a *IDAllocator) Format(seq int) string {
	return fmt.Sprintf("%s%0*d", a.prefix, a.padWidth, seq)
}

// NextSequence returns 1 + the highest numeric suffix among identifiers that
// match the prefix. Identifiers that do not parse are skipped rather than
// failing the scan.
func NextSequence(issued []string, prefix string) int {
	max := 0
	for _, id := range issued {
		if !strings.HasPrefix(id, prefix) {
			continue
		}
		suffix := strings.TrimPrefix(id, prefix)
		n, err := strconv.Atoi(suffix)
		if err != nil || n <= 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1
}
