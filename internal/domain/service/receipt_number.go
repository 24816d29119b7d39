package service

import (
	"fmt"
	"sync/atomic"
	"time"
)

// ReceiptNumberer issues receipt numbers of the form
// RCP<yyyymmddhhmmss><seq>, where seq is a process-wide counter. Numbers are
// unique within a process and sort by issue time.
type ReceiptNumberer struct {
	prefix string
	seq    atomic.Uint64
}

// NewReceiptNumberer returns a generator. An empty prefix defaults to "RCP".
func NewReceiptNumberer(prefix string) *ReceiptNumberer {
	if prefix == "" {
		prefix = "RCP"
	}
	return &ReceiptNumberer{prefix: prefix}
}

// Next returns the next receipt number stamped with now.
func (r *ReceiptNumberer) Next(now time.Time) string {
	n := r.seq.Add(1) % 1_000_000
	return fmt.Sprintf("%s%s%06d", r.prefix, now.UTC().Format("20060102150405"), n)
}
