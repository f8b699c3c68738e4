package planner

import (
	"github.com/dshills/quantaplan/internal/errors"
)

// Bitmask is a set of FROM items, one bit per registered cursor.
type Bitmask uint64

// AllTables has every bit set.
const AllTables = ^Bitmask(0)

// MaskSet assigns bit positions to cursors in registration order, so
// that for the k-th registered cursor bit(k)-1 is the set of all
// cursors registered before it.
type MaskSet struct {
	cursors []int
	limit   int
}

// NewMaskSet creates a registry holding at most limit cursors. The
// limit is clamped to the width of Bitmask.
func NewMaskSet(limit int) *MaskSet {
	if limit <= 0 || limit > 64 {
		limit = 64
	}
	return &MaskSet{limit: limit}
}

// Register assigns the next bit to cursor.
func (ms *MaskSet) Register(cursor int) (Bitmask, error) {
	if len(ms.cursors) >= ms.limit {
		return 0, errors.TooManyTablesError(ms.limit)
	}
	ms.cursors = append(ms.cursors, cursor)
	return Bitmask(1) << uint(len(ms.cursors)-1), nil
}

// Mask returns the bit of cursor, or 0 if it was never registered.
func (ms *MaskSet) Mask(cursor int) Bitmask {
	for i, c := range ms.cursors {
		if c == cursor {
			return Bitmask(1) << uint(i)
		}
	}
	return 0
}

// Len returns the number of registered cursors.
func (ms *MaskSet) Len() int {
	return len(ms.cursors)
}
