package catalog

import "time"

// DefaultTableRows is the row count assumed for unanalyzed tables.
const DefaultTableRows = 1000000

// TableStats holds table-level statistics.
type TableStats struct {
	RowCount     int64
	LastAnalyzed time.Time
}

// DefaultRowEst fills in index row estimates for an index with nCols
// key columns when no statistics exist. The first entry is the table
// size. Each further equality column is assumed to narrow the result
// a little less than the previous one, bottoming out at 5 rows. A
// fully constrained unique index yields one row.
func DefaultRowEst(nCols int, unique bool, tableRows int64) []int64 {
	if tableRows <= 0 {
		tableRows = DefaultTableRows
	}
	est := make([]int64, nCols+1)
	est[0] = tableRows
	for i := 1; i <= nCols; i++ {
		if i >= 5 {
			est[i] = 5
		} else {
			est[i] = int64(11 - i)
		}
	}
	if unique && nCols > 0 {
		est[nCols] = 1
	}
	return est
}
