package planner

import (
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dshills/quantaplan/internal/log"
	"github.com/dshills/quantaplan/internal/sql/expr"
	"github.com/dshills/quantaplan/internal/sql/types"
)

var (
	lowerCaser = cases.Lower(language.Und)
	foldCaser  = cases.Fold()
)

// likePrefix describes the literal prefix of a LIKE or GLOB pattern.
type likePrefix struct {
	column *expr.ColumnRef
	prefix string
	// complete is set when the pattern is the prefix followed by a
	// single trailing match-many wildcard.
	complete bool
	noCase   bool
}

// wildcards returns the characters that end the literal prefix.
func wildcards(l *expr.Like) (matchAll rune, stops []rune) {
	if l.Glob {
		return '*', []rune{'*', '?', '['}
	}
	stops = []rune{'%', '_'}
	if l.Escape != 0 {
		stops = append(stops, l.Escape)
	}
	return '%', stops
}

// analyzeLike reports whether l can be answered by a range scan on its
// subject column, and the prefix bounding that range.
func (a *analyzer) analyzeLike(l *expr.Like) (likePrefix, bool) {
	if l.Not {
		return likePrefix{}, false
	}
	col, ok := l.Left.(*expr.ColumnRef)
	if !ok {
		return likePrefix{}, false
	}
	pattern, ok := expr.StringLiteral(l.Pattern)
	if !ok || !utf8.ValidString(pattern) {
		return likePrefix{}, false
	}

	noCase := !l.Glob && !a.cfg.CaseSensitiveLike
	coll := types.NormalizeCollation(col.Collation)
	if (coll != types.CollationBinary || noCase) && (coll != types.CollationNoCase || !noCase) {
		return likePrefix{}, false
	}

	matchAll, stops := wildcards(l)
	runes := []rune(pattern)
	n := 0
	for n < len(runes) && !containsRune(stops, runes[n]) {
		n++
	}
	if n == 0 || !incrementable(runes[n-1]) {
		return likePrefix{}, false
	}
	return likePrefix{
		column:   col,
		prefix:   string(runes[:n]),
		complete: n == len(runes)-1 && runes[n] == matchAll,
		noCase:   noCase,
	}, true
}

func containsRune(set []rune, r rune) bool {
	for _, c := range set {
		if c == r {
			return true
		}
	}
	return false
}

func incrementable(r rune) bool {
	return r != utf8.RuneError && utf8.ValidRune(r+1)
}

// upperBound returns the smallest string greater than every string
// starting with prefix. Under NOCASE the last character is lowered
// first. disturbed is set when case folding maps the incremented
// character elsewhere, which makes the bound unreliable.
func upperBound(prefix string, noCase bool) (bound string, disturbed bool) {
	runes := []rune(prefix)
	last := runes[len(runes)-1]
	if noCase {
		if lowered := []rune(lowerCaser.String(string(last))); len(lowered) == 1 {
			last = lowered[0]
		}
	}
	next := last + 1
	if noCase {
		disturbed = foldCaser.String(string(next)) != string(next)
	}
	runes[len(runes)-1] = next
	return string(runes), disturbed
}

// rewriteLike adds "col >= prefix" and "col < bound" for a LIKE or
// GLOB with a literal prefix. The ranges replace the original term
// only when the pattern is exactly prefix plus a trailing wildcard.
func (a *analyzer) rewriteLike(wc *WhereClause, idx int, l *expr.Like) error {
	lp, ok := a.analyzeLike(l)
	if !ok {
		return nil
	}
	bound, disturbed := upperBound(lp.prefix, lp.noCase)
	if lp.complete && disturbed {
		return nil
	}

	lo := expr.Ge(lp.column, expr.Str(lp.prefix))
	hi := expr.Lt(lp.column, expr.Str(bound))
	for _, e := range []expr.Expr{lo, hi} {
		if _, err := a.insertDerived(wc, idx, e, lp.complete); err != nil {
			return err
		}
	}
	if lp.complete {
		wc.Term(idx).LiveChildren = 2
	}
	a.log.Debug("like prefix range",
		log.Int("term", idx),
		log.String("prefix", lp.prefix),
		log.String("bound", bound),
		log.Bool("complete", lp.complete))
	return nil
}
