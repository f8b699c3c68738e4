package expr

import (
	"regexp"

	"github.com/lib/pq"
)

var plainIdent = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// quoteIdent leaves plain lower-case identifiers bare and quotes
// everything else.
func quoteIdent(name string) string {
	if plainIdent.MatchString(name) && !reserved[name] {
		return name
	}
	return pq.QuoteIdentifier(name)
}

func quoteLiteral(s string) string {
	return pq.QuoteLiteral(s)
}

// Words that would change the meaning of rendered SQL if left bare.
var reserved = map[string]bool{
	"and": true, "between": true, "by": true, "from": true, "glob": true,
	"group": true, "having": true, "in": true, "is": true, "like": true,
	"match": true, "not": true, "null": true, "or": true, "order": true,
	"select": true, "where": true,
}
