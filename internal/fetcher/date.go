package fetcher

import (
	"strings"
	"time"

	"github.com/newthinker/folio/internal/core"
)

// dateLayouts are tried in order. Day-first forms precede month-first ones
// because most sources are European.
var dateLayouts = []string{
	core.DateLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"02-Jan-2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 02, 2006",
	"20060102",
}

// NormalizeDate parses a free-form date into the canonical form. Anything
// unparseable yields today's date.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "As of ")
	s = strings.TrimPrefix(s, "as of ")
	if s == "" {
		return Today()
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(core.DateLayout)
		}
	}
	return Today()
}
