package kma

import (
	"strconv"
	"strings"

	"github.com/i474232898/commute-weather/internal/common"
)

const commentMarker = "#"

// headerSource records how the column names of a report were determined.
type headerSource int

const (
	headerUnresolved headerSource = iota
	headerComment                 // "# YYMMDDHHMI STN ..." metadata line
	headerInline                  // first data line holds column names
	headerFallback                // positional default schema
)

type header struct {
	source headerSource
	names  []string
}

func (h header) resolved() bool {
	return h.source != headerUnresolved
}

// headerAliases collapses the spellings seen in typ01 comment headers.
var headerAliases = map[string]string{
	"yymmddhhmi": "tm",
	"tm":         "tm",
	"stn":        "stn",
	"ta":         "ta",
	"hm":         "hm",
	"rh":         "hm",
	"reh":        "hm",
	"ws":         "ws",
	"rn":         "rn",
}

// inlineMarkers identify a data line that is really a header row.
var inlineMarkers = []string{"tm", "ta", "ws", "rn", "hm", "reh"}

// fallbackColumns is the kma_sfctm typ01 column order used when no header is present.
var fallbackColumns = []string{"stn", "stnnm", "tm", "ta", "hm", "ws", "wd", "rn"}

// headerFromComments returns the first comment line naming both the time and
// station columns. The result is unresolved when there is none.
func headerFromComments(comments []string) header {
	for _, line := range comments {
		stripped := strings.TrimSpace(strings.TrimLeft(line, commentMarker))
		if stripped == "" {
			continue
		}
		if !common.HasAll(strings.ToUpper(stripped), "YYMMDD", "STN") {
			continue
		}
		return header{source: headerComment, names: normalizeNames(strings.Fields(stripped))}
	}
	return header{}
}

// normalizeNames lowercases and aliases tokens; repeated names get a numeric
// suffix so rn, rn, rn becomes rn, rn_1, rn_2.
func normalizeNames(tokens []string) []string {
	counts := make(map[string]int, len(tokens))
	names := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		key := strings.ToLower(tok)
		if alias, ok := headerAliases[key]; ok {
			key = alias
		}
		n, seen := counts[key]
		if seen {
			names = append(names, key+"_"+strconv.Itoa(n))
			counts[key] = n + 1
			continue
		}
		names = append(names, key)
		counts[key] = 1
	}
	return names
}

func looksLikeHeader(tokens []string) bool {
	return common.HasAnyToken(tokens, inlineMarkers...)
}

func inlineHeader(tokens []string) header {
	names := make([]string, len(tokens))
	for i, tok := range tokens {
		names[i] = strings.ToLower(tok)
	}
	return header{source: headerInline, names: names}
}

func fallbackHeader(width int) header {
	if width <= len(fallbackColumns) {
		return header{source: headerFallback, names: append([]string(nil), fallbackColumns[:width]...)}
	}
	names := append(make([]string, 0, width), fallbackColumns...)
	for i := len(fallbackColumns); i < width; i++ {
		names = append(names, "col"+strconv.Itoa(i))
	}
	return header{source: headerFallback, names: names}
}

type field struct {
	name  string
	value string
}

// row is an ordered column-name to value list for one data line.
type row []field

// zipRow pairs names with tokens positionally, dropping whichever side is longer.
func zipRow(names, tokens []string) row {
	n := min(len(names), len(tokens))
	r := make(row, n)
	for i := 0; i < n; i++ {
		r[i] = field{name: names[i], value: tokens[i]}
	}
	return r
}

// lookup returns the value of the named column. A later column with the same
// name shadows an earlier one.
func (r row) lookup(name string) (string, bool) {
	for i := len(r) - 1; i >= 0; i-- {
		if r[i].name == name {
			return r[i].value, true
		}
	}
	return "", false
}
