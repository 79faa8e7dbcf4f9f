package lexical

import (
	"strings"

	"github.com/dshills/gomemory-mcp/pkg/types"
)

// Field weights for exact and substring matches
const (
	TitleExact     = 10
	TitleSubstring = 5
	TagExact       = 8
	TagSubstring   = 4
	ContentExact   = 2
	ContentSubstr  = 1
)

// Breakdown holds per-field score subtotals
type Breakdown struct {
	Title   int
	Tags    int
	Content int
}

// Total returns the combined score
func (b Breakdown) Total() int {
	return b.Title + b.Tags + b.Content
}

// Score computes the relevance of item against already tokenized query terms
func Score(item *types.KnowledgeItem, queryTokens []string) int {
	return Explain(item, queryTokens).Total()
}

// Explain computes the same score as Score, split by field
func Explain(item *types.KnowledgeItem, queryTokens []string) Breakdown {
	var b Breakdown
	if item == nil || len(queryTokens) == 0 {
		return b
	}

	titleTokens := Tokenize(item.Title)
	contentTokens := Tokenize(item.Content)
	tags := make([]string, len(item.Tags))
	for i, tag := range item.Tags {
		tags[i] = strings.ToLower(tag)
	}

	for _, q := range queryTokens {
		b.Title += matchAll(titleTokens, q, TitleExact, TitleSubstring)
		b.Tags += matchAll(tags, q, TagExact, TagSubstring)
		b.Content += matchAll(contentTokens, q, ContentExact, ContentSubstr)
	}
	return b
}

// matchAll sums the bonus for q against every field token
func matchAll(fieldTokens []string, q string, exact, substring int) int {
	total := 0
	for _, t := range fieldTokens {
		switch {
		case t == q:
			total += exact
		case strings.Contains(t, q):
			total += substring
		}
	}
	return total
}
