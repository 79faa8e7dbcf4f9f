// Package searcher ranks saved knowledge items against a free-text query.
//
// A search runs in five steps:
//   - Tokenize the query (an empty token list yields no results)
//   - List every index entry
//   - Load each full record, apply the scope and tag filters, and score it
//   - Sort by score descending, then id ascending
//   - Truncate to the limit and attach previews
//
// # Basic Usage
//
//	s := searcher.New(repo, searcher.Options{Logger: logger})
//
//	resp, err := s.Search(ctx, searcher.Request{
//	    Query: "naming conventions",
//	    Tags:  []string{"style"},
//	    Scope: types.ScopeFilterAll,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("[%d] %s (score: %d)\n", r.Rank, r.Item.Title, r.Score)
//	}
//
// # Filtering
//
// Scope filters:
//   - all: every item (default)
//   - global: items saved with global scope
//   - project: items saved with project scope, optionally narrowed to one
//     exact ProjectPath
//
// Tag filtering uses OR semantics: an item passes when any of its tags equals
// any requested tag, ignoring case. No tags means no tag filtering.
//
// # Scoring
//
// Scores come from the lexical package and are plain integers. They are
// additive across query tokens and fields with no normalization, so long
// items that repeat query terms in several fields rank higher. Items scoring
// zero never appear in results.
//
// Scoring always runs against the full record, never the truncated index
// entry, so a term that appears only late in the content is still found.
//
// # Limits
//
// A nil Limit uses the configured default (10). A limit of 0 or below returns
// no results. There is no upper bound.
//
// # Concurrency
//
// Full records are loaded on an errgroup bounded by Options.Workers. Records
// that are missing or corrupt are skipped; only context cancellation aborts a
// search. Result order does not depend on load order.
package searcher
