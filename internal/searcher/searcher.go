package searcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/gomemory-mcp/internal/lexical"
	"github.com/dshills/gomemory-mcp/internal/storage"
	"github.com/dshills/gomemory-mcp/pkg/types"
)

const (
	// DefaultLimit is the result count used when a request leaves Limit unset
	DefaultLimit = 10
	// DefaultWorkers bounds concurrent record loads
	DefaultWorkers = 8
)

// Source is the read side of a knowledge repository
type Source interface {
	ListIndexed(ctx context.Context) ([]types.IndexEntry, error)
	LoadFull(ctx context.Context, id string) (*types.KnowledgeItem, error)
}

// Request contains parameters for a search operation
type Request struct {
	Query       string
	Tags        []string          // OR semantics, case-insensitive
	Scope       types.ScopeFilter // Defaults to all
	ProjectPath string            // Narrows a project scope filter
	Limit       *int              // nil means the default limit; negative means 0
}

// Response contains ranked results and metadata
type Response struct {
	Query      string
	Results    []types.SearchResult
	Candidates int // Index entries considered
	Matched    int // Items scoring above zero before the limit was applied
	Duration   time.Duration
}

// Options configures a Searcher
type Options struct {
	Logger       *zap.Logger
	DefaultLimit int
	Workers      int
}

// Searcher ranks stored knowledge against a free-text query
type Searcher struct {
	source       Source
	log          *zap.Logger
	defaultLimit int
	workers      int
}

// New creates a Searcher reading from source
func New(source Source, opts Options) *Searcher {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	return &Searcher{
		source:       source,
		log:          opts.Logger.Named("searcher"),
		defaultLimit: opts.DefaultLimit,
		workers:      opts.Workers,
	}
}

// scored pairs a candidate with its relevance
type scored struct {
	item  *types.KnowledgeItem
	score int
}

// Search tokenizes the query, filters and scores every indexed item, and
// returns the best matches ordered by score descending then id ascending.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	scope, err := types.ParseScopeFilter(string(req.Scope))
	if err != nil {
		return nil, &types.ValidationError{Field: "scope", Err: err}
	}

	resp := &Response{Query: req.Query, Results: []types.SearchResult{}}

	limit := s.resolveLimit(req.Limit)
	tokens := lexical.Tokenize(req.Query)
	if len(tokens) == 0 || limit == 0 {
		resp.Duration = time.Since(start)
		return resp, nil
	}

	entries, err := s.source.ListIndexed(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list index: %w", err)
	}
	resp.Candidates = len(entries)

	matches, err := s.scoreAll(ctx, entries, tokens, NewChain(scope, req.ProjectPath, req.Tags))
	if err != nil {
		return nil, err
	}
	sortScored(matches)
	resp.Matched = len(matches)

	if len(matches) > limit {
		matches = matches[:limit]
	}
	for i, m := range matches {
		resp.Results = append(resp.Results, types.SearchResult{
			Rank:    i + 1,
			Score:   m.score,
			Item:    m.item,
			Preview: types.Preview(m.item.Content),
		})
	}

	resp.Duration = time.Since(start)
	s.log.Debug("search complete",
		zap.String("query", req.Query),
		zap.Int("candidates", resp.Candidates),
		zap.Int("matched", resp.Matched),
		zap.Int("returned", len(resp.Results)),
		zap.Duration("duration", resp.Duration))

	return resp, nil
}

// resolveLimit applies the default and clamps negatives to zero
func (s *Searcher) resolveLimit(limit *int) int {
	if limit == nil {
		return s.defaultLimit
	}
	if *limit < 0 {
		return 0
	}
	return *limit
}

// scoreAll loads full records with bounded concurrency and keeps those that
// pass the filter chain with a positive score. Records that cannot be loaded
// are skipped.
func (s *Searcher) scoreAll(ctx context.Context, entries []types.IndexEntry, tokens []string, filter Filter) ([]scored, error) {
	slots := make([]*scored, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i := range entries {
		i, id := i, entries[i].ID
		g.Go(func() error {
			item, err := s.source.LoadFull(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				if !errors.Is(err, storage.ErrNotFound) {
					s.log.Warn("skipping unreadable record", zap.String("id", id), zap.Error(err))
				}
				return nil
			}
			if !filter.Accept(item) {
				return nil
			}
			if score := lexical.Score(item, tokens); score > 0 {
				slots[i] = &scored{item: item, score: score}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("search interrupted: %w", err)
	}

	out := make([]scored, 0, len(slots))
	for _, m := range slots {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out, nil
}

// sortScored orders by score descending, breaking ties by id ascending
func sortScored(results []scored) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].item.ID < results[j].item.ID
	})
}
