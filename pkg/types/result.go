package types

// SearchResult represents a single ranked search hit
type SearchResult struct {
	Rank    int // Position in result set (1-based)
	Score   int // Lexical relevance, always > 0
	Item    *KnowledgeItem
	Preview string // Content capped at PreviewLimit characters
}
