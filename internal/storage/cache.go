package storage

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/gomemory-mcp/pkg/types"
)

// recordCache holds decoded full records. Records are immutable after save,
// so entries only need eviction when the file changes outside the process.
// A nil *recordCache is a valid, disabled cache.
type recordCache struct {
	lru *lru.Cache[string, *types.KnowledgeItem]
}

func newRecordCache(size int) (*recordCache, error) {
	if size <= 0 {
		return nil, nil
	}
	c, err := lru.New[string, *types.KnowledgeItem](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create record cache: %w", err)
	}
	return &recordCache{lru: c}, nil
}

func (c *recordCache) Get(id string) (*types.KnowledgeItem, bool) {
	if c == nil {
		return nil, false
	}
	item, ok := c.lru.Get(id)
	if !ok {
		return nil, false
	}
	return copyItem(item), true
}

func (c *recordCache) Add(item *types.KnowledgeItem) {
	if c == nil {
		return
	}
	c.lru.Add(item.ID, copyItem(item))
}

func (c *recordCache) Remove(id string) {
	if c == nil {
		return
	}
	c.lru.Remove(id)
}

func (c *recordCache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// copyItem returns a deep copy so callers cannot mutate cached state
func copyItem(src *types.KnowledgeItem) *types.KnowledgeItem {
	dst := *src
	dst.Tags = append([]string{}, src.Tags...)
	return &dst
}
