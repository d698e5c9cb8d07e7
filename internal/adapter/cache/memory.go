package cache

import (
	"context"
	"sync"

	"github.com/couchcryptid/rainfall-heatmap/internal/domain"
)

// LRU is a thread-safe in-memory domain.TableStore that evicts the least
// recently used table once maxEntries is exceeded.
type LRU struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value domain.WeeklyPointTable
	prev  *entry
	next  *entry
}

// NewLRU creates an LRU holding at most maxEntries tables.
func NewLRU(maxEntries int) *LRU {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &LRU{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *LRU) Get(_ context.Context, key string) (domain.WeeklyPointTable, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.WeeklyPointTable{}, false, nil
	}
	c.moveToFront(e)
	return e.value, true, nil
}

func (c *LRU) Put(_ context.Context, key string, table domain.WeeklyPointTable) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = table
		c.moveToFront(e)
		return nil
	}

	e := &entry{key: key, value: table}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
	return nil
}

// Len returns the number of cached tables.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *LRU) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *LRU) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *LRU) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *LRU) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
