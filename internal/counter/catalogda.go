package counter

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bobaclub/counter/internal/apiclient"
)

const defaultCatalogTTL = 2 * time.Minute

// MenuGroup is a category of the menu catalog.
type MenuGroup struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MenuItem is a sellable drink or snack inside a group.
type MenuItem struct {
	ID          int64  `json:"id"`
	GroupID     int64  `json:"group_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
}

// MenuSize is one orderable size of a menu item with its price.
type MenuSize struct {
	ID        int64  `json:"id"`
	MenuID    int64  `json:"menu_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
}

// cacheEntry is one cached query result with its expiry.
type cacheEntry struct {
	value   interface{}
	expires time.Time
}

// queryCache is a read-through cache keyed by request parameters,
// kept small and process-local like the teacher board caches.
type queryCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]cacheEntry
}

func newQueryCache(ttl time.Duration) *queryCache {
	if ttl <= 0 {
		ttl = defaultCatalogTTL
	}
	return &queryCache{ttl: ttl, entries: make(map[string]cacheEntry)}
}

func (c *queryCache) get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.value, true
}

func (c *queryCache) put(key string, value interface{}) {
	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *queryCache) invalidate() {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()
}

// CatalogDataAccess serves the read-only reference data the ordering
// screens select from: menu groups, items, sizes and tables. Results
// are cached per query key for a short TTL.
type CatalogDataAccess struct {
	client *apiclient.Client
	cache  *queryCache
}

func NewCatalogDataAccess(client *apiclient.Client, ttl time.Duration) *CatalogDataAccess {
	return &CatalogDataAccess{client: client, cache: newQueryCache(ttl)}
}

func (da *CatalogDataAccess) ListMenuGroups(ctx context.Context) ([]MenuGroup, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("catalog client not configured")
	}

	const key = "menu-groups"
	if cached, ok := da.cache.get(key); ok {
		return cached.([]MenuGroup), nil
	}

	env, err := da.client.Do(ctx, http.MethodGet, "/menu/groups", nil)
	if err != nil {
		return nil, err
	}

	var groups []MenuGroup
	if err := env.DecodeData(&groups); err != nil {
		return nil, err
	}

	da.cache.put(key, groups)
	return groups, nil
}

func (da *CatalogDataAccess) ListMenuItems(ctx context.Context, groupID int64) ([]MenuItem, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("catalog client not configured")
	}

	key := fmt.Sprintf("menu-items:%d", groupID)
	if cached, ok := da.cache.get(key); ok {
		return cached.([]MenuItem), nil
	}

	path := fmt.Sprintf("/menu/items?group_id=%d", groupID)
	env, err := da.client.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var items []MenuItem
	if err := env.DecodeData(&items); err != nil {
		return nil, err
	}

	da.cache.put(key, items)
	return items, nil
}

func (da *CatalogDataAccess) ListSizes(ctx context.Context, menuID int64) ([]MenuSize, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("catalog client not configured")
	}

	key := fmt.Sprintf("menu-sizes:%d", menuID)
	if cached, ok := da.cache.get(key); ok {
		return cached.([]MenuSize), nil
	}

	path := fmt.Sprintf("/menu/items/%d/sizes", menuID)
	env, err := da.client.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var sizes []MenuSize
	if err := env.DecodeData(&sizes); err != nil {
		return nil, err
	}

	da.cache.put(key, sizes)
	return sizes, nil
}

func (da *CatalogDataAccess) ListAvailableTables(ctx context.Context) ([]Table, error) {
	if da == nil || da.client == nil {
		return nil, fmt.Errorf("catalog client not configured")
	}

	const key = "tables:available"
	if cached, ok := da.cache.get(key); ok {
		return cached.([]Table), nil
	}

	env, err := da.client.Do(ctx, http.MethodGet, "/tables?status=available", nil)
	if err != nil {
		return nil, err
	}

	var tables []Table
	if err := env.DecodeData(&tables); err != nil {
		return nil, err
	}

	da.cache.put(key, tables)
	return tables, nil
}

// Refresh drops every cached query so the next reads hit the API.
func (da *CatalogDataAccess) Refresh() {
	if da == nil {
		return
	}
	da.cache.invalidate()
}
