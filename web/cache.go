package web

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/user/redditclone-go/apperror"
)

const defaultCacheSize = 1024

// MeCache remembers the logged-in user per session so that pages do not
// query `me` on every request. Keys are opaque to the cache; an empty key is
// never stored. Mutations that log a user in write the returned
// user straight into the cache; logout removes the entry.
type MeCache struct {
	entries *lru.Cache
}

// NewMeCache creates a cache holding up to size sessions.
func NewMeCache(size int) (*MeCache, error) {
	if size <= 0 {
		size = defaultCacheSize
	}
	c, err := lru.New(size)
	if err != nil {
		return nil, apperror.NewConfigError("failed to create me cache", err)
	}
	return &MeCache{entries: c}, nil
}

// Get returns the cached user for key. A cached nil means "known to be logged out".
func (c *MeCache) Get(key string) (*User, bool) {
	if key == "" {
		return nil, false
	}
	v, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	u, _ := v.(*User)
	return u, true
}

func (c *MeCache) Set(key string, u *User) {
	if key == "" {
		return
	}
	c.entries.Add(key, u)
}

func (c *MeCache) Clear(key string) {
	if key == "" {
		return
	}
	c.entries.Remove(key)
}
