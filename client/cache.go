package client

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/hydrogenbond007/drand-rs/log"
)

// NewCachingClient is a meta client that stores an LRU cache of
// recently fetched random values.
func NewCachingClient(client Client, size int, l log.Logger) (Client, error) {
	cache, err := lru.NewARC(size)
	if err != nil {
		return nil, err
	}
	return &cachingClient{
		Client: client,
		cache:  cache,
		log:    l,
	}, nil
}

type cachingClient struct {
	Client

	cache *lru.ARCCache
	log   log.Logger
}

// SetLog configures the client log output
func (c *cachingClient) SetLog(l log.Logger) {
	c.log = l
}

// Get returns the randomness at `round` or an error.
func (c *cachingClient) Get(ctx context.Context, round uint64) (Result, error) {
	if val, ok := c.cache.Get(round); ok {
		return val.(Result), nil
	}
	val, err := c.Client.Get(ctx, round)
	if err == nil && val != nil {
		c.cache.Add(round, val)
	}
	return val, err
}

// Watch proxies the wrapped watch, adding every new round to the cache on the way through.
func (c *cachingClient) Watch(ctx context.Context) <-chan Result {
	in := c.Client.Watch(ctx)
	out := make(chan Result)
	go func() {
		defer close(out)
		for result := range in {
			c.cache.Add(result.Round(), result)
			out <- result
		}
	}()
	return out
}

func (c *cachingClient) String() string {
	return fmt.Sprintf("%s.(+cache)", c.Client)
}
