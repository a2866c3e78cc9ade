package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"go.devnw.com/ttl"
)

// Provider loads the raw content of a source. Zero bytes is a valid,
// empty source.
type Provider interface {
	Load(ctx context.Context, src Source) ([]byte, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, src Source) ([]byte, error)

func (f ProviderFunc) Load(ctx context.Context, src Source) ([]byte, error) {
	return f(ctx, src)
}

// FSProvider reads local files and directories and downloads http(s)
// sources.
type FSProvider struct {
	Client *http.Client

	// MaxBody bounds a download; zero means maxBody.
	MaxBody int64
}

func (p FSProvider) Load(ctx context.Context, src Source) ([]byte, error) {
	if Location(src.Path) == REM {
		return Get(ctx, p.Client, src.Path, p.MaxBody)
	}

	info, err := os.Stat(src.Path)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		return os.ReadFile(src.Path)
	}

	files, err := ReadTree(ctx, src.Path)
	if err != nil {
		return nil, err
	}

	buf := bytes.Buffer{}
	for _, f := range files {
		if f.Err != nil {
			return nil, fmt.Errorf("%s: %w", f.Path, f.Err)
		}

		buf.Write(f.Data)
		if len(f.Data) > 0 && f.Data[len(f.Data)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}

	return buf.Bytes(), nil
}

// CachedProvider keeps downloaded sources for MaxAge so periodic passes
// do not fetch unchanged lists again. Local sources are always read.
type CachedProvider struct {
	next   Provider
	maxAge time.Duration
	cache  *ttl.Cache[string, []byte]

	// Force skips the cache lookup; fresh content is still cached.
	Force bool
}

// NewCachedProvider wraps next with a cache that lives as long as ctx.
func NewCachedProvider(
	ctx context.Context,
	next Provider,
	maxAge time.Duration,
) *CachedProvider {
	return &CachedProvider{
		next:   next,
		maxAge: maxAge,
		cache:  ttl.NewCache[string, []byte](ctx, maxAge, false),
	}
}

func (c *CachedProvider) Load(ctx context.Context, src Source) ([]byte, error) {
	if Location(src.Path) != REM {
		return c.next.Load(ctx, src)
	}

	if !c.Force {
		data, ok := c.cache.Get(ctx, src.Path)
		if ok {
			return data, nil
		}
	}

	data, err := c.next.Load(ctx, src)
	if err != nil {
		return nil, err
	}

	err = c.cache.SetTTL(ctx, src.Path, data, c.maxAge)
	if err != nil {
		return nil, err
	}

	return data, nil
}
