package cache

import (
	"context"
	"time"

	"jiskefet/internal/ports"
)

// NopCache is used when caching is disabled. Every lookup misses.
type NopCache struct{}

var _ ports.Cache = NopCache{}

func (NopCache) Get(context.Context, string) (string, bool, error) { return "", false, nil }

func (NopCache) Set(context.Context, string, string, time.Duration) error { return nil }

func (NopCache) Delete(context.Context, string) error { return nil }
