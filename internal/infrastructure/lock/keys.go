// Package lock implements shared.KeyedLocker: an in-process locker for single
// node deployments and a Redis locker for several replicas sharing one database.
package lock

import (
	"context"
	"sort"
)

type heldKeysKey struct{}

// heldKeys returns the keys the context already holds
func heldKeys(ctx context.Context) map[string]struct{} {
	held, _ := ctx.Value(heldKeysKey{}).(map[string]struct{})
	return held
}

// pendingKeys sorts and dedupes keys, dropping those ctx already holds
func pendingKeys(ctx context.Context, keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	pending := make([]string, 0, len(keys))
	for _, k := range keys {
		if holds(ctx, k) {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		pending = append(pending, k)
	}
	sort.Strings(pending)
	return pending
}

// withHeldKeys returns a context that also records keys as held. The parent's
// set is copied, never mutated.
func withHeldKeys(ctx context.Context, keys []string) context.Context {
	parent := heldKeys(ctx)
	held := make(map[string]struct{}, len(parent)+len(keys))
	for k := range parent {
		held[k] = struct{}{}
	}
	for _, k := range keys {
		held[k] = struct{}{}
	}
	return context.WithValue(ctx, heldKeysKey{}, held)
}

// holds reports whether ctx holds key
func holds(ctx context.Context, key string) bool {
	_, ok := heldKeys(ctx)[key]
	return ok
}

func noopRelease() {}
