package shared

import "context"

// KeyedLocker grants exclusive access to a set of named keys.
//
// Acquire takes every key not already held by ctx, in ascending key order, and
// returns a derived context that records the held keys together with a release
// func. Nested Acquire calls on the derived context skip keys it already holds,
// so a caller may lock a set of keys up front and call into code that locks a
// subset. Implementations return ErrLockTimeout when a key cannot be taken in
// time.
type KeyedLocker interface {
	Acquire(ctx context.Context, keys ...string) (context.Context, func(), error)
}
