package ports

import "context"

// KeyLocker serializes work per key across requests
type KeyLocker interface {
	// Lock blocks until key is held or ctx is done; call the returned func to release
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
