package ports

import "context"

// ObjectStore mirrors finished outputs to remote storage.
type ObjectStore interface {
	// Put uploads data under key and returns a locator for it.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
