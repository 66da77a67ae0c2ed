package interfaces

// KeyValueStorage is a minimal byte-oriented KV boundary, used by the
// content-addressed embedding cache.
type KeyValueStorage interface {
	// Get returns the stored value, or (nil, nil) when the key is absent.
	Get(key string) ([]byte, error)

	// Set stores the value under the key, overwriting any previous value.
	Set(key string, value []byte) error

	// Delete removes the key. Deleting an absent key is a no-op.
	Delete(key string) error
}
