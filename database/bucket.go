package database

// Bucket carves a named keyspace out of the flat key-value store by
// prefixing every key with the bucket name and a trailing separator.
type Bucket struct {
	prefix []byte
}

const bucketSeparator = '/'

// MakeBucket returns the bucket for the given name.
func MakeBucket(name []byte) *Bucket {
	prefix := make([]byte, len(name)+1)
	copy(prefix, name)
	prefix[len(name)] = bucketSeparator

	return &Bucket{prefix: prefix}
}

// Key returns the full database key for the given key inside the bucket.
func (b *Bucket) Key(key []byte) []byte {
	fullKey := make([]byte, len(b.prefix)+len(key))
	copy(fullKey, b.prefix)
	copy(fullKey[len(b.prefix):], key)

	return fullKey
}

// Path returns the prefix shared by every key in the bucket. Callers
// must not modify the returned slice.
func (b *Bucket) Path() []byte {
	return b.prefix
}
