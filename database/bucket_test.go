package database

import (
	"bytes"
	"testing"
)

func TestBucketKey(t *testing.T) {
	tests := []struct {
		bucketName  string
		key         string
		expectedKey string
	}{
		{"blocks", "abc", "blocks/abc"},
		{"balances", "", "balances/"},
		{"", "raw", "/raw"},
	}

	for _, test := range tests {
		bucket := MakeBucket([]byte(test.bucketName))
		key := bucket.Key([]byte(test.key))
		if !bytes.Equal(key, []byte(test.expectedKey)) {
			t.Errorf("TestBucketKey: bucket %q key %q: expected %q, got %q",
				test.bucketName, test.key, test.expectedKey, key)
		}
	}
}

func TestBucketPath(t *testing.T) {
	bucket := MakeBucket([]byte("nonces"))
	expectedPath := []byte("nonces/")
	if !bytes.Equal(bucket.Path(), expectedPath) {
		t.Errorf("TestBucketPath: expected %q, got %q", expectedPath, bucket.Path())
	}

	// Keys from different buckets must never collide even when the
	// concatenated bytes would otherwise match.
	first := MakeBucket([]byte("ab")).Key([]byte("c"))
	second := MakeBucket([]byte("a")).Key([]byte("bc"))
	if bytes.Equal(first, second) {
		t.Errorf("TestBucketPath: keys %q and %q collide", first, second)
	}
}
