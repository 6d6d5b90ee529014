package storage

import "io"

// BlobStore holds opaque binary assets, currently organization logos.
type BlobStore interface {
	Put(key string, r io.Reader) (string, error) // returns canonical key
	Get(key string) (io.ReadCloser, error)
}
