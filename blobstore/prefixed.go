package blobstore

import (
	"context"
	"path"
	"strings"
)

// Prefixed exposes the sub-tree below prefix of another store. Names passed
// to and returned from the prefixed store are relative to prefix.
type Prefixed struct {
	inner  BlobStore
	prefix string
}

// NewPrefixed returns a view of inner rooted at prefix.
func NewPrefixed(inner BlobStore, prefix string) *Prefixed {
	prefix = strings.Trim(prefix, "/")
	// nested views collapse into one
	if p, ok := inner.(*Prefixed); ok {
		return &Prefixed{inner: p.inner, prefix: p.join(prefix)}
	}
	return &Prefixed{inner: inner, prefix: prefix}
}

// Prefix returns the prefix relative to the underlying store.
func (p *Prefixed) Prefix() string { return p.prefix }

// Unwrap returns the underlying store.
func (p *Prefixed) Unwrap() BlobStore { return p.inner }

func (p *Prefixed) join(name string) string {
	if p.prefix == "" {
		return name
	}
	if name == "" {
		return p.prefix
	}
	return path.Join(p.prefix, name)
}

// Open opens prefix/name.
func (p *Prefixed) Open(ctx context.Context, name string) (Blob, error) {
	return p.inner.Open(ctx, p.join(name))
}

// Create creates prefix/name.
func (p *Prefixed) Create(ctx context.Context, name string) (WritableBlob, error) {
	return p.inner.Create(ctx, p.join(name))
}

// Put writes prefix/name atomically.
func (p *Prefixed) Put(ctx context.Context, name string, data []byte) error {
	return p.inner.Put(ctx, p.join(name), data)
}

// Delete removes prefix/name.
func (p *Prefixed) Delete(ctx context.Context, name string) error {
	return p.inner.Delete(ctx, p.join(name))
}

// List lists blobs below prefix whose relative name starts with sub.
func (p *Prefixed) List(ctx context.Context, sub string) ([]string, error) {
	root := p.prefix
	if root != "" {
		root += "/"
	}
	names, err := p.inner.List(ctx, root+sub)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		out = append(out, strings.TrimPrefix(n, root))
	}
	return out, nil
}
