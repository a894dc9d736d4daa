package store

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"golang.org/x/sync/errgroup"

	"github.com/murphyatwork/velocypack"
)

var bufferPool = sync.Pool{
	New: func() interface{} {
		return &[]byte{}
	},
}

// Store reads and writes encoded documents under a common namespace
// prefix. Every document is validated on the way in, so everything read
// back is a well-formed slice.
type Store struct {
	ng     *Engine
	prefix []byte
}

// buildKey builds the full key of a document: prefix + separator + 0 +
// key. The 0 separates the key from the prefix so namespaces can never
// collide.
func buildKey(prefix, k []byte) []byte {
	buf := bufferPool.Get().(*[]byte)
	if cap(*buf) < len(prefix)+len(k)+2 {
		*buf = make([]byte, 0, len(prefix)+len(k)+2)
	}
	key := (*buf)[:0]
	key = append(key, prefix...)
	key = append(key, separator)
	key = append(key, 0)
	key = append(key, k...)
	return key
}

// Put stores an encoded document under k. The document must be exactly
// one well-formed value.
func (s *Store) Put(k []byte, doc velocypack.Slice) error {
	if len(k) == 0 {
		return errors.New("cannot store empty key")
	}

	n, err := doc.ByteSize()
	if err != nil {
		return errors.Wrap(ErrInvalidDocument, err.Error())
	}
	if n != len(doc) {
		return errors.Wrapf(ErrInvalidDocument, "document is %d bytes, value needs %d", len(doc), n)
	}

	key := buildKey(s.prefix, k)
	err = s.ng.DB.Set(key, doc, pebble.Sync)
	bufferPool.Put(&key)
	return err
}

// Get returns the document stored under k. If not found, returns
// ErrKeyNotFound.
func (s *Store) Get(k []byte) (velocypack.Slice, error) {
	key := buildKey(s.prefix, k)
	value, closer, err := s.ng.DB.Get(key)
	bufferPool.Put(&key)
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, errors.WithStack(ErrKeyNotFound)
		}
		return nil, err
	}

	cp := make([]byte, len(value))
	copy(cp, value)
	if err := closer.Close(); err != nil {
		return nil, err
	}
	return velocypack.Slice(cp), nil
}

// Delete removes the document stored under k.
func (s *Store) Delete(k []byte) error {
	key := buildKey(s.prefix, k)
	err := s.ng.DB.Delete(key, pebble.Sync)
	bufferPool.Put(&key)
	return err
}

// Iterate calls fn for each document of the store in key order.
func (s *Store) Iterate(fn func(k []byte, doc velocypack.Slice) error) error {
	lower := buildKey(s.prefix, nil)
	upper := append(append([]byte(nil), s.prefix...), separator, 1)

	it := s.ng.DB.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: upper,
	})
	defer it.Close()

	for it.First(); it.Valid(); it.Next() {
		k := it.Key()[len(s.prefix)+2:]
		if err := fn(k, velocypack.Slice(it.Value())); err != nil {
			return err
		}
	}

	bufferPool.Put(&lower)
	return it.Error()
}

// Document is one named JSON document handed to ImportJSON.
type Document struct {
	Key  []byte
	JSON []byte
}

// ImportJSON parses the given JSON documents concurrently, then writes
// the encoded results in one batch. Either all documents are stored or
// none.
func (s *Store) ImportJSON(docs []Document, opts *velocypack.Options) error {
	encoded := make([]velocypack.Slice, len(docs))

	var g errgroup.Group
	for i := range docs {
		i := i
		g.Go(func() error {
			sl, err := velocypack.FromJSON(docs[i].JSON, opts)
			if err != nil {
				return errors.Wrapf(err, "document %q", docs[i].Key)
			}
			encoded[i] = sl
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	batch := s.ng.DB.NewBatch()
	defer batch.Close()

	for i := range docs {
		key := buildKey(s.prefix, docs[i].Key)
		err := batch.Set(key, encoded[i], nil)
		bufferPool.Put(&key)
		if err != nil {
			return err
		}
	}
	return batch.Commit(pebble.Sync)
}
