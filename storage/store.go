// Copyright (c) 2025 The go-ironfish developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage implements the typed key-value abstraction (spec §4.1):
// named stores with typed key/value encoders over prefix ranges,
// transactions with read-your-own-writes, snapshot iterators, and a
// numbered migration registry. It is backed by goleveldb, the embedded
// ordered KV store the teacher repo already depends on.
package storage

import (
	"bytes"
)

// KeyCodec encodes a typed key to bytes that preserve the key's natural
// ordering, per spec §4.1 ("Keys are fixed-width or length-prefixed to
// preserve ordering").
type KeyCodec[K any] interface {
	EncodeKey(key K) []byte
}

// ValueCodec is the dynamic-dispatch value encoder design note §9 calls
// for in place of the source's generic value-encoder classes.
type ValueCodec[V any] interface {
	Encode(value V) ([]byte, error)
	Decode(data []byte) (V, error)
}

// Store is a named sub-keyspace with typed key/value encoding. Every key
// written through a Store is prefixed with the store's own one-byte-
// length-prefixed name so stores can share the same underlying keyspace
// without collisions; renaming a store is therefore a migration (spec
// §6, "renaming stores requires a migration").
type Store[K any, V any] struct {
	name       string
	keyPrefix  []byte
	keyCodec   KeyCodec[K]
	valueCodec ValueCodec[V]
}

// NewStore constructs a typed store. name becomes the store's on-disk key
// prefix; callers within the same logical database must use distinct
// names.
func NewStore[K any, V any](name string, keyCodec KeyCodec[K], valueCodec ValueCodec[V]) *Store[K, V] {
	prefix := append([]byte{byte(len(name))}, []byte(name)...)
	return &Store[K, V]{name: name, keyPrefix: prefix, keyCodec: keyCodec, valueCodec: valueCodec}
}

func (s *Store[K, V]) encodeKey(key K) []byte {
	inner := s.keyCodec.EncodeKey(key)
	out := make([]byte, 0, len(s.keyPrefix)+len(inner))
	out = append(out, s.keyPrefix...)
	out = append(out, inner...)
	return out
}

// Get reads a single value. ok is false when the key is absent.
func (s *Store[K, V]) Get(tx *Transaction, key K) (value V, ok bool, err error) {
	raw, err := tx.get(s.encodeKey(key))
	if err != nil {
		if IsNotFound(err) {
			return value, false, nil
		}
		return value, false, err
	}
	value, err = s.valueCodec.Decode(raw)
	if err != nil {
		return value, false, err
	}
	return value, true, nil
}

// Put writes a value, overwriting any existing value for key.
func (s *Store[K, V]) Put(tx *Transaction, key K, value V) error {
	raw, err := s.valueCodec.Encode(value)
	if err != nil {
		return err
	}
	return tx.put(s.encodeKey(key), raw)
}

// Delete removes a key. It is not an error to delete an absent key.
func (s *Store[K, V]) Delete(tx *Transaction, key K) error {
	return tx.delete(s.encodeKey(key))
}

// Has reports whether key is present without decoding its value.
func (s *Store[K, V]) Has(tx *Transaction, key K) (bool, error) {
	return tx.has(s.encodeKey(key))
}

// Iterator walks a Store's keys in order, starting from the key it was
// opened at and yielding decoded (key-suffix-free) values.
type Iterator[K any, V any] struct {
	store *Store[K, V]
	inner rawIterator
}

// NewRangeIterator opens a forward or reverse iterator over the store's
// full key range, or the byte range [lowerInner, upperInner) within it
// when non-nil, observing the transaction's snapshot (spec §4.1).
func (s *Store[K, V]) NewRangeIterator(tx *Transaction, lowerInner, upperInner []byte, reverse bool) (*Iterator[K, V], error) {
	lower := append(append([]byte{}, s.keyPrefix...), lowerInner...)
	var upper []byte
	if upperInner != nil {
		upper = append(append([]byte{}, s.keyPrefix...), upperInner...)
	} else {
		upper = prefixUpperBound(s.keyPrefix)
	}
	inner, err := tx.newIterator(lower, upper, reverse)
	if err != nil {
		return nil, err
	}
	return &Iterator[K, V]{store: s, inner: inner}, nil
}

// Next advances the iterator. It must be called once before the first
// Value()/RawKey() access.
func (it *Iterator[K, V]) Next() bool { return it.inner.Next() }

// RawKey returns the full encoded key (including the store prefix) of the
// current entry.
func (it *Iterator[K, V]) RawKey() []byte { return it.inner.Key() }

// KeySuffix returns the encoded key with the store's prefix stripped,
// useful for range-scoped stores that embed an inner composite key.
func (it *Iterator[K, V]) KeySuffix() []byte {
	return bytes.TrimPrefix(it.inner.Key(), it.store.keyPrefix)
}

// Value decodes the current entry's value.
func (it *Iterator[K, V]) Value() (V, error) {
	return it.store.valueCodec.Decode(it.inner.Value())
}

// Release must be called when done iterating.
func (it *Iterator[K, V]) Release() { it.inner.Release() }

// Err returns any error encountered during iteration.
func (it *Iterator[K, V]) Err() error { return it.inner.Error() }

// prefixUpperBound returns the smallest byte string greater than every
// string with the given prefix, i.e. the exclusive upper bound of the
// range [prefix, prefix+1) described in spec §4.1.
func prefixUpperBound(prefix []byte) []byte {
	upper := append([]byte{}, prefix...)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	// prefix was all 0xff bytes; no finite upper bound, so return nil to
	// mean "no upper bound".
	return nil
}
