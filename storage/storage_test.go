package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btclog"
	"github.com/stretchr/testify/require"
)

type bytesCodec struct{}

func (bytesCodec) EncodeKey(k string) []byte         { return []byte(k) }
func (bytesCodec) Encode(v string) ([]byte, error)   { return []byte(v), nil }
func (bytesCodec) Decode(data []byte) (string, error) { return string(data), nil }

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.ldb"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStorePutGetDelete(t *testing.T) {
	db := openTestDB(t)
	store := NewStore[string, string]("widgets", bytesCodec{}, bytesCodec{})

	err := db.WithTransaction(ReadWrite, nil, func(tx *Transaction) error {
		return store.Put(tx, "a", "1")
	})
	require.NoError(t, err)

	err = db.WithTransaction(ReadOnly, nil, func(tx *Transaction) error {
		v, ok, err := store.Get(tx, "a")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "1", v)
		return nil
	})
	require.NoError(t, err)

	err = db.WithTransaction(ReadWrite, nil, func(tx *Transaction) error {
		return store.Delete(tx, "a")
	})
	require.NoError(t, err)

	err = db.WithTransaction(ReadOnly, nil, func(tx *Transaction) error {
		_, ok, err := store.Get(tx, "a")
		require.NoError(t, err)
		require.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestWriteTransactionRollsBackOnError(t *testing.T) {
	db := openTestDB(t)
	store := NewStore[string, string]("widgets", bytesCodec{}, bytesCodec{})

	err := db.WithTransaction(ReadWrite, nil, func(tx *Transaction) error {
		if putErr := store.Put(tx, "b", "2"); putErr != nil {
			return putErr
		}
		return errIntentional
	})
	require.Error(t, err)

	err = db.WithTransaction(ReadOnly, nil, func(tx *Transaction) error {
		_, ok, getErr := store.Get(tx, "b")
		require.NoError(t, getErr)
		require.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

var errIntentional = Error{Code: ErrMigrationFailed, Description: "intentional test failure"}

func TestNestedTransactionReusesParent(t *testing.T) {
	db := openTestDB(t)
	store := NewStore[string, string]("widgets", bytesCodec{}, bytesCodec{})

	err := db.WithTransaction(ReadWrite, nil, func(tx *Transaction) error {
		require.NoError(t, store.Put(tx, "outer", "1"))
		return db.WithTransaction(ReadWrite, tx, func(inner *Transaction) error {
			v, ok, getErr := store.Get(inner, "outer")
			require.NoError(t, getErr)
			require.True(t, ok)
			require.Equal(t, "1", v)
			return store.Put(inner, "inner", "2")
		})
	})
	require.NoError(t, err)

	err = db.WithTransaction(ReadOnly, nil, func(tx *Transaction) error {
		_, ok, getErr := store.Get(tx, "inner")
		require.NoError(t, getErr)
		require.True(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestRangeIteratorOrdering(t *testing.T) {
	db := openTestDB(t)
	store := NewStore[string, string]("widgets", bytesCodec{}, bytesCodec{})

	err := db.WithTransaction(ReadWrite, nil, func(tx *Transaction) error {
		for _, k := range []string{"a", "b", "c"} {
			if putErr := store.Put(tx, k, k); putErr != nil {
				return putErr
			}
		}
		return nil
	})
	require.NoError(t, err)

	var forward []string
	err = db.WithTransaction(ReadOnly, nil, func(tx *Transaction) error {
		it, iterErr := store.NewRangeIterator(tx, nil, nil, false)
		require.NoError(t, iterErr)
		defer it.Release()
		for it.Next() {
			v, vErr := it.Value()
			require.NoError(t, vErr)
			forward = append(forward, v)
		}
		return it.Err()
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, forward)

	var reverse []string
	err = db.WithTransaction(ReadOnly, nil, func(tx *Transaction) error {
		it, iterErr := store.NewRangeIterator(tx, nil, nil, true)
		require.NoError(t, iterErr)
		defer it.Release()
		for it.Next() {
			v, vErr := it.Value()
			require.NoError(t, vErr)
			reverse = append(reverse, v)
		}
		return it.Err()
	})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b", "a"}, reverse)
}

func TestMigrationForwardThenBackwardRestoresState(t *testing.T) {
	db := openTestDB(t)
	marker := NewStore[string, string]("migration_marker", bytesCodec{}, bytesCodec{})

	migrations := []Migration{
		{
			Number:   1,
			Database: CHAIN,
			Forward: func(ctx context.Context, db *DB, tx *Transaction, logger btclog.Logger) error {
				return marker.Put(tx, "present", "yes")
			},
			Backward: func(ctx context.Context, db *DB, tx *Transaction, logger btclog.Logger) error {
				return marker.Delete(tx, "present")
			},
		},
	}

	registry := NewRegistry(CHAIN, migrations)
	require.NoError(t, registry.Apply(context.Background(), db, btclog.Disabled))

	err := db.WithTransaction(ReadOnly, nil, func(tx *Transaction) error {
		_, ok, getErr := marker.Get(tx, "present")
		require.NoError(t, getErr)
		require.True(t, ok)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, registry.Revert(context.Background(), db, 0, btclog.Disabled))

	err = db.WithTransaction(ReadOnly, nil, func(tx *Transaction) error {
		_, ok, getErr := marker.Get(tx, "present")
		require.NoError(t, getErr)
		require.False(t, ok)
		return nil
	})
	require.NoError(t, err)
}

func TestApplyRejectsSchemaNewerThanRegistry(t *testing.T) {
	db := openTestDB(t)
	migrations := []Migration{{
		Number:   1,
		Database: CHAIN,
		Forward: func(ctx context.Context, db *DB, tx *Transaction, logger btclog.Logger) error {
			return nil
		},
		Backward: func(ctx context.Context, db *DB, tx *Transaction, logger btclog.Logger) error {
			return nil
		},
	}}
	registry := NewRegistry(CHAIN, migrations)
	require.NoError(t, registry.Apply(context.Background(), db, btclog.Disabled))

	// Simulate a future binary having written a higher version number.
	err := db.WithTransaction(ReadWrite, nil, func(tx *Transaction) error {
		return metaVersionStore.Put(tx, metaVersionKey, 99)
	})
	require.NoError(t, err)

	err = registry.Apply(context.Background(), db, btclog.Disabled)
	require.Error(t, err)
	storageErr, ok := err.(Error)
	require.True(t, ok)
	require.Equal(t, ErrSchemaTooNew, storageErr.Code)
}
