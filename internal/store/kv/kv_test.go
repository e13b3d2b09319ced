package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drivers(t *testing.T) map[string]Store {
	t.Helper()

	file, err := NewFile(t.TempDir())
	require.NoError(t, err)

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	stores := map[string]Store{
		DriverMemory: NewMemory(),
		DriverFile:   file,
		DriverSQLite: db,
	}
	// Postgres runs only against a throwaway database given by
	// TADA_TEST_POSTGRES_DSN.
	if dsn := os.Getenv("TADA_TEST_POSTGRES_DSN"); dsn != "" {
		pg, err := OpenPostgres(context.Background(), dsn)
		require.NoError(t, err)
		_, err = pg.db.Exec(`TRUNCATE kv_entries`)
		require.NoError(t, err)
		t.Cleanup(func() { pg.Close() })
		stores[DriverPostgres] = pg
	}
	return stores
}

func TestStore_ReadWrite(t *testing.T) {
	ctx := context.Background()
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			// Read non-existent key
			val, err := s.Read(ctx, "todos")
			require.NoError(t, err)
			require.Nil(t, val)

			require.NoError(t, s.Write(ctx, "todos", []byte(`[1]`)))
			val, err = s.Read(ctx, "todos")
			require.NoError(t, err)
			require.Equal(t, []byte(`[1]`), val)

			// Shorter value must not leave a tail behind.
			require.NoError(t, s.Write(ctx, "todos", []byte(`[]`)))
			val, err = s.Read(ctx, "todos")
			require.NoError(t, err)
			require.Equal(t, []byte(`[]`), val)

			other, err := s.Read(ctx, "other")
			require.NoError(t, err)
			require.Nil(t, other)
		})
	}
}

func TestStore_UpdateFailureWritesNothing(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Write(ctx, "todos", []byte("before")))

			err := s.Update(ctx, "todos", func(cur []byte) ([]byte, error) {
				assert.Equal(t, []byte("before"), cur)
				return []byte("after"), boom
			})
			require.ErrorIs(t, err, boom)

			val, err := s.Read(ctx, "todos")
			require.NoError(t, err)
			require.Equal(t, []byte("before"), val)
		})
	}
}

func TestStore_ConcurrentUpdatesAreNotLost(t *testing.T) {
	ctx := context.Background()
	const n = 20
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := s.Update(ctx, "counter", func(cur []byte) ([]byte, error) {
						v := 0
						if cur != nil {
							var err error
							if v, err = strconv.Atoi(string(cur)); err != nil {
								return nil, err
							}
						}
						return []byte(strconv.Itoa(v + 1)), nil
					})
					assert.NoError(t, err)
				}()
			}
			wg.Wait()

			val, err := s.Read(ctx, "counter")
			require.NoError(t, err)
			require.Equal(t, strconv.Itoa(n), string(val))
		})
	}
}

func TestStore_InvalidKey(t *testing.T) {
	ctx := context.Background()
	for name, s := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{"", "../escape", `a\b`, ".."} {
				_, err := s.Read(ctx, key)
				assert.ErrorIs(t, err, ErrInvalidKey, key)
				assert.ErrorIs(t, s.Write(ctx, key, nil), ErrInvalidKey, key)
			}
		})
	}
}

func TestFile_LayoutAndEmptyFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s, err := NewFile(dir)
	require.NoError(t, err)

	require.NoError(t, s.Write(ctx, "todos", []byte(`[]`)))
	assert.FileExists(t, filepath.Join(dir, "todos.json"))

	// An empty file reads as absent.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blank.json"), nil, 0o644))
	val, err := s.Read(ctx, "blank")
	require.NoError(t, err)
	assert.Nil(t, val)
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tada.db")

	s1, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s1.Write(ctx, "todos", []byte(`["x"]`)))
	require.NoError(t, s1.Close())

	s2, err := OpenSQLite(path)
	require.NoError(t, err)
	defer s2.Close()
	val, err := s2.Read(ctx, "todos")
	require.NoError(t, err)
	assert.Equal(t, []byte(`["x"]`), val)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, driver := range []string{"", DriverMemory, DriverFile, DriverSQLite, "SQLite"} {
		s, err := Open(Config{Driver: driver, Dir: dir})
		require.NoError(t, err, driver)
		require.NoError(t, s.Close())
	}
	assert.FileExists(t, filepath.Join(dir, DefaultDBName))

	_, err := Open(Config{Driver: "redis"})
	assert.EqualError(t, err, fmt.Sprintf("unknown store driver %q", "redis"))

	_, err = Open(Config{Driver: DriverPostgres})
	assert.EqualError(t, err, "postgres driver needs a dsn")
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemory()
	_, err := s.Read(ctx, "todos")
	assert.ErrorIs(t, err, context.Canceled)
	err = s.Update(ctx, "todos", func([]byte) ([]byte, error) {
		t.Fatal("update ran on a canceled context")
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
