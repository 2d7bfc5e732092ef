package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*FileStore)(nil)
)

// storesUnderTest builds each Store implementation against a fresh backend.
func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return map[string]Store{
		"memory": NewInMemoryStore(),
		"file":   fs,
	}
}

func TestStore_PersistGetRoundTrip(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Persist("outline.txt", []byte("the outline")))
			got, err := store.Get("outline.txt")
			require.NoError(t, err)
			assert.Equal(t, "the outline", string(got))
		})
	}
}

func TestStore_GetMissing(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get("nope.txt")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_OverwriteBeforeFinalize(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Persist("story_01.txt", []byte("draft one")))
			require.NoError(t, store.Persist("story_01.txt", []byte("draft two")))
			got, err := store.Get("story_01.txt")
			require.NoError(t, err)
			assert.Equal(t, "draft two", string(got))
		})
	}
}

func TestStore_FinalizeMakesImmutable(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Persist("story_01.txt", []byte("final text")))
			require.NoError(t, store.Finalize("story_01.txt"))

			// Identical content is an idempotent no-op.
			require.NoError(t, store.Persist("story_01.txt", []byte("final text")))

			// Different content is rejected and the original survives.
			err := store.Persist("story_01.txt", []byte("tampered"))
			assert.ErrorIs(t, err, ErrImmutableArtifact)

			got, err := store.Get("story_01.txt")
			require.NoError(t, err)
			assert.Equal(t, "final text", string(got))
		})
	}
}

func TestStore_FinalizeMissing(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, store.Finalize("ghost.txt"), ErrNotFound)
		})
	}
}

func TestStore_List(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Persist("story_02.txt", []byte("b")))
			require.NoError(t, store.Persist("outline.txt", []byte("a")))
			names, err := store.List()
			require.NoError(t, err)
			assert.Equal(t, []string{"outline.txt", "story_02.txt"}, names)
		})
	}
}

func TestInMemoryStore_Isolation(t *testing.T) {
	store := NewInMemoryStore()
	data := []byte("hello")
	require.NoError(t, store.Persist("a.txt", data))
	data[0] = 'H'

	got, err := store.Get("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))

	got[0] = 'x'
	again, err := store.Get("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(again))
}

func TestFileStore_NoTempFilesLeftBehind(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Persist("story_01.txt", []byte("content")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "story_01.txt", entries[0].Name())
}

func TestFileStore_ListExcludesTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Persist("story_01.txt", []byte("content")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "story_01.txt.tmp-123"), []byte("junk"), 0o644))

	names, err := store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"story_01.txt"}, names)
}

func TestStore_ConcurrentPersist(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					name := fmt.Sprintf("story_%02d.txt", i)
					if err := store.Persist(name, []byte(name)); err != nil {
						t.Error(err)
					}
				}(i)
			}
			wg.Wait()

			names, err := store.List()
			require.NoError(t, err)
			assert.Len(t, names, 8)
		})
	}
}

func TestFileStore_ImmutableErrorIsDistinguishable(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Persist("s.txt", []byte("x")))
	require.NoError(t, store.Finalize("s.txt"))

	err = store.Persist("s.txt", []byte("y"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrImmutableArtifact))
	assert.False(t, errors.Is(err, ErrNotFound))
}
