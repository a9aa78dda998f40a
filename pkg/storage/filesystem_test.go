package storage

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("timetable_all.csv", []byte("Day,Start,End\n"))
	require.NoError(t, err)
	assert.Equal(t, "timetable_all.csv", name)

	file, err := store.Open(name)
	require.NoError(t, err)
	defer file.Close()

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "Day,Start,End\n", string(content))
}

func TestLocalStorageRejectsPathEscape(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	for _, name := range []string{"../outside.csv", "/etc/passwd", "sub/dir.csv", "."} {
		_, err := store.Save(name, []byte("x"))
		assert.Error(t, err, "name %q must be rejected", name)
		_, err = store.Open(name)
		assert.Error(t, err, "name %q must be rejected", name)
	}
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("fresh.csv", []byte("x"))
	require.NoError(t, err)

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)
	assert.Empty(t, deleted)

	// A negative age puts the cutoff in the future, so everything goes.
	deleted, err = store.CleanupOlderThan(-time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh.csv"}, deleted)
}
