package storage

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoredName(t *testing.T) {
	name := StoredName("../../Memoria Final Ñandú.PDF")
	assert.True(t, strings.HasSuffix(name, "-memoria-final-nandu.pdf"), name)
	assert.NotContains(t, name, "/")
	assert.NotEqual(t, StoredName("a.pdf"), StoredName("a.pdf"))
	assert.True(t, strings.HasSuffix(StoredName(".pdf"), "-file.pdf"))
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "docx", Extension("Plan.DOCX"))
	assert.Equal(t, "", Extension("README"))
}

func TestLocalStore_SaveOpenRemove(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, path, size, err := store.Save("notas.txt", strings.NewReader("hola"), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(4), size)

	f, err := store.Open(path)
	require.NoError(t, err)
	data, _ := io.ReadAll(f)
	f.Close()
	assert.Equal(t, "hola", string(data))

	require.NoError(t, store.Remove(path))
	require.NoError(t, store.Remove(path))
}

func TestLocalStore_TooLarge(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	_, _, _, err = store.Save("big.txt", strings.NewReader("0123456789"), 5)
	assert.True(t, errors.Is(err, ErrFileTooLarge))
}
