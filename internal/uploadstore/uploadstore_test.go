package uploadstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store := New(dir)

	data := []byte("%PDF-1.7 test")
	fileID, savedName, err := store.Save("facture 2026/08.pdf", data)
	require.NoError(t, err)

	_, err = uuid.Parse(fileID)
	assert.NoError(t, err, "file ID should be a UUID")

	// spaces and separators are dropped from the original name
	assert.Equal(t, fileID+"_facture202608.pdf", savedName)

	written, err := os.ReadFile(filepath.Join(dir, savedName))
	require.NoError(t, err)
	assert.Equal(t, data, written)
}

func TestSave_UniqueNames(t *testing.T) {
	store := New(t.TempDir())

	_, first, err := store.Save("doc.pdf", []byte("a"))
	require.NoError(t, err)
	_, second, err := store.Save("doc.pdf", []byte("b"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"devis.pdf", "devis.pdf"},
		{"mon devis 2026.pdf", "mondevis2026.pdf"},
		{"../../../etc/passwd.pdf", "......etcpasswd.pdf"},
		{"Déjà_vu-final.pdf", "Déjà_vu-final.pdf"},
		{"rapport (v2)!.pdf", "rapportv2.pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeName(tt.in))
		})
	}
}

func TestSave_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	store := New(dir)

	_, _, err := store.Save("doc.pdf", []byte("x"))
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestSavedNameHasNoSeparators(t *testing.T) {
	store := New(t.TempDir())

	_, savedName, err := store.Save(`..\windows\system32\doc.pdf`, []byte("x"))
	require.NoError(t, err)
	assert.False(t, strings.ContainsAny(savedName, `/\`))
}
