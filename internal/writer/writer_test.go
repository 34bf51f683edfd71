package writer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteFileCreatesIntermediateDirectories(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, WriteFile(dir, "assemblies", "ar/Foo.resources.dll", []byte("hello")))

	data, err := os.ReadFile(filepath.Join(dir, "assemblies", "ar", "Foo.resources.dll"))
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
}

func TestWriteFileLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, WriteFile(dir, "assemblies", "Hello.dll", []byte("x")))

	entries, err := os.ReadDir(filepath.Join(dir, "assemblies"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "Hello.dll", entries[0].Name())
}

func TestInvalidDirPath(t *testing.T) {
	require.Equal(t, filepath.Join("out", "assemblies", "invalid"), InvalidDir("out", "assemblies"))
}
