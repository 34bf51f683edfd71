package xlog

import (
	"bufio"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir, "20260803_000000")
	require.NoError(t, err)
	defer sink.Close()

	sink.Warn("hello", logrus.Fields{"store": "assemblies"})

	data, err := os.ReadFile(filepath.Join(dir, "conversion_log_20260803_000000.txt"))
	require.NoError(t, err)
	require.Contains(t, string(data), "hello")
	require.Contains(t, string(data), "store=assemblies")
}

func TestConcurrentWritesStayLineAtomic(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir, "20260803_000001")
	require.NoError(t, err)
	defer sink.Close()

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sink.Warn("concurrent", logrus.Fields{"i": i})
		}(i)
	}
	wg.Wait()

	f, err := os.Open(filepath.Join(dir, "conversion_log_20260803_000001.txt"))
	require.NoError(t, err)
	defer f.Close()

	lines := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		require.Contains(t, scanner.Text(), "concurrent")
		lines++
	}
	require.Equal(t, n, lines)
}

func TestNewDiscardNeverTouchesDisk(t *testing.T) {
	sink := NewDiscard()
	sink.Info("noop", nil)
	require.NotNil(t, sink.Entry())
}
