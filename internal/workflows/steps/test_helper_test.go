package steps

import (
	"compress/gzip"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeGzip(t *testing.T, path string, contents string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}
