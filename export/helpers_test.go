package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	content := strings.TrimSuffix(readFile(t, path), "\n")
	if content == "" {
		return nil
	}
	return strings.Split(content, "\n")
}

func idNameRows() []map[string]any {
	return []map[string]any{
		{"id": 1, "name": "first"},
		{"id": 2, "name": "second"},
	}
}

func idNameColumns(t *testing.T) Columns {
	t.Helper()
	cs, err := ParseColumns("id", "name")
	require.NoError(t, err)
	return cs
}

func seqRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{"n": i + 1}
	}
	return rows
}

func tempOptions(t *testing.T, opts ...Option) []Option {
	return append([]Option{WithDir(filepath.Join(t.TempDir(), "out")), WithFileBaseName("test")}, opts...)
}
