package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	iter "github.com/opdss/csvgrid/iterator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestExport(t *testing.T) {
	ctx := context.Background()
	res, err := Export(ctx, idNameColumns(t), NewCollectionSource(idNameRows()),
		tempOptions(t, WithLogger(zaptest.NewLogger(t)))...)
	require.NoError(t, err)

	f, err := res.SingleFile()
	require.NoError(t, err)
	assert.True(t, f.Closed)
	assert.Equal(t, 2, f.RowCount)
	assert.FileExists(t, f.Path)
	assert.Equal(t, "\"Id\",\"Name\"\n\"1\",\"first\"\n\"2\",\"second\"\n", readFile(t, f.Path))
}

func TestExportMaxEntriesPerFile(t *testing.T) {
	ctx := context.Background()
	res, err := Export(ctx, idNameColumns(t), NewCollectionSource(idNameRows()),
		tempOptions(t, WithMaxEntriesPerFile(1))...)
	require.NoError(t, err)

	files := res.Files()
	require.Len(t, files, 2)
	assert.Equal(t, []string{`"Id","Name"`, `"1","first"`}, readLines(t, files[0].Path))
	assert.Equal(t, []string{`"Id","Name"`, `"2","second"`}, readLines(t, files[1].Path))
	assert.NotEqual(t, files[0].Path, files[1].Path)

	_, err = res.SingleFile()
	assert.True(t, ErrAmbiguousResult.Has(err))
}

func TestExportCapEqualToRows(t *testing.T) {
	ctx := context.Background()
	res, err := Export(ctx, idNameColumns(t), NewCollectionSource(idNameRows()),
		tempOptions(t, WithMaxEntriesPerFile(2))...)
	require.NoError(t, err)
	require.Len(t, res.Files(), 1)
	assert.Equal(t, 2, res.Files()[0].RowCount)
}

func TestExportEmpty(t *testing.T) {
	ctx := context.Background()

	t.Run("header", func(t *testing.T) {
		res, err := Export(ctx, idNameColumns(t), NewCollectionSource([]map[string]any{}),
			tempOptions(t, WithMaxEntriesPerFile(2))...)
		require.NoError(t, err)
		files := res.Files()
		require.Len(t, files, 1)
		assert.Equal(t, 0, files[0].RowCount)
		assert.Equal(t, []string{`"Id","Name"`}, readLines(t, files[0].Path))
	})

	t.Run("no header no footer", func(t *testing.T) {
		res, err := Export(ctx, idNameColumns(t), NewCollectionSource([]map[string]any{}),
			tempOptions(t, WithShowHeader(false), WithShowFooter(false))...)
		require.NoError(t, err)
		files := res.Files()
		require.Len(t, files, 1)
		assert.FileExists(t, files[0].Path)
		assert.Equal(t, "", readFile(t, files[0].Path))
	})

	t.Run("footer only", func(t *testing.T) {
		cs := Columns{{Attribute: "id", Footer: "total"}}
		res, err := Export(ctx, cs, NewRowsSource(nil),
			tempOptions(t, WithShowHeader(false), WithShowFooter(true))...)
		require.NoError(t, err)
		f, err := res.SingleFile()
		require.NoError(t, err)
		assert.Equal(t, []string{`"total"`}, readLines(t, f.Path))
	})
}

func TestExportRowCap(t *testing.T) {
	ctx := context.Background()
	cs := Columns{{Attribute: "n"}}
	for rows := 0; rows <= 7; rows++ {
		for limit := 1; limit <= 4; limit++ {
			t.Run(fmt.Sprintf("rows=%d,cap=%d", rows, limit), func(t *testing.T) {
				res, err := Export(ctx, cs, NewRowsSource(seqRows(rows)),
					tempOptions(t, WithMaxEntriesPerFile(limit))...)
				require.NoError(t, err)

				files := res.Files()
				want := (rows + limit - 1) / limit
				if rows == 0 {
					want = 1
				}
				require.Len(t, files, want)
				for _, f := range files {
					assert.LessOrEqual(t, f.RowCount, limit)
					assert.Len(t, readLines(t, f.Path), f.RowCount+1)
				}
				last := rows % limit
				if rows > 0 && last == 0 {
					last = limit
				}
				assert.Equal(t, last, files[len(files)-1].RowCount)
				assert.Equal(t, rows, res.RowCount())

				// 数据按顺序分布在各文件中
				n := 0
				for _, f := range files {
					for _, line := range readLines(t, f.Path)[1:] {
						n++
						assert.Equal(t, fmt.Sprintf(`"%d"`, n), line)
					}
				}
			})
		}
	}
}

func TestExportUnbounded(t *testing.T) {
	ctx := context.Background()
	for _, limit := range []int{0, -1} {
		res, err := Export(ctx, Columns{{Attribute: "n"}}, NewRowsSource(seqRows(50)),
			tempOptions(t, WithMaxEntriesPerFile(limit))...)
		require.NoError(t, err)
		f, err := res.SingleFile()
		require.NoError(t, err)
		assert.Equal(t, 50, f.RowCount)
	}
}

func TestExportColumnOrder(t *testing.T) {
	ctx := context.Background()
	rows := []Row{{"a": "1", "b": "2", "c": "3"}}
	cs, err := ParseColumns("c", "a", "b")
	require.NoError(t, err)
	res, err := Export(ctx, cs, NewRowsSource(rows), tempOptions(t)...)
	require.NoError(t, err)
	f, err := res.SingleFile()
	require.NoError(t, err)
	assert.Equal(t, []string{`"C","A","B"`, `"3","1","2"`}, readLines(t, f.Path))
}

func TestExportHeaderFooterToggles(t *testing.T) {
	ctx := context.Background()
	cs := Columns{
		{Attribute: "n", Footer: "sum"},
		{Attribute: "m", Header: "M"},
	}
	rows := []Row{{"n": 1, "m": "x"}, {"n": 2, "m": "y"}, {"n": 3, "m": "z"}}

	tests := []struct {
		header, footer bool
		want           []string
	}{
		{true, true, []string{`"N","M"`, `"1","x"`, `"2","y"`, `"sum",""`}},
		{true, false, []string{`"N","M"`, `"1","x"`, `"2","y"`}},
		{false, true, []string{`"1","x"`, `"2","y"`, `"sum",""`}},
		{false, false, []string{`"1","x"`, `"2","y"`}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("header=%v,footer=%v", tt.header, tt.footer), func(t *testing.T) {
			res, err := Export(ctx, cs, NewRowsSource(rows),
				tempOptions(t, WithMaxEntriesPerFile(2), WithShowHeader(tt.header), WithShowFooter(tt.footer))...)
			require.NoError(t, err)
			files := res.Files()
			require.Len(t, files, 2)
			assert.Equal(t, tt.want, readLines(t, files[0].Path))
			assert.Len(t, readLines(t, files[1].Path), len(tt.want)-1)
		})
	}
}

func TestExportPagedQuery(t *testing.T) {
	ctx := context.Background()
	stored := []map[string]any{
		{"id": 1, "name": "first", "number": 1},
		{"id": 2, "name": "second", "number": 2},
		{"id": 3, "name": "third", "number": 3},
	}
	var fetched []int
	source := NewPageQuerySource(func(ctx context.Context, offset, limit int) ([]map[string]any, error) {
		end := offset + limit
		if end > len(stored) {
			end = len(stored)
		}
		if offset >= end {
			return nil, nil
		}
		fetched = append(fetched, end-offset)
		return stored[offset:end], nil
	}, iter.WithPageQueryIteratorLimit[map[string]any](2))

	cs, err := ParseColumns("id", "name", "number")
	require.NoError(t, err)
	res, err := Export(ctx, cs, source, tempOptions(t)...)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1}, fetched)
	f, err := res.SingleFile()
	require.NoError(t, err)
	assert.Equal(t, []string{
		`"Id","Name","Number"`,
		`"1","first","1"`,
		`"2","second","2"`,
		`"3","third","3"`,
	}, readLines(t, f.Path))
}

func TestExportSerialColumnAcrossFiles(t *testing.T) {
	ctx := context.Background()
	cs := Columns{NewSerialColumn(""), {Attribute: "name"}}
	rows := []Row{{"name": "a"}, {"name": "b"}, {"name": "c"}}
	res, err := Export(ctx, cs, NewRowsSource(rows), tempOptions(t, WithMaxEntriesPerFile(2))...)
	require.NoError(t, err)
	files := res.Files()
	require.Len(t, files, 2)
	assert.Equal(t, []string{`"#","Name"`, `"1","a"`, `"2","b"`}, readLines(t, files[0].Path))
	assert.Equal(t, []string{`"#","Name"`, `"3","c"`}, readLines(t, files[1].Path))
}

func TestExportBOM(t *testing.T) {
	ctx := context.Background()
	res, err := Export(ctx, idNameColumns(t), NewCollectionSource(idNameRows()), tempOptions(t, WithBOM())...)
	require.NoError(t, err)
	f, err := res.SingleFile()
	require.NoError(t, err)
	content := readFile(t, f.Path)
	assert.Equal(t, "\xEF\xBB\xBF\"Id\",\"Name\"\n", content[:len("\xEF\xBB\xBF\"Id\",\"Name\"\n")])
}

func TestExportNoColumns(t *testing.T) {
	_, err := Export(context.Background(), nil, NewRowsSource(seqRows(1)), tempOptions(t)...)
	assert.True(t, ErrConfig.Has(err))

	_, err = Export(context.Background(), Columns{{Header: "x"}}, NewRowsSource(seqRows(1)), tempOptions(t)...)
	assert.True(t, ErrConfig.Has(err))
}

func TestExportTwice(t *testing.T) {
	g := New(Columns{{Attribute: "n"}}, NewRowsSource(seqRows(1)), tempOptions(t)...)
	assert.Equal(t, StateIdle, g.State())
	_, err := g.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateDone, g.State())

	_, err = g.Export(context.Background())
	assert.True(t, ErrState.Has(err))
	assert.Equal(t, StateDone, g.State())
}

func TestExportDataSourceError(t *testing.T) {
	boom := errors.New("query failed")
	calls := 0
	source := RowSourceFunc(func(ctx context.Context) (RowBatch, error) {
		calls++
		if calls == 1 {
			return RowBatch(seqRows(3)), nil
		}
		return nil, boom
	})
	var paths []string
	dir := t.TempDir()
	namer := func(i int) (string, error) {
		p := filepath.Join(dir, fmt.Sprintf("part-%d.csv", i))
		paths = append(paths, p)
		return p, nil
	}

	res, err := Export(context.Background(), Columns{{Attribute: "n"}}, source,
		WithNamer(namer), WithMaxEntriesPerFile(2))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, ErrDataSource.Has(err))
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "batch 2")

	// 已关闭的文件保留，失败时打开的文件被关闭并刷新到磁盘
	require.Len(t, paths, 2)
	assert.Equal(t, []string{`"N"`, `"1"`, `"2"`}, readLines(t, paths[0]))
	assert.Equal(t, []string{`"N"`, `"3"`}, readLines(t, paths[1]))
}

func TestExportFailedState(t *testing.T) {
	boom := errors.New("query failed")
	g := New(Columns{{Attribute: "n"}}, RowSourceFunc(func(ctx context.Context) (RowBatch, error) {
		return nil, boom
	}), tempOptions(t)...)
	_, err := g.Export(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, g.State())
	assert.Equal(t, "failed", g.State().String())

	_, err = g.Export(context.Background())
	assert.True(t, ErrState.Has(err))
	assert.Equal(t, StateFailed, g.State())

	g = New(nil, NewRowsSource(seqRows(1)), tempOptions(t)...)
	_, err = g.Export(context.Background())
	assert.True(t, ErrConfig.Has(err))
	assert.Equal(t, StateFailed, g.State())
}

func TestExportIOError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := Export(context.Background(), Columns{{Attribute: "n"}}, NewRowsSource(seqRows(1)),
		WithDir(filepath.Join(blocker, "sub")))
	assert.True(t, ErrIO.Has(err))
}

func TestExportNamerError(t *testing.T) {
	_, err := Export(context.Background(), Columns{{Attribute: "n"}}, NewRowsSource(seqRows(1)),
		WithNamer(func(int) (string, error) { return "", io.ErrClosedPipe }))
	assert.True(t, ErrConfig.Has(err))
}

func TestExportMaxRows(t *testing.T) {
	ctx := context.Background()
	_, err := Export(ctx, Columns{{Attribute: "n"}}, NewRowsSource(seqRows(5)), tempOptions(t, WithMaxRows(4))...)
	assert.ErrorIs(t, err, ErrMaximumLimit)
	assert.True(t, ErrDataSource.Has(err))

	res, err := Export(ctx, Columns{{Attribute: "n"}}, NewRowsSource(seqRows(4)), tempOptions(t, WithMaxRows(4))...)
	require.NoError(t, err)
	assert.Equal(t, 4, res.RowCount())
}

func TestExportCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Export(ctx, Columns{{Attribute: "n"}}, NewRowsSource(seqRows(2)), tempOptions(t)...)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExportCustomFormatter(t *testing.T) {
	upper := FormatterFunc(func(value any, format string) string {
		return fmt.Sprintf("<%v:%s>", value, format)
	})
	res, err := Export(context.Background(), Columns{{Attribute: "n", Format: "text"}}, NewRowsSource(seqRows(1)),
		tempOptions(t, WithFormatter(upper))...)
	require.NoError(t, err)
	f, err := res.SingleFile()
	require.NoError(t, err)
	assert.Equal(t, []string{`"N"`, `"<1:text>"`}, readLines(t, f.Path))
}
