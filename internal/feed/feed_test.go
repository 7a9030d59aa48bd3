package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/alkotekaworker/internal/codec"
	"sjsage522/alkotekaworker/internal/item"
)

func product(rpc, title string) item.Product {
	p := item.New()
	p.RPC = rpc
	p.Title = title
	p.Section = []string{"Вино", ""}
	return p
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var docs []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var doc map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &doc))
		docs = append(docs, doc)
	}
	require.NoError(t, scanner.Err())
	return docs
}

func TestExporterWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "items.jsonl")
	e := NewExporter(path, codec.NewFast())
	ctx := context.Background()

	require.NoError(t, e.Write(ctx, product("a", "Вино Кагор")))
	require.NoError(t, e.Write(ctx, product("b", "Пиво, 0.5 Л")))
	require.NoError(t, e.Flush(ctx))

	docs := readLines(t, path)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0]["RPC"])
	assert.Equal(t, "Пиво, 0.5 Л", docs[1]["title"])
	assert.Equal(t, path, e.Path())

	// a second run appends to a fixed path
	require.NoError(t, e.Write(ctx, product("c", "Водка")))
	require.NoError(t, e.Close())
	assert.Len(t, readLines(t, path), 3)
}

func TestExporterTimestampedFiles(t *testing.T) {
	dir := t.TempDir()
	e := NewExporter(filepath.Join(dir, "alkoteka_"+TimestampPlaceholder+".jsonl"), nil)
	e.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	require.NoError(t, e.Write(ctx, product("a", "x")))
	require.NoError(t, e.Flush(ctx))
	assert.Equal(t, filepath.Join(dir, "alkoteka_2024-05-01_10-00-00.jsonl"), e.Path())

	e.now = func() time.Time { return time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC) }
	require.NoError(t, e.Write(ctx, product("b", "y")))
	require.NoError(t, e.Flush(ctx))
	assert.Equal(t, filepath.Join(dir, "alkoteka_2024-05-01_11-00-00.jsonl"), e.Path())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFlushWithoutWritesIsNoop(t *testing.T) {
	e := NewExporter(filepath.Join(t.TempDir(), "none.jsonl"), nil)
	assert.NoError(t, e.Flush(context.Background()))
	assert.Empty(t, e.Path())
}
