// Package feed writes products to JSON-lines files.
package feed

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"sjsage522/alkotekaworker/internal/codec"
	"sjsage522/alkotekaworker/internal/item"
	"sjsage522/alkotekaworker/logger"
)

// TimestampPlaceholder in the output path is replaced when a run's file is opened
const TimestampPlaceholder = "{timestamp}"

// Exporter appends one JSON document per product to a file. The file is
// opened on the first write of a run and closed by Flush, so a path with
// TimestampPlaceholder yields one file per run.
type Exporter struct {
	pathTemplate string
	codec        codec.Codec
	log          *logger.Logger
	now          func() time.Time

	mu    sync.Mutex
	path  string
	file  *os.File
	buf   *bufio.Writer
	count int
}

// NewExporter creates an exporter for pathTemplate
func NewExporter(pathTemplate string, c codec.Codec) *Exporter {
	if c == nil {
		c = codec.Std{}
	}
	return &Exporter{
		pathTemplate: pathTemplate,
		codec:        c,
		log:          logger.ForFeed(),
		now:          time.Now,
	}
}

func (e *Exporter) Name() string { return "feed" }

// Path returns the file of the current or last run
func (e *Exporter) Path() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path
}

func (e *Exporter) Write(_ context.Context, p item.Product) error {
	data, err := e.codec.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode product %s: %w", p.Key(), err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.file == nil {
		if err := e.open(); err != nil {
			return err
		}
	}
	if _, err := e.buf.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", e.path, err)
	}
	if err := e.buf.WriteByte('\n'); err != nil {
		return fmt.Errorf("write %s: %w", e.path, err)
	}
	e.count++
	return nil
}

// Flush closes the file of the current run
func (e *Exporter) Flush(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.file == nil {
		return nil
	}
	flushErr := e.buf.Flush()
	closeErr := e.file.Close()
	e.file, e.buf = nil, nil

	if flushErr != nil {
		return fmt.Errorf("flush %s: %w", e.path, flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close %s: %w", e.path, closeErr)
	}

	e.log.Info().Str("file", e.path).Int("count", e.count).Msg("Exported products")
	e.count = 0
	return nil
}

func (e *Exporter) Close() error {
	return e.Flush(context.Background())
}

func (e *Exporter) open() error {
	path := strings.ReplaceAll(e.pathTemplate, TimestampPlaceholder, e.now().Format("2006-01-02_15-04-05"))
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	e.path, e.file, e.buf = path, f, bufio.NewWriter(f)
	return nil
}
