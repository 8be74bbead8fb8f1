// SPDX-License-Identifier: Apache-2.0

// Package schema supplies the SQL dump text a database is initialized from.
// Dumps are external artifacts staged by the packaging layer; this package
// only locates and decodes them.
package schema

import (
	"compress/gzip"
	"io"
	"os"
	"strings"

	"github.com/joomcode/errorx"
	"golang.org/x/text/encoding/unicode"
)

// Source supplies the SQL text for one database. Implementations decide
// where the text comes from and whether it is compressed on disk; readers
// returned by Open always carry plain SQL.
type Source interface {
	// Name identifies the source in logs and step reports.
	Name() string

	// Open returns a reader over plain SQL text. The caller closes it.
	Open() (io.ReadCloser, error)
}

// FileSource reads a dump from the filesystem. If the configured path does
// not exist but a sibling with a .gz suffix does, the sibling is opened and
// decompressed transparently; packages may ship dumps either way.
type FileSource struct {
	path string
}

// NewFileSource validates the dump path and returns a FileSource for it.
func NewFileSource(path string) (*FileSource, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errorx.IllegalArgument.New("dump path cannot be empty")
	}

	return &FileSource{path: path}, nil
}

func (s *FileSource) Name() string {
	return s.path
}

func (s *FileSource) Open() (io.ReadCloser, error) {
	path := s.path
	if _, err := os.Stat(path); os.IsNotExist(err) && !strings.HasSuffix(path, ".gz") {
		path = path + ".gz"
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errorx.DataUnavailable.Wrap(err, "failed to open schema dump %s", s.path)
	}

	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errorx.IllegalFormat.Wrap(err, "failed to decompress schema dump %s", path)
	}

	return &gzipReadCloser{zr: zr, f: f}, nil
}

// gzipReadCloser closes both the decompressor and the underlying file.
type gzipReadCloser struct {
	zr *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) {
	return g.zr.Read(p)
}

func (g *gzipReadCloser) Close() error {
	if err := g.zr.Close(); err != nil {
		_ = g.f.Close()
		return err
	}
	return g.f.Close()
}

// Text reads the full dump and returns it as a string.
// The contents are decoded as UTF-8 before casting so ill-formed bytes never
// reach the database connection.
func Text(src Source) (string, error) {
	r, err := src.Open()
	if err != nil {
		return "", err // already wrapped
	}
	defer func() { _ = r.Close() }()

	data, err := io.ReadAll(r)
	if err != nil {
		return "", errorx.DataUnavailable.Wrap(err, "failed to read schema dump %s", src.Name())
	}

	utf8Data, err := unicode.UTF8.NewDecoder().Bytes(data)
	if err != nil {
		return "", errorx.IllegalFormat.Wrap(err, "failed to decode schema dump %s as UTF-8", src.Name())
	}

	return string(utf8Data), nil
}
