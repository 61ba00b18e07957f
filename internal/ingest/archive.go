package ingest

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4"
)

// maxUnpackedBytes caps how much a single compressed upload may expand to.
const maxUnpackedBytes = 64 << 20

// IsArchive reports whether name carries a supported compression suffix.
func IsArchive(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz", ".zip", ".lz4":
		return true
	}
	return false
}

// Unpack decompresses an uploaded archive in memory and returns the inner
// content with the name it should be parsed under. Zip archives yield their
// largest regular file.
func Unpack(name string, r io.Reader) (io.Reader, string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".gz":
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open gzip %s: %w", name, err)
		}
		defer gr.Close()
		data, err := readCapped(gr)
		if err != nil {
			return nil, "", fmt.Errorf("failed to decompress %s: %w", name, err)
		}
		return bytes.NewReader(data), strings.TrimSuffix(name, filepath.Ext(name)), nil

	case ".lz4":
		data, err := readCapped(lz4.NewReader(r))
		if err != nil {
			return nil, "", fmt.Errorf("failed to decompress %s: %w", name, err)
		}
		return bytes.NewReader(data), strings.TrimSuffix(name, filepath.Ext(name)), nil

	case ".zip":
		return unpackZip(name, r)
	}
	return nil, "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
}

func unpackZip(name string, r io.Reader) (io.Reader, string, error) {
	raw, err := readCapped(r)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return nil, "", fmt.Errorf("failed to open zip %s: %w", name, err)
	}

	var largest *zip.File
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if largest == nil || f.UncompressedSize64 > largest.UncompressedSize64 {
			largest = f
		}
	}
	if largest == nil {
		return nil, "", &EmptyDatasetError{Label: name}
	}

	rc, err := largest.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to open %s in %s: %w", largest.Name, name, err)
	}
	defer rc.Close()

	data, err := readCapped(rc)
	if err != nil {
		return nil, "", fmt.Errorf("failed to extract %s: %w", largest.Name, err)
	}
	return bytes.NewReader(data), largest.Name, nil
}

func readCapped(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxUnpackedBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxUnpackedBytes {
		return nil, fmt.Errorf("content exceeds %d bytes", maxUnpackedBytes)
	}
	return data, nil
}
