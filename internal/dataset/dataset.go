// Package dataset reads and writes the JSON documents exchanged between the
// scene producer and the question synthesizer. Paths ending in ".zst" are
// transparently zstd-compressed.
package dataset

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
)

const zstdExt = ".zst"

// api sorts map keys so identical inputs encode to identical bytes.
var api = sonic.ConfigStd

// IsCompressed reports whether path selects zstd framing.
func IsCompressed(path string) bool {
	return strings.EqualFold(filepath.Ext(path), zstdExt)
}

// ReadFile returns the decoded contents of path, decompressing if needed.
func ReadFile(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !IsCompressed(path) {
		return raw, nil
	}

	r, err := zstd.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("zstd reader %s: %w", path, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decompress %s: %w", path, err)
	}
	return out, nil
}

// WriteFile writes data to path in one piece, compressing if needed. Missing
// parent directories are created.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	if IsCompressed(path) {
		var buf bytes.Buffer
		w, err := zstd.NewWriter(&buf)
		if err != nil {
			return fmt.Errorf("zstd writer %s: %w", path, err)
		}
		if _, err := w.Write(data); err != nil {
			_ = w.Close()
			return fmt.Errorf("compress %s: %w", path, err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("compress %s: %w", path, err)
		}
		data = buf.Bytes()
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadJSON decodes the JSON document at path into v.
func ReadJSON(path string, v any) error {
	data, err := ReadFile(path)
	if err != nil {
		return err
	}
	if err := api.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// WriteJSON encodes v with two-space indentation and writes it to path.
func WriteJSON(path string, v any) error {
	data, err := Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return WriteFile(path, data)
}

// Marshal encodes v the same way WriteJSON does.
func Marshal(v any) ([]byte, error) {
	return api.MarshalIndent(v, "", "  ")
}

// Unmarshal decodes data with the package's JSON settings.
func Unmarshal(data []byte, v any) error {
	return api.Unmarshal(data, v)
}
