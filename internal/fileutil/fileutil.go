package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteAtomic writes a file by streaming into a temporary sibling and renaming
// it over path once write succeeds. Readers never observe a partial file.
func WriteAtomic(path string, mode os.FileMode, write func(f *os.File) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename into place: %w", err)
	}
	committed = true
	return nil
}

// WriteFileAtomic is WriteAtomic for an in-memory payload.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	return WriteAtomic(path, mode, func(f *os.File) error {
		_, err := f.Write(data)
		return err
	})
}

// Exists reports whether path names an existing regular file.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// CopyFileVerified streams src to dst with SHA256 + size integrity verification.
// dst is written atomically and never left behind on mismatch.
func CopyFileVerified(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	return WriteAtomic(dst, 0o644, func(out *os.File) error {
		srcHasher := sha256.New()
		dstHasher := sha256.New()
		written, err := io.Copy(io.MultiWriter(out, dstHasher), io.TeeReader(in, srcHasher))
		if err != nil {
			return err
		}
		if written != srcInfo.Size() {
			return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcInfo.Size(), written)
		}
		if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
			return fmt.Errorf("copy hash mismatch: file corrupted during copy")
		}
		return nil
	})
}
