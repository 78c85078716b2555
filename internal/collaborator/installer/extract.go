package installer

import (
	"archive/tar"
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/yadavnikhil03/scrcpy-gui/internal/collaborator"
)

// ErrEmptyArchive is returned when an archive unpacks to nothing.
var ErrEmptyArchive = errors.New("archive contained no files")

// within joins name under dest, rejecting entries that escape it.
func within(dest, name string) (string, bool) {
	p := filepath.Join(dest, name)
	if !strings.HasPrefix(p, filepath.Clean(dest)+string(os.PathSeparator)) {
		return "", false
	}
	return p, true
}

func extractZip(ctx context.Context, archive, dest string) error {
	reader, err := zip.OpenReader(archive)
	if err != nil {
		return fmt.Errorf("failed to read zip archive: %w", err)
	}
	defer reader.Close()

	for _, file := range reader.File {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("extraction cancelled: %w", err)
		}

		target, ok := within(dest, file.Name)
		if !ok {
			continue
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		src, err := file.Open()
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
		err = writeFile(target, src, file.Mode())
		src.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func extractTarGz(ctx context.Context, archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("failed to open tar.gz: %w", err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("failed to read gzip stream: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("extraction cancelled: %w", err)
		}

		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to extract tar: %w", err)
		}

		target, ok := within(dest, header.Name)
		if !ok {
			continue
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, header.FileInfo().Mode()); err != nil {
				return err
			}
		}
	}
}

// writeFile creates path with at least owner read/write and keeps the
// archived execute bits.
func writeFile(path string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0o600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// place moves the unpacked tree into dest. Release archives hold a single
// versioned root folder, which is unwrapped; otherwise the whole temp
// folder becomes dest.
func place(temp, dest string) error {
	entries, err := os.ReadDir(temp)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return ErrEmptyArchive
	}

	src := temp
	if len(entries) == 1 && entries[0].IsDir() {
		src = filepath.Join(temp, entries[0].Name())
	}

	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	if err := copyTree(src, dest); err != nil {
		return fmt.Errorf("failed to install into %s: %w", dest, err)
	}
	return nil
}

// copyTree copies src into dest, used when a rename crosses devices.
func copyTree(src, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	conf := fastwalk.Config{Follow: false}
	return fastwalk.Walk(&conf, src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil || rel == "." {
			return err
		}
		target := filepath.Join(dest, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		in, err := os.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		return writeFile(target, in, info.Mode())
	})
}

// locateBinary returns the folder under dest holding the scrcpy
// executable, or dest itself when none is found.
func locateBinary(dest string, logger *zap.Logger) string {
	name := collaborator.ExecutableName("scrcpy")
	matches, err := doublestar.Glob(os.DirFS(dest), "**/"+name, doublestar.WithFilesOnly())
	if err != nil || len(matches) == 0 {
		logger.Warn("scrcpy executable not found after install", zap.String("dir", dest), zap.Error(err))
		return dest
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if strings.Count(m, "/") < strings.Count(best, "/") {
			best = m
		}
	}
	return filepath.Join(dest, filepath.FromSlash(path.Dir(best)))
}
