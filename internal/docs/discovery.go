// Package docs discovers the documents and assets of a source tree.
package docs

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"git.home.luguber.info/inful/remotevalues/internal/config"
	derrors "git.home.luguber.info/inful/remotevalues/internal/docs/errors"
	"git.home.luguber.info/inful/remotevalues/internal/logfields"
)

// DocFile is a discovered document or asset.
type DocFile struct {
	Path         string // Absolute path to the file
	RelativePath string // Slash-separated path relative to the source root
	Extension    string // Lowercased file extension
	IsAsset      bool   // True for files that are copied verbatim
}

// LoadContent reads the file.
func (df DocFile) LoadContent() ([]byte, error) {
	content, err := os.ReadFile(df.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrFileReadFailed, df.RelativePath, err)
	}
	return content, nil
}

// Discovery walks source trees.
type Discovery struct {
	extensions []string
}

// NewDiscovery returns a Discovery that treats files with the configured
// extensions as documents.
func NewDiscovery(cfg config.BuildConfig) *Discovery {
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = config.DefaultExtensions
	}
	lowered := make([]string, 0, len(exts))
	for _, e := range exts {
		lowered = append(lowered, strings.ToLower(e))
	}
	return &Discovery{extensions: lowered}
}

// IsDocument reports whether name has a document extension.
func (d *Discovery) IsDocument(name string) bool {
	return slices.Contains(d.extensions, strings.ToLower(filepath.Ext(name)))
}

// Discover returns every document and asset under root sorted by relative path.
// Hidden entries and node_modules are skipped.
func (d *Discovery) Discover(root string) ([]DocFile, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", derrors.ErrDirWalkFailed, err)
	}
	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", derrors.ErrSourceNotFound, root)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", derrors.ErrDirWalkFailed, err)
	case !info.IsDir():
		return nil, fmt.Errorf("%w: %s", derrors.ErrSourceNotDir, root)
	}

	var files []DocFile
	err = filepath.WalkDir(abs, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == abs {
			return nil
		}
		if SkipName(entry.Name()) {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(abs, path)
		if err != nil {
			return err
		}
		file := DocFile{
			Path:         path,
			RelativePath: filepath.ToSlash(rel),
			Extension:    strings.ToLower(filepath.Ext(path)),
			IsAsset:      !d.IsDocument(path),
		}
		files = append(files, file)

		slog.Debug("Discovered file", logfields.File(file.RelativePath), slog.Bool("asset", file.IsAsset))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", derrors.ErrDirWalkFailed, root, err)
	}

	slices.SortFunc(files, func(a, b DocFile) int { return strings.Compare(a.RelativePath, b.RelativePath) })
	return files, nil
}

// SkipName reports whether a file or directory name is excluded from discovery.
func SkipName(name string) bool {
	return strings.HasPrefix(name, ".") || name == "node_modules"
}

// Documents filters files down to documents.
func Documents(files []DocFile) []DocFile {
	var out []DocFile
	for _, f := range files {
		if !f.IsAsset {
			out = append(out, f)
		}
	}
	return out
}
