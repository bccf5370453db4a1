package repository

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	".git":         true,
	".svn":         true,
	".hg":          true,
	"node_modules": true,
	".idea":        true,
	".vscode":      true,
}

// File is one candidate source file.
type File struct {
	Path string
	// Ext is the matched extension without the leading dot.
	Ext  string
	Size int64
}

// WalkResult lists the files found under a root.
type WalkResult struct {
	Files []File
	// Oversize lists matching files skipped for exceeding the size limit.
	Oversize []File
}

// Walk collects every file under root whose extension is in exts, in lexical
// order. Files larger than maxSize go to Oversize instead; maxSize <= 0
// disables the limit.
func Walk(ctx context.Context, root string, exts []string, maxSize int64) (*WalkResult, error) {
	clean, err := validateDir(root)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	wanted := make(map[string]string, len(exts))
	for _, e := range exts {
		e = strings.TrimPrefix(e, ".")
		wanted[strings.ToLower(e)] = e
	}

	res := &WalkResult{}
	err = filepath.WalkDir(clean, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != clean && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}

		ext, ok := wanted[strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))]
		if !ok {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		f := File{Path: path, Ext: ext, Size: info.Size()}
		if maxSize > 0 && f.Size > maxSize {
			res.Oversize = append(res.Oversize, f)
			return nil
		}
		res.Files = append(res.Files, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking file tree: %w", err)
	}
	return res, nil
}
