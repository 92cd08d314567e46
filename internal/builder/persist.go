package builder

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/qobs-build/titanmk/internal/msg"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// workspace is the directory tree tracked for the primary project. Files
// written inside it are replaced atomically and reported.
type workspace struct {
	root string
}

func (w workspace) contains(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (w workspace) write(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	old, err := os.ReadFile(path)
	existed := err == nil
	if existed && bytes.Equal(old, data) {
		msg.Info("%s is up to date", path)
		return nil
	}

	tmp, err := os.CreateTemp(dir, ".titanmk-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return err
	}

	if existed {
		msg.Info("Updated %s", path)
	} else {
		msg.Info("Created %s", path)
	}
	return nil
}

// persist writes data to path, through the workspace when the path is
// tracked and straight to the file system otherwise
func persist(ws workspace, path string, data []byte) error {
	if ws.contains(path) {
		return ws.write(path, data)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// lineDiff renders the line changes from old to new, one line per change
// prefixed with "-" or "+". It returns "" when both are equal.
func lineDiff(old, new string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(old, new)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	changed := false
	for _, d := range diffs {
		var prefix string
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		changed = true
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	if !changed {
		return ""
	}
	return sb.String()
}

// diffFile compares data against the file at path; a missing file counts as
// empty
func diffFile(path string, data []byte) (string, error) {
	old, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return lineDiff(string(old), string(data)), nil
}
