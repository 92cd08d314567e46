package builder

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/qobs-build/titanmk/internal/msg"
	"github.com/qobs-build/titanmk/internal/registry"
)

// workLink is a file the Makefile refers to in a directory other than the
// one it lives in
type workLink struct {
	path   string // where the Makefile expects the file
	target string // the original file
}

// planLinks lists the links symbolic-link mode needs. It must run before the
// registry is relativized; an empty directory stands for wd.
func planLinks(reg *registry.Registry, wd string) []workLink {
	var links []workLink
	add := func(dir, name, location string) {
		if name == "" || location == "" {
			return
		}
		if dir == "" {
			dir = wd
		}
		path := filepath.Join(dir, name)
		if path != filepath.Clean(location) {
			links = append(links, workLink{path: path, target: location})
		}
	}

	for _, coll := range [][]*registry.Module{reg.TTCN3Modules, reg.TTCN3PPModules, reg.ASN1Modules} {
		for _, m := range coll {
			add(m.Dir, m.FileName, m.Location)
		}
	}
	for _, f := range reg.Includes {
		if f.WorkLocation != "" {
			add(filepath.Dir(f.WorkLocation), f.FileName, f.Location)
		}
	}
	for _, n := range reg.UserFiles {
		add(n.Dir, n.Source, n.SourceLocation)
		add(n.Dir, n.Header, n.HeaderLocation)
	}
	return links
}

// createLinks puts every planned link in place. A link already pointing at
// its target is left alone; a stale one is replaced.
func createLinks(links []workLink) error {
	for _, l := range links {
		if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
			return err
		}
		if done, err := linkCurrent(l); err != nil {
			return err
		} else if done {
			continue
		}
		if err := createSymlink(l.target, l.path); err != nil {
			return fmt.Errorf("failed to link %s: %w", l.path, err)
		}
	}
	return nil
}

// linkCurrent reports whether l.path already refers to l.target, clearing
// the way for a new link otherwise
func linkCurrent(l workLink) (bool, error) {
	stat, err := os.Lstat(l.path)
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	if stat.Mode()&os.ModeSymlink != 0 {
		if dest, err := os.Readlink(l.path); err == nil && dest == l.target {
			return true, nil
		}
		return false, os.Remove(l.path)
	}
	if runtime.GOOS == "windows" {
		// a copy made by an earlier run
		return false, os.Remove(l.path)
	}
	msg.Warn("%s exists and is not a link, leaving it in place of %s", l.path, l.target)
	return true, nil
}

// createSymlink links link to target. Windows without developer mode cannot
// create links, so the file is copied there instead.
func createSymlink(target, link string) error {
	err := os.Symlink(target, link)
	if err == nil || runtime.GOOS != "windows" {
		return err
	}
	if err := copyFile(target, link); err != nil {
		return fmt.Errorf("copy fallback failed: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
