package builder

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/qobs-build/titanmk/internal/msg"
	"github.com/qobs-build/titanmk/internal/registry"
	ignore "github.com/sabhiram/go-gitignore"
)

// classifier walks the reachable projects and files every resource into the
// registry
type classifier struct {
	reg  *registry.Registry
	root *Project
}

func classify(projects []*Project) (*registry.Registry, error) {
	c := &classifier{reg: registry.New(), root: projects[0]}
	for _, p := range projects {
		if err := c.visitProject(p); err != nil {
			return nil, fmt.Errorf("failed to classify project %q: %w", p.Name, err)
		}
	}
	return c.reg, nil
}

// collectDirs expands directory patterns relative to the project into
// absolute paths. A pattern matching a file yields its directory.
func collectDirs(p *Project, patterns []string) ([]string, error) {
	var dirs []string
	seen := map[string]bool{}
	add := func(dir string) {
		dir = filepath.Clean(dir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	fsys := os.DirFS(p.Path)

	for _, pat := range patterns {
		if filepath.IsAbs(pat) {
			add(pat)
			continue
		}
		matches, err := doublestar.Glob(fsys, filepath.ToSlash(pat))
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", pat, err)
		}
		if len(matches) == 0 && !doublestar.ValidatePattern(filepath.ToSlash(pat)) {
			return nil, fmt.Errorf("bad pattern %q", pat)
		}
		if len(matches) == 0 {
			// a plain directory that does not exist yet is kept as written
			if !strings.ContainsAny(pat, "*?[{") {
				add(filepath.Join(p.Path, pat))
			}
			continue
		}
		for _, match := range matches {
			absPath := filepath.Join(p.Path, filepath.FromSlash(match))
			if stat, err := os.Stat(absPath); err == nil && !stat.IsDir() {
				add(filepath.Dir(absPath))
			} else {
				add(absPath)
			}
		}
	}
	return dirs, nil
}

// projectWalk is the per-project state of one walk
type projectWalk struct {
	p         *Project
	wd        string
	home      string // set for a project that is central storage as a whole
	folders   []string
	excluded  map[string]bool
	gitignore *ignore.GitIgnore
}

func (c *classifier) visitProject(p *Project) error {
	w := &projectWalk{
		p:        p,
		wd:       p.WorkingDir(),
		excluded: make(map[string]bool),
	}
	for _, r := range p.Config.Project.ExcludedResources {
		w.excluded[filepath.ToSlash(filepath.Clean(r))] = true
	}
	if len(p.Config.Project.ExcludePatterns) > 0 {
		w.gitignore = ignore.CompileIgnoreLines(p.Config.Project.ExcludePatterns...)
	}

	c.reg.AllSymlinked = c.reg.AllSymlinked && p.Config.Project.Symlinks

	if !p.IsRoot {
		c.reg.AddBaseDir(w.wd, w.wd)
		if p.Config.Project.CentralStorage {
			w.home = w.wd
		}
	}

	folders, err := collectDirs(p, p.Config.Project.CentralStorageFolders)
	if err != nil {
		return err
	}
	for _, f := range folders {
		c.reg.AddBaseDir(f, f)
	}
	w.folders = folders

	includeDirs, err := collectDirs(p, p.Config.Toolchain.IncludeDirs)
	if err != nil {
		return err
	}
	for _, d := range includeDirs {
		c.reg.AddIncludeDir(d, d)
	}

	return filepath.WalkDir(p.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			msg.Warn("skipping inaccessible resource %s: %v", path, err)
			if d != nil && d.IsDir() && path != p.Path {
				return filepath.SkipDir
			}
			return nil
		}
		if path == p.Path {
			return nil
		}
		if w.skip(path, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path == w.wd {
				return filepath.SkipDir
			}
			// a nested project is visited on its own, if referenced
			if _, err := os.Stat(filepath.Join(path, ConfigFilename)); err == nil {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			stat, err := os.Stat(path)
			if err != nil {
				msg.Warn("skipping dangling link %s", path)
				return nil
			}
			if stat.IsDir() || w.linksInside(path) {
				return nil
			}
		} else if !d.Type().IsRegular() {
			return nil
		}
		c.classifyFile(w, path, d.Name())
		return nil
	})
}

// skip reports hidden and excluded resources
func (w *projectWalk) skip(path string, d fs.DirEntry) bool {
	if strings.HasPrefix(d.Name(), ".") {
		return true
	}
	rel, err := filepath.Rel(w.p.Path, path)
	if err != nil {
		return true
	}
	rel = filepath.ToSlash(rel)
	if w.excluded[rel] {
		return true
	}
	if w.gitignore != nil {
		if w.gitignore.MatchesPath(rel) {
			return true
		}
		if d.IsDir() && w.gitignore.MatchesPath(rel+"/") {
			return true
		}
	}
	return false
}

// linksInside reports a link whose target is part of the project itself, such
// as one placed into a central storage folder by an earlier run. The target is
// classified on its own.
func (w *projectWalk) linksInside(path string) bool {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return false
	}
	root, err := filepath.EvalSymlinks(w.p.Path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, target)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// homeOf returns the central storage directory a file belongs to, or ""
func (w *projectWalk) homeOf(path string) string {
	if w.home != "" {
		return w.home
	}
	best := ""
	for _, f := range w.folders {
		rel, err := filepath.Rel(f, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if len(f) > len(best) {
			best = f
		}
	}
	return best
}

func (c *classifier) classifyFile(w *projectWalk, path, name string) {
	kind := registry.KindOf(name)
	dir := filepath.Dir(path)
	home := w.homeOf(path)

	// with symbolic links the Makefile refers to the link in the directory the
	// file is built in
	buildDir := dir
	if w.p.Config.Project.Symlinks {
		buildDir = home
	}

	switch {
	case kind.IsModule():
		moduleName, err := parseModuleName(path, kind)
		if err != nil || moduleName == "" {
			if err == nil {
				err = fmt.Errorf("no module declaration found")
			}
			msg.Warn("%s: cannot determine module name, treating it as an ordinary file: %v", path, err)
			c.reg.AddMisc(&registry.MiscFile{FileName: name, Dir: dir, Location: path})
			return
		}
		c.reg.AddModule(&registry.Module{
			Name:     moduleName,
			FileName: name,
			Kind:     kind,
			Dir:      buildDir,
			HomeDir:  home,
			Location: path,
		})
	case kind == registry.KindTTCN3Include:
		f := &registry.IncludeFragment{FileName: name, Dir: dir, Location: path, HomeDir: home}
		if w.p.Config.Project.Symlinks {
			workDir := home
			if workDir == "" {
				workDir = c.root.WorkingDir()
			}
			f.WorkDir = buildDir
			f.WorkLocation = filepath.Join(workDir, name)
		}
		c.reg.AddInclude(f)
	case kind.IsNative():
		if n := c.reg.AddNative(kind, name, buildDir, path, home); n == nil {
			msg.Warn("%s: another file already provides this half of %s, treating it as an ordinary file", path, registry.Stem(name))
			c.reg.AddMisc(&registry.MiscFile{FileName: name, Dir: dir, Location: path})
		}
	default:
		c.reg.AddMisc(&registry.MiscFile{FileName: name, Dir: dir, Location: path})
	}
}
