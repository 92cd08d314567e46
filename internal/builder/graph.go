package builder

import (
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/qobs-build/titanmk/internal/index"
	"github.com/qobs-build/titanmk/internal/settings"
)

const indexPrefix = "index:"

// Project is a single node (the primary project or a referenced one) in the
// reachable project set
type Project struct {
	Name   string
	Path   string
	Config *Config
	IsRoot bool
}

// WorkingDir is the absolute directory the project's Makefile runs in
func (p *Project) WorkingDir() string {
	wd := p.Config.Project.WorkingDir
	if filepath.IsAbs(wd) {
		return filepath.Clean(wd)
	}
	return filepath.Join(p.Path, wd)
}

// DepsDir is where remote references of the primary project are fetched to
func DepsDir(rootPath string) string {
	return filepath.Join(rootPath, ".titanmk", "deps")
}

// resolveProjects returns the primary project followed by every project
// reachable over [references], breadth first with names in sorted order.
// Each project directory appears once, so reference cycles terminate.
func (b *Builder) resolveProjects() ([]*Project, error) {
	root := &Project{
		Name:   b.cfg.Project.Name,
		Path:   b.basedir,
		Config: b.cfg,
		IsRoot: true,
	}
	projects := []*Project{root}
	seen := map[string]bool{root.Path: true}
	depsDir := DepsDir(b.basedir)

	for i := 0; i < len(projects); i++ {
		parent := projects[i]
		refs := parent.Config.References
		for _, name := range slices.Sorted(maps.Keys(refs)) {
			src, err := b.lookupIndexed(refs[name])
			if err != nil {
				return nil, fmt.Errorf("failed to resolve reference %q of project %q: %w", name, parent.Name, err)
			}
			path, err := resolveReference(src, parent.Path, filepath.Join(depsDir, name))
			if err != nil {
				return nil, fmt.Errorf("failed to resolve reference %q of project %q: %w", name, parent.Name, err)
			}
			path, err = filepath.Abs(path)
			if err != nil {
				return nil, err
			}
			if seen[path] {
				continue
			}
			seen[path] = true

			cfg, err := ParseConfigFromFile(filepath.Join(path, ConfigFilename), NewConfigEnv(path))
			if err != nil {
				return nil, fmt.Errorf("failed to parse config of referenced project %q: %w", name, err)
			}
			projects = append(projects, &Project{
				Name:   cfg.Project.Name,
				Path:   path,
				Config: cfg,
			})
		}
	}

	return projects, nil
}

// lookupIndexed replaces an `index:<name>` source by the source the
// reference index lists for name
func (b *Builder) lookupIndexed(src string) (string, error) {
	name, ok := strings.CutPrefix(src, indexPrefix)
	if !ok {
		return src, nil
	}
	if b.index == nil {
		dir := b.IndexDir
		if dir == "" {
			dir = settings.IndexDir()
		}
		idx, err := index.Load(dir)
		if err != nil {
			return "", err
		}
		b.index = idx
	}
	resolved, ok := b.index.Lookup(name)
	if !ok {
		return "", fmt.Errorf("%q is not in the reference index", name)
	}
	return resolved, nil
}
