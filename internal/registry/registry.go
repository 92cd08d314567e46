// Package registry holds the artifacts of a single Makefile synthesis run.
//
// A Registry is owned by exactly one run: the classifier fills it, the path
// passes rewrite it in place and the generator reads it. It must not be
// shared between concurrent runs.
package registry

import (
	"path/filepath"
	"slices"
	"strings"
)

type Registry struct {
	TTCN3Modules   []*Module
	TTCN3PPModules []*Module
	ASN1Modules    []*Module
	Includes       []*IncludeFragment
	UserFiles      []*NativeArtifact
	OtherFiles     []*MiscFile

	// central storage directories
	BaseDirs []*SharedDirectory
	// additional include directories
	IncludeDirs []*SharedDirectory

	// CentralStorageUsed is set once any artifact is homed in central storage
	CentralStorageUsed bool
	// AllSymlinked is the AND of every visited project's symbolic-link setting
	AllSymlinked bool

	natives map[string]*NativeArtifact
}

func New() *Registry {
	return &Registry{
		AllSymlinked: true,
		natives:      make(map[string]*NativeArtifact),
	}
}

// AddModule files m under the collection for its kind
func (r *Registry) AddModule(m *Module) {
	switch m.Kind {
	case KindTTCN3:
		r.TTCN3Modules = append(r.TTCN3Modules, m)
	case KindTTCN3PP:
		r.TTCN3PPModules = append(r.TTCN3PPModules, m)
	case KindASN1:
		r.ASN1Modules = append(r.ASN1Modules, m)
	default:
		panic("registry: AddModule called with non-module kind " + m.Kind.String())
	}
	r.markHome(m.HomeDir)
}

func (r *Registry) AddInclude(f *IncludeFragment) {
	r.Includes = append(r.Includes, f)
	r.markHome(f.HomeDir)
}

// AddNative records one half of a source/header pair. Halves sharing the
// original directory and file name prefix are merged into one record. When
// that half is already taken, e.g. by port.c next to port.cc, nothing is
// recorded and nil is returned.
func (r *Registry) AddNative(kind Kind, fileName, dir, location, homeDir string) *NativeArtifact {
	if kind != KindSource && kind != KindHeader {
		panic("registry: AddNative called with non-native kind " + kind.String())
	}
	prefix := Stem(fileName)
	key := filepath.Dir(location) + "\x00" + prefix
	n, ok := r.natives[key]
	if ok && (kind == KindSource && n.HasSource() || kind == KindHeader && n.HasHeader()) {
		return nil
	}
	if !ok {
		n = &NativeArtifact{Prefix: prefix, Dir: dir, HomeDir: homeDir}
		r.natives[key] = n
		r.UserFiles = append(r.UserFiles, n)
	}
	if kind == KindSource {
		n.Source, n.SourceLocation = fileName, location
	} else {
		n.Header, n.HeaderLocation = fileName, location
	}
	r.markHome(homeDir)
	return n
}

func (r *Registry) AddMisc(f *MiscFile) {
	r.OtherFiles = append(r.OtherFiles, f)
}

func addDir(dirs []*SharedDirectory, name, p string) ([]*SharedDirectory, *SharedDirectory) {
	name = filepath.Clean(name)
	for _, d := range dirs {
		if d.Name == name {
			if d.Path == "" {
				d.Path = p
			}
			return dirs, d
		}
	}
	d := &SharedDirectory{Name: name, Path: p}
	return append(dirs, d), d
}

// AddBaseDir registers a central storage directory. Registering a name twice
// is a no-op apart from filling in a missing path.
func (r *Registry) AddBaseDir(name, p string) *SharedDirectory {
	var d *SharedDirectory
	r.BaseDirs, d = addDir(r.BaseDirs, name, p)
	return d
}

func (r *Registry) AddIncludeDir(name, p string) *SharedDirectory {
	var d *SharedDirectory
	r.IncludeDirs, d = addDir(r.IncludeDirs, name, p)
	return d
}

// BaseDir looks a central storage directory up by name
func (r *Registry) BaseDir(name string) *SharedDirectory {
	name = filepath.Clean(name)
	for _, d := range r.BaseDirs {
		if d.Name == name {
			return d
		}
	}
	return nil
}

func (r *Registry) markHome(home string) {
	if home == "" {
		return
	}
	r.CentralStorageUsed = true
	if d := r.BaseDir(home); d != nil {
		d.HasModules = true
	}
}

// IsLocal decides whether an artifact with the given home directory is built
// by this project. Once central storage is used anywhere only artifacts
// without a home directory stay local.
func (r *Registry) IsLocal(home string) bool {
	return home == "" || !r.CentralStorageUsed
}

// HasModules reports whether any TTCN-3 or ASN.1 module was found
func (r *Registry) HasModules() bool {
	return len(r.TTCN3Modules)+len(r.TTCN3PPModules)+len(r.ASN1Modules) > 0
}

// Homed is implemented by every artifact that may live in central storage
type Homed interface {
	Home() string
}

// Partition splits items into local and central storage halves
func Partition[T Homed](r *Registry, items []T) (local, base []T) {
	for _, it := range items {
		if r.IsLocal(it.Home()) {
			local = append(local, it)
		} else {
			base = append(base, it)
		}
	}
	return local, base
}

// Sort orders every collection by file name, and central storage directories
// by name, so output does not depend on traversal order.
func (r *Registry) Sort() {
	byModule := func(a, b *Module) int {
		return cmpChain(a.FileName, b.FileName, a.Dir, b.Dir, a.Location, b.Location)
	}
	slices.SortStableFunc(r.TTCN3Modules, byModule)
	slices.SortStableFunc(r.TTCN3PPModules, byModule)
	slices.SortStableFunc(r.ASN1Modules, byModule)
	slices.SortStableFunc(r.Includes, func(a, b *IncludeFragment) int {
		return cmpChain(a.FileName, b.FileName, a.Dir, b.Dir, a.Location, b.Location)
	})
	slices.SortStableFunc(r.UserFiles, func(a, b *NativeArtifact) int {
		return cmpChain(a.Prefix, b.Prefix, a.Dir, b.Dir, a.SourceLocation+a.HeaderLocation, b.SourceLocation+b.HeaderLocation)
	})
	slices.SortStableFunc(r.OtherFiles, func(a, b *MiscFile) int {
		return cmpChain(a.FileName, b.FileName, a.Dir, b.Dir, a.Location, b.Location)
	})
	byDir := func(a, b *SharedDirectory) int { return strings.Compare(a.Name, b.Name) }
	slices.SortStableFunc(r.BaseDirs, byDir)
	// IncludeDirs keep their configured order: -I order decides header lookup.
}

// cmpChain compares pairs of strings in order until one differs
func cmpChain(pairs ...string) int {
	for i := 0; i+1 < len(pairs); i += 2 {
		if c := strings.Compare(pairs[i], pairs[i+1]); c != 0 {
			return c
		}
	}
	return 0
}
