package registry

import "strings"

// JoinPath joins a Makefile directory and a file name. An empty directory is
// the working directory.
func JoinPath(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return strings.TrimRight(dir, "/") + "/" + name
}

// Module is a TTCN-3 or ASN.1 source unit
type Module struct {
	Name     string // declared module name, never empty
	FileName string
	Kind     Kind
	Dir      string // directory the Makefile refers to the source file by
	HomeDir  string // central storage directory holding the generated files, "" when local
	Location string // original absolute path
}

func (m *Module) Home() string { return m.HomeDir }

// Path is the source file as written in the Makefile
func (m *Module) Path() string { return JoinPath(m.Dir, m.FileName) }

// GeneratedBase is the stem of every file the compiler generates for m
func (m *Module) GeneratedBase() string {
	return strings.ReplaceAll(m.Name, "-", "_")
}

// IsRegular reports whether the generated names follow from the file name by
// a single suffix substitution.
func (m *Module) IsRegular() bool {
	return m.FileName == m.GeneratedBase()+m.Kind.CanonicalExt()
}

func (m *Module) generated(ext string, split bool) []string {
	suffixes := GeneratedSuffixes(split)
	names := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		names = append(names, JoinPath(m.HomeDir, m.GeneratedBase()+s+ext))
	}
	return names
}

func (m *Module) GeneratedSources(split bool) []string { return m.generated(ExtGenSource, split) }
func (m *Module) Objects(split bool) []string          { return m.generated(ExtObject, split) }
func (m *Module) SharedObjects(split bool) []string    { return m.generated(ExtShared, split) }
func (m *Module) DepFiles(split bool) []string         { return m.generated(ExtDepend, split) }

// GeneratedHeader is never split
func (m *Module) GeneratedHeader() string {
	return JoinPath(m.HomeDir, m.GeneratedBase()+ExtGenHeader)
}

// PreprocessedPath is where the preprocessor writes a .ttcnpp module to
func (m *Module) PreprocessedPath() string {
	return JoinPath(m.HomeDir, Stem(m.FileName)+ExtTTCN3)
}

// IncludeFragment is a file pulled in by the TTCN-3 preprocessor. In
// symbolic-link mode it also has a working copy linked into the working
// directory.
type IncludeFragment struct {
	FileName     string
	Dir          string
	Location     string
	WorkDir      string
	WorkLocation string
	HomeDir      string
}

func (f *IncludeFragment) Home() string { return f.HomeDir }

func (f *IncludeFragment) Path() string {
	if f.WorkLocation != "" {
		return JoinPath(f.WorkDir, f.FileName)
	}
	return JoinPath(f.Dir, f.FileName)
}

// NativeArtifact is a user C/C++ source and header pair sharing a directory
// and a file name prefix. Either half may be missing.
type NativeArtifact struct {
	Prefix         string
	Dir            string
	HomeDir        string
	Source         string
	Header         string
	SourceLocation string
	HeaderLocation string
}

func (n *NativeArtifact) Home() string { return n.HomeDir }

func (n *NativeArtifact) HasSource() bool { return n.Source != "" }
func (n *NativeArtifact) HasHeader() bool { return n.Header != "" }

func (n *NativeArtifact) SourcePath() string {
	if n.Source == "" {
		return ""
	}
	return JoinPath(n.Dir, n.Source)
}

func (n *NativeArtifact) HeaderPath() string {
	if n.Header == "" {
		return ""
	}
	return JoinPath(n.Dir, n.Header)
}

// Object returns the object file, or "" for a header-only record
func (n *NativeArtifact) Object() string {
	if n.Source == "" {
		return ""
	}
	return JoinPath(n.HomeDir, n.Prefix+ExtObject)
}

func (n *NativeArtifact) SharedObject() string {
	if n.Source == "" {
		return ""
	}
	return JoinPath(n.HomeDir, n.Prefix+ExtShared)
}

func (n *NativeArtifact) DepFile() string {
	if n.Source == "" {
		return ""
	}
	return JoinPath(n.HomeDir, n.Prefix+ExtDepend)
}

// SourceIsRegular holds when the object name is a suffix substitution of the
// source name.
func (n *NativeArtifact) SourceIsRegular() bool {
	return n.Source == "" || n.Source == n.Prefix+ExtSource
}

// HeaderIsRegular holds when the header name is a suffix substitution of the
// source name, which needs both halves.
func (n *NativeArtifact) HeaderIsRegular() bool {
	return n.Source == n.Prefix+ExtSource && n.Header == n.Prefix+ExtHeader
}

// MiscFile is any other file; it is only archived
type MiscFile struct {
	FileName string
	Dir      string
	Location string
}

func (f *MiscFile) Path() string { return JoinPath(f.Dir, f.FileName) }

// SharedDirectory is a central storage or additional include directory.
// Identity is Name; Path is the form written into the Makefile.
type SharedDirectory struct {
	Name       string
	Path       string
	HasModules bool
}
