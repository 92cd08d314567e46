// Package gen renders a finished registry into Makefile text.
//
// The Makefile is assembled from four named sections in a fixed order:
// the header comment, the user-tunable settings, the file lists derived from
// the registry and the rules. Rendering is a pure function of the registry,
// the naming flags and the options.
package gen

import (
	"strings"

	"github.com/qobs-build/titanmk/internal/registry"
)

const (
	SectionHeader   = "header"
	SectionSettings = "settings"
	SectionFiles    = "files"
	SectionTargets  = "targets"
)

// Options are the resolved configuration axes of one Makefile
type Options struct {
	ProjectName string
	Executable  string // without platform suffix
	Platform    string // LINUX, WIN32, ...
	TTCN3Dir    string
	Version     string

	Compiler     string
	Preprocessor string

	GNUMake         bool
	IncrementalDeps bool
	DynamicLinking  bool
	SingleMode      bool
	Runtime2        bool
	Library         bool // default target is the library
	CrossCompile    bool
	CodeSplitting   bool
	// Symlinks holds only when every reachable project uses symbolic links
	Symlinks bool

	CompilerFlags     []string // TTCN-3 compiler
	Defines           []string // -D/-U flags for the C++ preprocessor
	PreprocessorFlags []string // flags for preprocessing .ttcnpp files
	CxxFlags          []string
	LinkerFlags       []string
	Libraries         []string // names passed as -l
	LibraryPaths      []string // directories passed as -L
	AdditionalObjects []string
	PlatformLibs      map[string][]string
}

type Section struct {
	Name string
	Text string
}

type Makefile struct {
	reg    *registry.Registry
	naming registry.Naming
	opts   Options

	sections []Section

	central bool
	hasPP   bool

	ttcn, baseTTCN []*registry.Module
	pp, basePP     []*registry.Module
	asn, baseASN   []*registry.Module
	incl, baseIncl []*registry.IncludeFragment
	user, baseUser []*registry.NativeArtifact
}

func New(reg *registry.Registry, naming registry.Naming, opts Options) *Makefile {
	m := &Makefile{
		reg:     reg,
		naming:  naming,
		opts:    opts,
		central: reg.CentralStorageUsed,
		hasPP:   len(reg.TTCN3PPModules) > 0,
	}
	m.ttcn, m.baseTTCN = registry.Partition(reg, reg.TTCN3Modules)
	m.pp, m.basePP = registry.Partition(reg, reg.TTCN3PPModules)
	m.asn, m.baseASN = registry.Partition(reg, reg.ASN1Modules)
	m.incl, m.baseIncl = registry.Partition(reg, reg.Includes)
	m.user, m.baseUser = registry.Partition(reg, reg.UserFiles)
	return m
}

// Generate renders every section and returns the whole Makefile
func (m *Makefile) Generate() string {
	m.sections = m.sections[:0]
	m.addSection(SectionHeader, m.writeHeader)
	m.addSection(SectionSettings, m.writeSettings)
	m.addSection(SectionFiles, m.writeFiles)
	m.addSection(SectionTargets, m.writeTargets)

	var sb strings.Builder
	for _, s := range m.sections {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

// Sections returns the sections rendered by the last Generate call
func (m *Makefile) Sections() []Section {
	return m.sections
}

func (m *Makefile) addSection(name string, fn func(*strings.Builder)) {
	var sb strings.Builder
	fn(&sb)
	m.sections = append(m.sections, Section{Name: name, Text: sb.String()})
}

// collapse decides whether a file list is written as a suffix substitution
// instead of one entry per file
func (m *Makefile) collapse(regular bool) bool {
	return regular && m.opts.Symlinks && m.opts.GNUMake
}

func (m *Makefile) isWindows() bool {
	return m.opts.Platform == "WIN32"
}

func (m *Makefile) hasModules() bool {
	return m.reg.HasModules()
}

// runtimeRoot is the variable holding the TTCN-3 runtime headers and libraries
func (m *Makefile) runtimeRoot() string {
	if m.opts.CrossCompile {
		return "$(TTCN3_TARGET_DIR)"
	}
	return "$(TTCN3_DIR)"
}

func (m *Makefile) ttcn3Lib() string {
	lib := "ttcn3"
	if m.opts.Runtime2 {
		lib += "-rt2"
	}
	if !m.opts.SingleMode {
		lib += "-parallel"
	}
	if m.opts.DynamicLinking {
		lib += "-dynamic"
	}
	return lib
}

func (m *Makefile) executableName() string {
	if m.isWindows() {
		return m.opts.Executable + ".exe"
	}
	return m.opts.Executable
}

func (m *Makefile) libraryName() string {
	if m.opts.DynamicLinking {
		return "lib" + m.opts.Executable + "_lib.so"
	}
	return "lib" + m.opts.Executable + ".a"
}
