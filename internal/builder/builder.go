package builder

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/qobs-build/titanmk/internal/builder/gen"
	"github.com/qobs-build/titanmk/internal/index"
	"github.com/qobs-build/titanmk/internal/msg"
	"github.com/qobs-build/titanmk/internal/registry"
	"github.com/qobs-build/titanmk/internal/settings"
)

// Version is written into the header of every generated Makefile
const Version = "0.1.0"

const (
	DialectGNU   = "gnu"
	DialectPOSIX = "posix"
)

const (
	platformLinux   = "LINUX"
	platformWindows = "WIN32"
	platformFreeBSD = "FREEBSD"
	platformSolaris = "SOLARIS"
	platformDarwin  = "DARWIN"
)

var errNoTTCN3Dir = errors.New("the TTCN-3 toolchain location is unknown: set TTCN3_DIR or ttcn3_dir in the settings file")

// platformOf maps a GOOS value to the PLATFORM the Makefile is written for
func platformOf(goos string) string {
	switch goos {
	case "windows":
		return platformWindows
	case "freebsd":
		return platformFreeBSD
	case "solaris", "illumos":
		return platformSolaris
	case "darwin":
		return platformDarwin
	default:
		return platformLinux
	}
}

type Builder struct {
	cfg      *Config
	basedir  string
	env      ConfigEnv
	settings settings.Settings

	// HostOS selects the target platform; runtime.GOOS when empty
	HostOS string
	// Dialect overrides [makefile] gnu_make when set
	Dialect string
	// IndexDir holds the reference index; settings.IndexDir() when empty
	IndexDir string

	index *index.Index
}

func NewBuilderInDirectory(path string, s settings.Settings) (*Builder, error) {
	var err error
	path, err = filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	env := NewConfigEnv(path)
	cfg, err := ParseConfigFromFile(filepath.Join(path, ConfigFilename), env)
	if err != nil {
		return nil, err
	}
	return &Builder{cfg: cfg, basedir: path, env: env, settings: s}, nil
}

func (b *Builder) Config() *Config { return b.cfg }

// WorkingDir is the directory the primary project's Makefile runs in
func (b *Builder) WorkingDir() string {
	return (&Project{Path: b.basedir, Config: b.cfg}).WorkingDir()
}

// MakefilePath is where the Makefile is persisted
func (b *Builder) MakefilePath() string {
	mk := b.cfg.Project.Makefile
	if filepath.IsAbs(mk) {
		return filepath.Clean(mk)
	}
	return filepath.Join(b.WorkingDir(), mk)
}

func (b *Builder) platform() string {
	if b.HostOS != "" {
		return platformOf(b.HostOS)
	}
	return platformOf(runtime.GOOS)
}

// checkEnvironment fails when the platform needs an emulation layer that is
// not installed
func (b *Builder) checkEnvironment() error {
	if b.platform() != platformWindows {
		return nil
	}
	stat, err := os.Stat(b.settings.CygwinDir)
	if err != nil || !stat.IsDir() {
		return fmt.Errorf("Cygwin is required on Windows but was not found at %q (set cygwin_dir)", b.settings.CygwinDir)
	}
	return nil
}

// Classify resolves the reachable projects and classifies their resources
func (b *Builder) Classify() (*registry.Registry, []*Project, error) {
	projects, err := b.resolveProjects()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve referenced projects: %w", err)
	}
	reg, err := classify(projects)
	if err != nil {
		return nil, nil, err
	}
	return reg, projects, nil
}

// Synthesize builds the Makefile in memory. Nothing is written.
func (b *Builder) Synthesize() ([]byte, error) {
	data, _, err := b.synthesize()
	return data, err
}

// synthesize also returns the links the Makefile expects in its working
// directories
func (b *Builder) synthesize() ([]byte, []workLink, error) {
	if err := b.checkEnvironment(); err != nil {
		return nil, nil, err
	}

	reg, projects, err := b.Classify()
	if err != nil {
		return nil, nil, err
	}

	opts, err := b.resolveOptions(projects)
	if err != nil {
		return nil, nil, err
	}
	opts.Symlinks = reg.AllSymlinked

	mkPath := b.MakefilePath()
	reg.AddMisc(&registry.MiscFile{
		FileName: filepath.Base(mkPath),
		Dir:      filepath.Dir(mkPath),
		Location: mkPath,
	})

	wd := b.WorkingDir()
	links := planLinks(reg, wd)
	if !b.cfg.Makefile.AbsolutePaths {
		relativize(reg, wd)
	}
	platformize(reg, opts.Platform)

	if err := validatePaths(reg); err != nil {
		return nil, nil, err
	}

	naming := reg.DetectNaming()
	reg.Sort()

	return []byte(gen.New(reg, naming, opts).Generate()), links, nil
}

// Generate synthesizes the Makefile, persists it and links the files it
// refers to into place, returning its path
func (b *Builder) Generate() (string, error) {
	data, links, err := b.synthesize()
	if err != nil {
		return "", err
	}
	path := b.MakefilePath()
	if err := persist(workspace{root: b.WorkingDir()}, path, data); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := createLinks(links); err != nil {
		return "", err
	}
	return path, nil
}

// Diff synthesizes the Makefile and returns its line changes against the
// persisted one
func (b *Builder) Diff() (string, error) {
	data, err := b.Synthesize()
	if err != nil {
		return "", err
	}
	return diffFile(b.MakefilePath(), data)
}

// Invoke runs make on the persisted Makefile
func (b *Builder) Invoke(args []string) error {
	cmd := exec.Command("make", append([]string{"-C", b.WorkingDir(), "-f", b.MakefilePath()}, args...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}

// resolveOptions turns the configuration of the primary project and the
// toolchain settings of every reachable project into generator options
func (b *Builder) resolveOptions(projects []*Project) (gen.Options, error) {
	if b.settings.TTCN3Dir == "" {
		return gen.Options{}, errNoTTCN3Dir
	}

	mk := b.cfg.Makefile
	switch b.Dialect {
	case DialectGNU:
		mk.GNUMake = true
	case DialectPOSIX:
		mk.GNUMake = false
	case "":
	default:
		return gen.Options{}, fmt.Errorf("unknown make dialect %q", b.Dialect)
	}

	platform := b.platform()
	if mk.IncrementalDeps && !mk.GNUMake {
		msg.Warn("incremental dependencies need GNU make, turning them off")
		mk.IncrementalDeps = false
	}
	if mk.DynamicLinking && platform == platformWindows {
		msg.Warn("dynamic linking is not supported on %s, linking statically", platform)
		mk.DynamicLinking = false
	}

	tc := aggregateToolchain(projects)

	compiler := b.cfg.Toolchain.Compiler
	if compiler == "" {
		compiler = findCompiler(b.settings.Cxx)
		msg.Warn("no C++ compiler configured, using %s", compiler)
	}
	preprocessor := b.cfg.Toolchain.Preprocessor
	if preprocessor == "" {
		preprocessor = fallbackPreprocessor
		msg.Warn("no preprocessor configured, using %s", preprocessor)
	}

	pathForm := func(p *Project, path string) string {
		return b.pathForm(p, path, platform)
	}

	opts := gen.Options{
		ProjectName:     b.cfg.Project.Name,
		Executable:      b.cfg.Project.Executable,
		Platform:        platform,
		TTCN3Dir:        b.settings.TTCN3Dir,
		Version:         Version,
		Compiler:        compiler,
		Preprocessor:    preprocessor,
		GNUMake:         mk.GNUMake,
		IncrementalDeps: mk.IncrementalDeps,
		DynamicLinking:  mk.DynamicLinking,
		SingleMode:      mk.SingleMode,
		Runtime2:        mk.Runtime2,
		Library:         mk.Library,
		CrossCompile:    mk.CrossCompile,
		CodeSplitting:   mk.CodeSplitting,
		CompilerFlags:   tc.compilerFlags,
		Defines:         append(defineFlags(tc.defines), prefixAll("-U", tc.undefines)...),
		CxxFlags:        tc.cxxFlags,
		LinkerFlags:     tc.linkerFlags,
		Libraries:       tc.libraries,
		PlatformLibs:    tc.platformLibs,
	}
	for _, inc := range tc.ppIncludes {
		opts.PreprocessorFlags = appendUnique(opts.PreprocessorFlags, "-I"+pathForm(inc.project, inc.value))
	}
	opts.PreprocessorFlags = append(opts.PreprocessorFlags, defineFlags(tc.ppDefines)...)
	for _, lp := range tc.libraryPaths {
		opts.LibraryPaths = appendUnique(opts.LibraryPaths, pathForm(lp.project, lp.value))
	}
	for _, obj := range tc.additionalObjects {
		opts.AdditionalObjects = appendUnique(opts.AdditionalObjects, pathForm(obj.project, obj.value))
	}
	return opts, nil
}

// pathForm writes a path from a project's configuration the way the
// Makefile refers to files
func (b *Builder) pathForm(p *Project, path, platform string) string {
	if !filepath.IsAbs(path) {
		path = filepath.Join(p.Path, path)
	}
	if !b.cfg.Makefile.AbsolutePaths {
		path = relPath(b.WorkingDir(), path)
	}
	if platform == platformWindows {
		return cygwinPath(path)
	}
	return filepath.ToSlash(path)
}

// projectValue is a configured path together with the project it is
// relative to
type projectValue struct {
	project *Project
	value   string
}

type toolchain struct {
	compilerFlags     []string
	defines           map[string]string
	undefines         []string
	ppIncludes        []projectValue
	ppDefines         map[string]string
	cxxFlags          []string
	linkerFlags       []string
	libraries         []string
	libraryPaths      []projectValue
	additionalObjects []projectValue
	platformLibs      map[string][]string
}

// aggregateToolchain collects the [toolchain] settings of every project in
// reachable order, dropping repeated values
func aggregateToolchain(projects []*Project) toolchain {
	tc := toolchain{
		defines:      map[string]string{},
		ppDefines:    map[string]string{},
		platformLibs: map[string][]string{},
	}
	addValues := func(dst []projectValue, p *Project, values []string) []projectValue {
		for _, v := range values {
			pv := projectValue{project: p, value: v}
			if !slices.ContainsFunc(dst, func(o projectValue) bool { return o.value == v }) {
				dst = append(dst, pv)
			}
		}
		return dst
	}

	for _, p := range projects {
		t := p.Config.Toolchain
		tc.compilerFlags = appendUnique(tc.compilerFlags, t.CompilerFlags...)
		tc.undefines = appendUnique(tc.undefines, t.Undefines...)
		tc.cxxFlags = appendUnique(tc.cxxFlags, t.CxxFlags...)
		tc.linkerFlags = appendUnique(tc.linkerFlags, t.LinkerFlags...)
		tc.libraries = appendUnique(tc.libraries, t.Libraries...)
		tc.ppIncludes = addValues(tc.ppIncludes, p, t.PreprocessorIncludes)
		tc.libraryPaths = addValues(tc.libraryPaths, p, t.LibraryPaths)
		tc.additionalObjects = addValues(tc.additionalObjects, p, t.AdditionalObjects)
		// the first project to define a macro wins
		for k, v := range t.Defines {
			if _, ok := tc.defines[k]; !ok {
				tc.defines[k] = v
			}
		}
		for k, v := range t.PreprocessorDefines {
			if _, ok := tc.ppDefines[k]; !ok {
				tc.ppDefines[k] = v
			}
		}
		for platform, libs := range t.PlatformLibs {
			tc.platformLibs[platform] = appendUnique(tc.platformLibs[platform], libs...)
		}
	}
	return tc
}

func appendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if v != "" && !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}

func prefixAll(prefix string, values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, prefix+v)
	}
	return out
}

// defineFlags renders macros as -D flags in name order
func defineFlags(defines map[string]string) []string {
	var flags []string
	for _, name := range slices.Sorted(maps.Keys(defines)) {
		if v := defines[name]; v != "" {
			flags = append(flags, "-D"+name+"="+v)
		} else {
			flags = append(flags, "-D"+name)
		}
	}
	return flags
}
