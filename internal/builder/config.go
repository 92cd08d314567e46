package builder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/pelletier/go-toml/v2"
)

// ConfigFilename is the project file every project directory carries
const ConfigFilename = "Titanmk.toml"

var errNoProjectName = errors.New("[project] name is required")

type Config struct {
	Project    ProjectSection    `toml:"project"`
	Makefile   MakefileSection   `toml:"makefile"`
	Toolchain  ToolchainSection  `toml:"toolchain"`
	References map[string]string `toml:"references"`
}

// ProjectSection defines the [project] section
type ProjectSection struct {
	Name                  string   `toml:"name"`
	WorkingDir            string   `toml:"working_dir"`
	Makefile              string   `toml:"makefile"`
	Executable            string   `toml:"executable"`
	Symlinks              bool     `toml:"symlinks"`
	CentralStorage        bool     `toml:"central_storage"`
	CentralStorageFolders []string `toml:"central_storage_folders"`
	ExcludePatterns       []string `toml:"exclude_patterns"`
	ExcludedResources     []string `toml:"excluded_resources"`
}

// MakefileSection defines the [makefile(.*)] section
type MakefileSection struct {
	GNUMake         bool `toml:"gnu_make"`
	IncrementalDeps bool `toml:"incremental_dependencies"`
	DynamicLinking  bool `toml:"dynamic_linking"`
	SingleMode      bool `toml:"single_mode"`
	AbsolutePaths   bool `toml:"absolute_paths"`
	Runtime2        bool `toml:"runtime2"`
	Library         bool `toml:"library"`
	CrossCompile    bool `toml:"cross_compile"`
	CodeSplitting   bool `toml:"code_splitting"`
}

// ToolchainSection defines the [toolchain(.*)] section
type ToolchainSection struct {
	Compiler             string              `toml:"compiler"`
	Preprocessor         string              `toml:"preprocessor"`
	CompilerFlags        []string            `toml:"compiler_flags"`
	IncludeDirs          []string            `toml:"include_dirs"`
	Defines              map[string]string   `toml:"defines"`
	Undefines            []string            `toml:"undefines"`
	PreprocessorIncludes []string            `toml:"preprocessor_includes"`
	PreprocessorDefines  map[string]string   `toml:"preprocessor_defines"`
	CxxFlags             []string            `toml:"cxx_flags"`
	LinkerFlags          []string            `toml:"linker_flags"`
	Libraries            []string            `toml:"libraries"`
	LibraryPaths         []string            `toml:"library_paths"`
	AdditionalObjects    []string            `toml:"additional_objects"`
	PlatformLibs         map[string][]string `toml:"platform_libs"`
}

func defaultConfig() *Config {
	return &Config{
		Project: ProjectSection{
			WorkingDir: "bin",
			Makefile:   "Makefile",
			Symlinks:   true,
		},
		Makefile: MakefileSection{
			GNUMake: true,
		},
	}
}

// decodeTable decodes a generic TOML table into dst with a round trip through
// the encoder. Fields the table does not mention keep their value.
func decodeTable(table, dst any) error {
	b, err := toml.Marshal(table)
	if err != nil {
		return err
	}
	return toml.Unmarshal(b, dst)
}

// overlay applies a matched conditional table on top of dst: lists are
// appended, tables merged key by key, flags can only be switched on and
// other scalars are replaced when set.
func overlay(dst, src reflect.Value) {
	switch dst.Kind() {
	case reflect.Struct:
		for i := range dst.NumField() {
			if dst.Field(i).CanSet() {
				overlay(dst.Field(i), src.Field(i))
			}
		}
	case reflect.Slice:
		if src.Len() > 0 {
			dst.Set(reflect.AppendSlice(dst, src))
		}
	case reflect.Map:
		if src.Len() == 0 {
			return
		}
		if dst.IsNil() {
			dst.Set(reflect.MakeMapWithSize(dst.Type(), src.Len()))
		}
		for it := src.MapRange(); it.Next(); {
			dst.SetMapIndex(it.Key(), it.Value())
		}
	case reflect.Bool:
		if src.Bool() {
			dst.SetBool(true)
		}
	default:
		if !src.IsZero() {
			dst.Set(src)
		}
	}
}

func evalExpr(code string, env ConfigEnv, opts ...expr.Option) (any, error) {
	program, err := expr.Compile(code, append([]expr.Option{expr.Env(env)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return expr.Run(program, env)
}

// conditional is a sub-table such as [toolchain.'target_os == "linux"'] that
// only applies when its expression holds
type conditional struct {
	expression string
	table      map[string]any
}

func (c conditional) holds(env ConfigEnv) (bool, error) {
	out, err := evalExpr(c.expression, env, expr.AsBool())
	if err != nil {
		return false, err
	}
	matched, _ := out.(bool)
	return matched, nil
}

// isCondition tells a conditional sub-table key from a plain nested table
// such as [toolchain.defines]: only keys that compile to a boolean are
// conditions.
func isCondition(key string, env ConfigEnv) bool {
	program, err := expr.Compile(key, expr.Env(env), expr.AsBool())
	return err == nil && program != nil
}

// splitSection separates the plain keys of a section from its conditional
// sub-tables. Conditions are ordered by expression so overrides are stable.
func splitSection(section map[string]any, env ConfigEnv) (map[string]any, []conditional) {
	plain := make(map[string]any, len(section))
	var conds []conditional
	for key, val := range section {
		if table, ok := val.(map[string]any); ok && isCondition(key, env) {
			conds = append(conds, conditional{expression: key, table: table})
			continue
		}
		plain[key] = val
	}
	slices.SortFunc(conds, func(a, b conditional) int {
		return strings.Compare(a.expression, b.expression)
	})
	return plain, conds
}

// decodeSection decodes the named section into dst: its plain keys first,
// then every conditional sub-table that holds, overlaid in order
func decodeSection[T any](raw map[string]any, name string, dst *T, env ConfigEnv) error {
	data, ok := raw[name]
	if !ok {
		return nil
	}
	section, ok := data.(map[string]any)
	if !ok {
		return fmt.Errorf("[%s] must be a table", name)
	}

	plain, conds := splitSection(section, env)
	if len(plain) > 0 {
		if err := decodeTable(plain, dst); err != nil {
			return fmt.Errorf("[%s]: %w", name, err)
		}
	}
	for _, c := range conds {
		matched, err := c.holds(env)
		if err != nil {
			return fmt.Errorf("[%s.'%s']: %w", name, c.expression, err)
		}
		if !matched {
			continue
		}
		var extra T
		if err := decodeTable(c.table, &extra); err != nil {
			return fmt.Errorf("[%s.'%s']: %w", name, c.expression, err)
		}
		overlay(reflect.ValueOf(dst).Elem(), reflect.ValueOf(extra))
	}
	return nil
}

var templateExpr = regexp.MustCompile(`\{\{(.+?)\}\}`)

// expand replaces every {{ expression }} in s by its value
func expand(s string, env ConfigEnv) (string, error) {
	var err error
	out := templateExpr.ReplaceAllStringFunc(s, func(m string) string {
		if err != nil {
			return m
		}
		code := strings.TrimSpace(m[2 : len(m)-2])
		var v any
		if v, err = evalExpr(code, env); err != nil {
			err = fmt.Errorf("{{ %s }}: %w", code, err)
			return m
		}
		return fmt.Sprint(v)
	})
	return out, err
}

// expandAll expands the templates of every string in a decoded document,
// in place
func expandAll(doc any, env ConfigEnv) (any, error) {
	var err error
	switch v := doc.(type) {
	case string:
		return expand(v, env)
	case map[string]any:
		for k, item := range v {
			if v[k], err = expandAll(item, env); err != nil {
				return nil, err
			}
		}
	case []any:
		for i, item := range v {
			if v[i], err = expandAll(item, env); err != nil {
				return nil, err
			}
		}
	}
	return doc, nil
}

func ParseConfig(rdr io.Reader, env ConfigEnv) (*Config, error) {
	var raw map[string]any
	if err := toml.NewDecoder(rdr).Decode(&raw); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, errors.New(derr.String())
		}
		return nil, err
	}
	if _, err := expandAll(raw, env); err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if project, ok := raw["project"]; ok {
		if err := decodeTable(project, &cfg.Project); err != nil {
			return nil, fmt.Errorf("[project]: %w", err)
		}
	}
	if err := decodeSection(raw, "makefile", &cfg.Makefile, env); err != nil {
		return nil, err
	}
	if err := decodeSection(raw, "toolchain", &cfg.Toolchain, env); err != nil {
		return nil, err
	}
	if err := decodeSection(raw, "references", &cfg.References, env); err != nil {
		return nil, err
	}

	if cfg.Project.Name == "" {
		return nil, errNoProjectName
	}
	if cfg.Project.Executable == "" {
		cfg.Project.Executable = cfg.Project.Name
	}

	return cfg, nil
}

// ParseConfigFromFile parses and validates a config file from a filepath
func ParseConfigFromFile(path string, env ConfigEnv) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := ParseConfig(bufio.NewReader(f), env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ConfigEnv is what {{ }} templates and section conditions can refer to
type ConfigEnv struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	Environ    map[string]string `expr:"environ"`
	basedir    string
}

func NewConfigEnv(basedir string) ConfigEnv {
	environ := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			environ[k] = v
		}
	}

	return ConfigEnv{
		TargetOS:   runtime.GOOS,
		TargetArch: runtime.GOARCH,
		Environ:    environ,
		basedir:    basedir,
	}
}

// ReadFile returns the trimmed contents of a file inside the project, e.g.
// `executable = "suite-{{ ReadFile('VERSION') }}"`
func (env ConfigEnv) ReadFile(path string) (string, error) {
	if !filepath.IsLocal(path) {
		return "", fmt.Errorf("%q is not inside the project directory %q", path, env.basedir)
	}
	data, err := os.ReadFile(filepath.Join(env.basedir, path))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
