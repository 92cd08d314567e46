package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/qobs-build/titanmk/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func loadProject(t *testing.T, dir string, root bool) *Project {
	t.Helper()
	cfg, err := ParseConfigFromFile(filepath.Join(dir, ConfigFilename), NewConfigEnv(dir))
	require.NoError(t, err)
	return &Project{Name: cfg.Project.Name, Path: dir, Config: cfg, IsRoot: root}
}

func moduleNames(mods []*registry.Module) []string {
	var names []string
	for _, m := range mods {
		names = append(names, m.Name)
	}
	return names
}

func miscNames(files []*registry.MiscFile) []string {
	var names []string
	for _, f := range files {
		names = append(names, f.FileName)
	}
	return names
}

func suiteTree(t *testing.T, config string) string {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ConfigFilename:        config,
		"src/Main.ttcn":       "module Main {\n}\n",
		"src/Types.asn":       "Types DEFINITIONS ::= BEGIN END\n",
		"src/Pre.ttcnpp":      "#include \"defs.ttcnin\"\nmodule Pre {}\n",
		"src/defs.ttcnin":     "const integer c := 1;\n",
		"src/broken.ttcn":     "not a module\n",
		"native/port.cc":      "",
		"native/port.hh":      "",
		"native/extra.hh":     "",
		"docs/readme.txt":     "",
		".hidden/Hidden.ttcn": "module Hidden {}",
		"bin/Stale.ttcn":      "module Stale {}",
		"nested/Nested.ttcn":  "module Nested {}",
	})
	// a nested project is only visited when referenced
	writeTree(t, filepath.Join(dir, "nested"), map[string]string{
		ConfigFilename: "[project]\nname = \"Nested\"\n",
	})
	return dir
}

func TestClassifySymlinked(t *testing.T) {
	out := captureMessages(t)
	dir := suiteTree(t, "[project]\nname = \"Suite\"\n")
	p := loadProject(t, dir, true)

	reg, err := classify([]*Project{p})
	require.NoError(t, err)
	reg.Sort()

	assert.True(t, reg.AllSymlinked)
	assert.False(t, reg.CentralStorageUsed)
	assert.Equal(t, []string{"Main"}, moduleNames(reg.TTCN3Modules))
	assert.Equal(t, []string{"Pre"}, moduleNames(reg.TTCN3PPModules))
	assert.Equal(t, []string{"Types"}, moduleNames(reg.ASN1Modules))

	main := reg.TTCN3Modules[0]
	assert.Equal(t, "", main.Dir, "symbolic links live in the working directory")
	assert.Equal(t, "", main.HomeDir)
	assert.Equal(t, filepath.Join(dir, "src", "Main.ttcn"), main.Location)

	require.Len(t, reg.Includes, 1)
	inc := reg.Includes[0]
	assert.Equal(t, filepath.Join(dir, "src"), inc.Dir)
	assert.Equal(t, "", inc.WorkDir)
	assert.Equal(t, filepath.Join(dir, "bin", "defs.ttcnin"), inc.WorkLocation)

	require.Len(t, reg.UserFiles, 2)
	extra, port := reg.UserFiles[0], reg.UserFiles[1]
	assert.Equal(t, "port", port.Prefix)
	assert.Equal(t, "port.cc", port.Source)
	assert.Equal(t, "port.hh", port.Header)
	assert.Equal(t, "port.o", port.Object())
	assert.Equal(t, "extra.hh", extra.Header)
	assert.Equal(t, "", extra.Object())

	assert.ElementsMatch(t, []string{ConfigFilename, "broken.ttcn", "readme.txt"}, miscNames(reg.OtherFiles))
	assert.Contains(t, out.String(), "broken.ttcn: cannot determine module name")
}

func TestClassifyCopied(t *testing.T) {
	captureMessages(t)
	dir := suiteTree(t, "[project]\nname = \"Suite\"\nsymlinks = false\n")

	reg, err := classify([]*Project{loadProject(t, dir, true)})
	require.NoError(t, err)
	reg.Sort()

	assert.False(t, reg.AllSymlinked)
	assert.Equal(t, filepath.Join(dir, "src"), reg.TTCN3Modules[0].Dir)
	assert.Equal(t, "", reg.Includes[0].WorkLocation)
	assert.Equal(t, filepath.Join(dir, "native"), reg.UserFiles[1].Dir)
}

func TestClassifyExclusions(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ConfigFilename: `[project]
name = "Suite"
excluded_resources = ["src/Old.ttcn"]
exclude_patterns = ["generated", "*.bak"]
`,
		"src/A.ttcn":           "module A {}",
		"src/Old.ttcn":         "module Old {}",
		"src/A.ttcn.bak":       "",
		"generated/G.ttcn":     "module G {}",
		"src/generated/H.ttcn": "module H {}",
	})

	reg, err := classify([]*Project{loadProject(t, dir, true)})
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, moduleNames(reg.TTCN3Modules))
	assert.Equal(t, []string{ConfigFilename}, miscNames(reg.OtherFiles))
}

func TestClassifyFollowsSymlinks(t *testing.T) {
	out := captureMessages(t)
	dir := t.TempDir()
	elsewhere := t.TempDir()
	writeTree(t, dir, map[string]string{ConfigFilename: "[project]\nname = \"Suite\"\n"})
	writeTree(t, elsewhere, map[string]string{"Linked.ttcn": "module Linked {}"})

	if err := os.Symlink(filepath.Join(elsewhere, "Linked.ttcn"), filepath.Join(dir, "Linked.ttcn")); err != nil {
		t.Skipf("symbolic links unavailable: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(elsewhere, "gone.ttcn"), filepath.Join(dir, "Gone.ttcn")))

	reg, err := classify([]*Project{loadProject(t, dir, true)})
	require.NoError(t, err)

	assert.Equal(t, []string{"Linked"}, moduleNames(reg.TTCN3Modules))
	assert.Contains(t, out.String(), "skipping dangling link")
}

func TestClassifyCentralStorageProject(t *testing.T) {
	root := t.TempDir()
	suite := filepath.Join(root, "Suite")
	base := filepath.Join(root, "Base")
	writeTree(t, suite, map[string]string{
		ConfigFilename: "[project]\nname = \"Suite\"\n",
		"Foo.ttcn":     "module Foo {}",
	})
	writeTree(t, base, map[string]string{
		ConfigFilename:    "[project]\nname = \"Base\"\ncentral_storage = true\n",
		"src/Shared.ttcn": "module Shared {}",
		"src/shared.cc":   "",
	})

	reg, err := classify([]*Project{loadProject(t, suite, true), loadProject(t, base, false)})
	require.NoError(t, err)
	reg.Sort()

	home := filepath.Join(base, "bin")
	assert.True(t, reg.CentralStorageUsed)
	require.Len(t, reg.BaseDirs, 1)
	assert.Equal(t, home, reg.BaseDirs[0].Path)
	assert.True(t, reg.BaseDirs[0].HasModules)

	shared := reg.TTCN3Modules[1]
	assert.Equal(t, "Shared", shared.Name)
	assert.Equal(t, home, shared.HomeDir)
	assert.Equal(t, home, shared.Dir)
	assert.False(t, reg.IsLocal(shared.HomeDir))
	assert.True(t, reg.IsLocal(reg.TTCN3Modules[0].HomeDir))

	require.Len(t, reg.UserFiles, 1)
	assert.Equal(t, filepath.Join(home, "shared.o"), reg.UserFiles[0].Object())
}

func TestClassifyCentralStorageFolders(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ConfigFilename: `[project]
name = "Suite"
symlinks = false
central_storage_folders = ["common", "common/deep"]
`,
		"common/sub/X.ttcn":  "module X {}",
		"common/deep/Y.ttcn": "module Y {}",
		"Z.ttcn":             "module Z {}",
	})

	reg, err := classify([]*Project{loadProject(t, dir, true)})
	require.NoError(t, err)
	reg.Sort()

	homes := map[string]string{}
	for _, m := range reg.TTCN3Modules {
		homes[m.Name] = m.HomeDir
	}
	assert.Equal(t, map[string]string{
		"X": filepath.Join(dir, "common"),
		"Y": filepath.Join(dir, "common", "deep"),
		"Z": "",
	}, homes)
}

func TestCollectDirs(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		"third_party/a/include/a.h": "",
		"third_party/b/include/b.h": "",
		"headers/c.h":               "",
	})
	p := &Project{Path: dir}

	dirs, err := collectDirs(p, []string{
		"third_party/*/include",
		"headers/*.h",
		"missing",
		"third_party/a/include",
		"/abs/include",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "third_party", "a", "include"),
		filepath.Join(dir, "third_party", "b", "include"),
		filepath.Join(dir, "headers"),
		filepath.Join(dir, "missing"),
		filepath.Clean("/abs/include"),
	}, dirs)

	_, err = collectDirs(p, []string{"bad/[pattern"})
	assert.Error(t, err)
}

func TestClassifyIncludeDirsKeepOrder(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ConfigFilename: `[project]
name = "Suite"

[toolchain]
include_dirs = ["z", "a"]
`,
	})

	reg, err := classify([]*Project{loadProject(t, dir, true)})
	require.NoError(t, err)

	var paths []string
	for _, d := range reg.IncludeDirs {
		paths = append(paths, d.Path)
	}
	assert.Equal(t, []string{filepath.Join(dir, "z"), filepath.Join(dir, "a")}, paths)
}

func TestClassifyDuplicateNativeHalf(t *testing.T) {
	out := captureMessages(t)
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ConfigFilename: "[project]\nname = \"Suite\"\nsymlinks = false\n",
		"src/port.c":   "",
		"src/port.cc":  "",
		"src/port.hh":  "",
	})

	reg, err := classify([]*Project{loadProject(t, dir, true)})
	require.NoError(t, err)

	require.Len(t, reg.UserFiles, 1)
	assert.Equal(t, "port.c", reg.UserFiles[0].Source)
	assert.Equal(t, "port.hh", reg.UserFiles[0].Header)
	assert.ElementsMatch(t, []string{ConfigFilename, "port.cc"}, miscNames(reg.OtherFiles))
	assert.Contains(t, out.String(), "port.cc: another file already provides this half of port")
}
