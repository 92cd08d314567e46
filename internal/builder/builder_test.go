package builder

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/qobs-build/titanmk/internal/index"
	"github.com/qobs-build/titanmk/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const suiteConfig = `[project]
name = "Suite"

[toolchain]
compiler = "g++"
preprocessor = "cpp"
`

var copyModeConfig = strings.Replace(suiteConfig, "name = \"Suite\"\n", "name = \"Suite\"\nsymlinks = false\n", 1)

func newTestBuilder(t *testing.T, dir string) *Builder {
	t.Helper()
	b, err := NewBuilderInDirectory(dir, settings.Settings{TTCN3Dir: "/opt/titan"})
	require.NoError(t, err)
	b.HostOS = "linux"
	b.IndexDir = t.TempDir()
	return b
}

// makeVar returns the value of the `NAME = ...` assignment in a Makefile
func makeVar(t *testing.T, makefile, name string) string {
	t.Helper()
	for _, line := range strings.Split(makefile, "\n") {
		if line == name+" =" {
			return ""
		}
		if v, ok := strings.CutPrefix(line, name+" = "); ok {
			return v
		}
	}
	require.Failf(t, "variable not found", "%s is not assigned", name)
	return ""
}

func synthesize(t *testing.T, b *Builder) string {
	t.Helper()
	data, err := b.Synthesize()
	require.NoError(t, err)
	return string(data)
}

func TestGenerateRegularModule(t *testing.T) {
	out := captureMessages(t)
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ConfigFilename: suiteConfig,
		"src/Foo.ttcn": "module Foo {}",
	})

	b := newTestBuilder(t, dir)
	path, err := b.Generate()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "bin", "Makefile"), path)
	assert.Contains(t, out.String(), "Created "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	mk := string(data)
	assert.Contains(t, mk, "TTCN3_MODULES = Foo.ttcn\n")
	assert.Contains(t, mk, "GENERATED_SOURCES = $(TTCN3_MODULES:.ttcn=.cc)\n")
	assert.Contains(t, mk, "# TTCN3_DIR = /opt/titan\n")
	assert.Equal(t, "Suite", makeVar(t, mk, "EXECUTABLE"))
	assert.Contains(t, makeVar(t, mk, "OTHER_FILES"), "Makefile")
	assert.Contains(t, makeVar(t, mk, "OTHER_FILES"), "../"+ConfigFilename)

	// a second run with nothing changed leaves the file alone
	out.Reset()
	_, err = b.Generate()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "up to date")
}

func TestGenerateLinksWorkingFiles(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("working files are copied on Windows")
	}
	captureMessages(t)
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ConfigFilename:    suiteConfig,
		"src/Foo.ttcn":    "module Foo {}",
		"src/Pre.ttcnpp":  "#include \"defs.ttcnin\"\nmodule Pre {}",
		"src/defs.ttcnin": "",
		"native/port.cc":  "",
		"native/port.hh":  "",
	})
	wd := filepath.Join(dir, "bin")

	b := newTestBuilder(t, dir)
	_, err := b.Synthesize()
	require.NoError(t, err)
	_, err = b.Diff()
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(wd, "Foo.ttcn"), "only Generate writes")

	_, err = b.Generate()
	require.NoError(t, err)
	for name, target := range map[string]string{
		"Foo.ttcn":    "src/Foo.ttcn",
		"Pre.ttcnpp":  "src/Pre.ttcnpp",
		"defs.ttcnin": "src/defs.ttcnin",
		"port.cc":     "native/port.cc",
		"port.hh":     "native/port.hh",
	} {
		dest, err := os.Readlink(filepath.Join(wd, name))
		require.NoError(t, err, name)
		assert.Equal(t, filepath.Join(dir, filepath.FromSlash(target)), dest)
	}

	// the links are not picked up as resources of their own
	_, err = b.Generate()
	require.NoError(t, err)
	mk, err := os.ReadFile(b.MakefilePath())
	require.NoError(t, err)
	assert.Equal(t, "Foo.ttcn", makeVar(t, string(mk), "TTCN3_MODULES"))
}

func lookTools(t *testing.T, tools ...string) {
	t.Helper()
	for _, tool := range tools {
		if _, err := exec.LookPath(tool); err != nil {
			t.Skipf("%s is not installed", tool)
		}
	}
}

func runMake(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("make", append([]string{"-C", dir, "TTCN3_DIR=/opt/titan"}, args...)...)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	return string(out)
}

func TestGeneratedMakefileRuns(t *testing.T) {
	t.Run("compile finds linked modules", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("needs symbolic links")
		}
		lookTools(t, "make")
		captureMessages(t)
		dir := t.TempDir()
		writeTree(t, dir, map[string]string{
			ConfigFilename: suiteConfig,
			"src/Foo.ttcn": "module Foo {}",
		})

		b := newTestBuilder(t, dir)
		_, err := b.Generate()
		require.NoError(t, err)
		out := runMake(t, b.WorkingDir(), "-n", "compile")
		assert.Contains(t, out, "Foo.ttcn")
	})

	t.Run("library", func(t *testing.T) {
		lookTools(t, "make", "g++", "ar")
		captureMessages(t)
		dir := t.TempDir()
		writeTree(t, dir, map[string]string{
			ConfigFilename: copyModeConfig,
			"src/port.cc":  "int port_value() { return 1; }\n",
			"src/port.hh":  "int port_value();\n",
		})

		b := newTestBuilder(t, dir)
		_, err := b.Generate()
		require.NoError(t, err)
		runMake(t, b.WorkingDir(), "library")
		assert.FileExists(t, filepath.Join(b.WorkingDir(), "libSuite.a"))
		assert.NoFileExists(t, filepath.Join(b.WorkingDir(), "rv"))
	})
}

func TestGenerateIrregularModule(t *testing.T) {
	captureMessages(t)
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ConfigFilename: suiteConfig,
		"src/Foo.ttcn": "module Bar {}",
	})

	mk := synthesize(t, newTestBuilder(t, dir))
	assert.Equal(t, "Foo.ttcn", makeVar(t, mk, "TTCN3_MODULES"))
	assert.Equal(t, "Bar.cc", makeVar(t, mk, "GENERATED_SOURCES"))
}

func TestGenerateCentralStorage(t *testing.T) {
	captureMessages(t)
	root := t.TempDir()
	suite := filepath.Join(root, "Suite")
	writeTree(t, suite, map[string]string{
		ConfigFilename: suiteConfig + "\n[references]\nBase = \"../Base\"\n",
	})
	writeTree(t, filepath.Join(root, "Base"), map[string]string{
		ConfigFilename:    "[project]\nname = \"Base\"\ncentral_storage = true\n",
		"src/Shared.ttcn": "module Shared {}",
	})

	mk := synthesize(t, newTestBuilder(t, suite))
	assert.Equal(t, "", makeVar(t, mk, "TTCN3_MODULES"))
	// the base list carries the path from Suite/bin to the home directory,
	// since make runs in the primary working directory (see DESIGN.md,
	// "BASE_ paths"), so it is not the bare Shared.ttcn
	assert.Equal(t, "../../Base/bin/Shared.ttcn", makeVar(t, mk, "BASE_TTCN3_MODULES"))
	assert.Contains(t, makeVar(t, mk, "CPPFLAGS"), "-I../../Base/bin")
	assert.Contains(t, mk, "compile-all: $(BASE_TTCN3_MODULES) $(BASE_ASN1_MODULES) ../../Base/bin/compile\n")
}

func TestGenerateNativePairs(t *testing.T) {
	captureMessages(t)
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ConfigFilename:  copyModeConfig,
		"src/port.cc":   "",
		"src/port.hh":   "",
		"src/extra.hh":  "",
		"src/Main.ttcn": "module Main {}",
	})

	mk := synthesize(t, newTestBuilder(t, dir))
	assert.Equal(t, "../src/port.cc", makeVar(t, mk, "USER_SOURCES"))
	assert.Equal(t, "../src/extra.hh ../src/port.hh", makeVar(t, mk, "USER_HEADERS"))
	assert.Equal(t, "port.o", makeVar(t, mk, "USER_OBJECTS"))
	assert.NotContains(t, mk, "extra.o")
}

func TestGenerateAbortsOnUnsafeFileName(t *testing.T) {
	captureMessages(t)
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ConfigFilename:       suiteConfig,
		"src/bad file!.ttcn": "module Bad {}",
		"src/Good.ttcn":      "module Good {}",
	})

	b := newTestBuilder(t, dir)
	_, err := b.Generate()
	require.Error(t, err)

	var invalid *InvalidPathsError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, []string{"bad file!.ttcn"}, invalid.Paths)
	assert.Contains(t, err.Error(), "bad file!.ttcn")
	assert.NoFileExists(t, b.MakefilePath())
}

func TestGenerateWindowsDisallowsDynamicLinking(t *testing.T) {
	out := captureMessages(t)
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ConfigFilename: suiteConfig + "\n[makefile]\ndynamic_linking = true\n",
		"src/Foo.ttcn": "module Foo {}",
	})

	b, err := NewBuilderInDirectory(dir, settings.Settings{TTCN3Dir: `C:\titan`, CygwinDir: t.TempDir()})
	require.NoError(t, err)
	b.HostOS = "windows"

	mk := synthesize(t, b)
	assert.Contains(t, out.String(), "dynamic linking is not supported")
	assert.NotContains(t, mk, "SHARED_OBJECTS")
	assert.Equal(t, "Suite.exe", makeVar(t, mk, "EXECUTABLE"))
	assert.Equal(t, "WIN32", makeVar(t, mk, "PLATFORM"))
}

func TestGenerateWindowsNeedsCygwin(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{ConfigFilename: suiteConfig})

	b, err := NewBuilderInDirectory(dir, settings.Settings{
		TTCN3Dir:  "/opt/titan",
		CygwinDir: filepath.Join(t.TempDir(), "cygwin64"),
	})
	require.NoError(t, err)
	b.HostOS = "windows"

	_, err = b.Synthesize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cygwin")
}

func TestGenerateNeedsTTCN3Dir(t *testing.T) {
	captureMessages(t)
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{ConfigFilename: suiteConfig})

	b, err := NewBuilderInDirectory(dir, settings.Settings{})
	require.NoError(t, err)
	b.HostOS = "linux"

	_, err = b.Generate()
	assert.ErrorIs(t, err, errNoTTCN3Dir)
	assert.NoFileExists(t, b.MakefilePath())
}

func TestGenerateDialectOverride(t *testing.T) {
	captureMessages(t)
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ConfigFilename: suiteConfig + "\n[makefile]\nincremental_dependencies = true\n",
		"src/Foo.ttcn": "module Foo {}",
	})

	b := newTestBuilder(t, dir)
	b.Dialect = DialectPOSIX
	mk := synthesize(t, b)
	assert.NotContains(t, mk, ".PHONY")
	assert.NotContains(t, mk, "DEPFILES")

	b.Dialect = "bsd"
	_, err := b.Synthesize()
	assert.Error(t, err)
}

func TestGenerateAbsolutePaths(t *testing.T) {
	captureMessages(t)
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ConfigFilename: copyModeConfig + "\n[makefile]\nabsolute_paths = true\n",
		"src/Foo.ttcn": "module Foo {}",
	})

	mk := synthesize(t, newTestBuilder(t, dir))
	assert.Equal(t, filepath.ToSlash(filepath.Join(dir, "src", "Foo.ttcn")), makeVar(t, mk, "TTCN3_MODULES"))
}

func TestGenerateToolchainPathsFollowTheirProject(t *testing.T) {
	captureMessages(t)
	root := t.TempDir()
	suite := filepath.Join(root, "Suite")
	writeTree(t, suite, map[string]string{
		ConfigFilename: suiteConfig + `library_paths = ["lib"]
defines = { SUITE = "1" }

[references]
Common = "../Common"
`,
		"Foo.ttcn": "module Foo {}",
	})
	writeTree(t, filepath.Join(root, "Common"), map[string]string{
		ConfigFilename: `[project]
name = "Common"

[toolchain]
additional_objects = ["prebuilt/helper.o"]
defines = { SUITE = "2", COMMON = "" }
`,
		"Common.ttcn": "module Common {}",
	})

	mk := synthesize(t, newTestBuilder(t, suite))
	assert.Equal(t, "../../Common/prebuilt/helper.o", makeVar(t, mk, "ADDITIONAL_OBJECTS"))
	assert.Contains(t, mk, "-L../lib")
	assert.Contains(t, makeVar(t, mk, "CPPFLAGS"), "-DCOMMON -DSUITE=1")
	assert.Equal(t, "Common.ttcn Foo.ttcn", makeVar(t, mk, "TTCN3_MODULES"))
}

func TestGenerateIndexedReference(t *testing.T) {
	captureMessages(t)
	root := t.TempDir()
	suite := filepath.Join(root, "Suite")
	common := filepath.Join(root, "libs", "Common")
	writeTree(t, suite, map[string]string{
		ConfigFilename: suiteConfig + "\n[references]\nCommon = \"index:common\"\n",
	})
	writeTree(t, common, map[string]string{
		ConfigFilename: "[project]\nname = \"Common\"\ncentral_storage = true\n",
		"Common.ttcn":  "module Common {}",
	})

	b := newTestBuilder(t, suite)
	idx, err := index.Load(b.IndexDir)
	require.NoError(t, err)
	idx.Set("common", common)
	require.NoError(t, idx.Save())

	mk := synthesize(t, b)
	assert.Equal(t, "../../libs/Common/bin/Common.ttcn", makeVar(t, mk, "BASE_TTCN3_MODULES"))

	b = newTestBuilder(t, suite)
	_, err = b.Synthesize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in the reference index")
}

func TestGenerateReferenceCycle(t *testing.T) {
	captureMessages(t)
	root := t.TempDir()
	writeTree(t, filepath.Join(root, "A"), map[string]string{
		ConfigFilename: suiteConfig + "\n[references]\nB = \"../B\"\n",
		"A.ttcn":       "module A {}",
	})
	writeTree(t, filepath.Join(root, "B"), map[string]string{
		ConfigFilename: "[project]\nname = \"B\"\n\n[references]\nA = \"../A\"\n",
		"B.ttcn":       "module B {}",
	})

	b := newTestBuilder(t, filepath.Join(root, "A"))
	_, projects, err := b.Classify()
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.True(t, projects[0].IsRoot)
	assert.Equal(t, "B", projects[1].Name)
}

func TestDiff(t *testing.T) {
	captureMessages(t)
	dir := t.TempDir()
	writeTree(t, dir, map[string]string{
		ConfigFilename: suiteConfig,
		"src/Foo.ttcn": "module Foo {}",
	})

	b := newTestBuilder(t, dir)
	d, err := b.Diff()
	require.NoError(t, err)
	assert.Contains(t, d, "+TTCN3_MODULES = Foo.ttcn\n")

	_, err = b.Generate()
	require.NoError(t, err)
	d, err = b.Diff()
	require.NoError(t, err)
	assert.Equal(t, "", d)

	writeTree(t, dir, map[string]string{"src/Extra.ttcn": "module Extra {}"})
	d, err = b.Diff()
	require.NoError(t, err)
	assert.Contains(t, d, "-TTCN3_MODULES = Foo.ttcn\n")
	assert.Contains(t, d, "+TTCN3_MODULES = Extra.ttcn Foo.ttcn\n")
}

func TestPlatformOf(t *testing.T) {
	assert.Equal(t, platformLinux, platformOf("linux"))
	assert.Equal(t, platformWindows, platformOf("windows"))
	assert.Equal(t, platformSolaris, platformOf("illumos"))
	assert.Equal(t, platformDarwin, platformOf("darwin"))
	assert.Equal(t, platformFreeBSD, platformOf("freebsd"))
	assert.Equal(t, platformLinux, platformOf("plan9"))
}

func TestDefineFlags(t *testing.T) {
	assert.Equal(t, []string{"-DA", "-DB=2"}, defineFlags(map[string]string{"B": "2", "A": ""}))
	assert.Nil(t, defineFlags(nil))
}
