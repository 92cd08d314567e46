package gen

import (
	"slices"
	"strings"
)

// default system libraries per platform, extended by [toolchain] platform_libs
var defaultPlatformLibs = []struct {
	platform string
	libs     []string
}{
	{"SOLARIS", []string{"-lsocket", "-lnsl", "-lxml2"}},
	{"SOLARIS8", []string{"-lsocket", "-lnsl", "-lxml2", "-lresolv"}},
	{"LINUX", []string{"-lpthread", "-lrt", "-lxml2"}},
	{"FREEBSD", []string{"-lxml2"}},
	{"DARWIN", []string{"-lxml2"}},
	{"WIN32", []string{"-lxml2"}},
}

func (m *Makefile) writeHeader(sb *strings.Builder) {
	writeln(sb, "# This Makefile was generated by titanmk ", m.opts.Version)
	writeln(sb, "# for project ", m.opts.ProjectName, ".")
	writeln(sb, "# Regenerate it instead of editing it by hand.")
	writeln(sb, "#")
	writeln(sb, "# Targets:")
	if m.opts.Library {
		writeln(sb, "#   make, make all      builds the library ", m.libraryName())
	} else {
		writeln(sb, "#   make, make all      builds the executable ", m.executableName())
	}
	writeln(sb, "#   make executable     builds the executable")
	writeln(sb, "#   make library        builds the library archive")
	writeln(sb, "#   make objects        builds the object files only")
	if m.opts.DynamicLinking {
		writeln(sb, "#   make shared_objects builds the shared objects only")
	}
	if m.hasPP {
		writeln(sb, "#   make preprocess     runs the preprocessor on the .ttcnpp modules")
	}
	writeln(sb, "#   make check          checks the semantics of the modules")
	writeln(sb, "#   make port           generates port skeletons")
	writeln(sb, "#   make compile        translates the modules to C++")
	if m.central {
		writeln(sb, "#   make compile-all    translates the modules together with central storage")
	}
	writeln(sb, "#   make clean          removes every generated file")
	writeln(sb, "#   make dep            creates dependency information")
	writeln(sb, "#   make archive        archives the source files")
	writeln(sb, "#   make diag           prints diagnostic information")
	writeln(sb)
}

func (m *Makefile) writeSettings(sb *strings.Builder) {
	o := m.opts

	writeln(sb, "#")
	writeln(sb, "# Set these variables...")
	writeln(sb, "#")
	writeln(sb)
	writeln(sb, "# The path of your TTCN-3 Test Executor installation:")
	writeln(sb, "# Uncomment this line to override the environment variable.")
	writeln(sb, "# TTCN3_DIR = ", o.TTCN3Dir)
	writeln(sb)
	if o.CrossCompile {
		writeln(sb, "# The TTCN-3 runtime built for the target platform:")
		writeVar(sb, "TTCN3_TARGET_DIR", "$(TTCN3_DIR)")
		writeln(sb)
		writeln(sb, "# The root of the cross-compiler toolchain:")
		writeVar(sb, "CROSSTOOL_DIR")
		writeln(sb)
	}
	writeln(sb, "# Your platform: (SOLARIS, SOLARIS8, LINUX, FREEBSD, DARWIN or WIN32)")
	writeVar(sb, "PLATFORM", o.Platform)
	writeln(sb)
	writeln(sb, "# Your C++ compiler:")
	writeVar(sb, "CXX", o.Compiler)
	writeln(sb)
	if m.hasPP {
		writeln(sb, "# The C preprocessor used for TTCN-3 files:")
		writeVar(sb, "CPP", o.Preprocessor)
		writeln(sb)
		writeln(sb, "# Flags for preprocessing TTCN-3 files:")
		writeVar(sb, "CPPFLAGS_TTCN3", o.PreprocessorFlags...)
		writeln(sb)
	}

	writeln(sb, "# Flags for the C++ preprocessor (and makedepend as well):")
	cppflags := []string{"-D$(PLATFORM)"}
	if o.Runtime2 {
		cppflags = append(cppflags, "-DTITAN_RUNTIME_2")
	}
	cppflags = append(cppflags, "-I.", "-I"+m.runtimeRoot()+"/include")
	for _, d := range m.reg.BaseDirs {
		if d.HasModules {
			cppflags = append(cppflags, "-I"+d.Path)
		}
	}
	for _, d := range m.reg.IncludeDirs {
		cppflags = append(cppflags, "-I"+d.Path)
	}
	cppflags = append(cppflags, o.Defines...)
	writeVar(sb, "CPPFLAGS", cppflags...)
	writeln(sb)

	if o.IncrementalDeps {
		writeln(sb, "# Flags for dependency generation")
		writeVar(sb, "CXXDEPFLAGS", "-MM")
		writeln(sb)
	}

	writeln(sb, "# Flags for the C++ compiler:")
	cxxflags := []string{"-Wall"}
	if o.DynamicLinking {
		cxxflags = append(cxxflags, "-fPIC")
	}
	writeVar(sb, "CXXFLAGS", append(cxxflags, o.CxxFlags...)...)
	writeln(sb)

	writeln(sb, "# Flags for the linker:")
	ldflags := slices.Clone(o.LinkerFlags)
	if o.DynamicLinking {
		ldflags = append(ldflags, "-Wl,-rpath=.")
	}
	writeVar(sb, "LDFLAGS", ldflags...)
	writeln(sb)

	if !o.DynamicLinking {
		// make's built-in default of rv would be read as the archive name
		writeln(sb, "# Modifiers for the archiver, appended to -r:")
		writeVar(sb, "ARFLAGS", "cs")
		writeln(sb)
	}

	if m.isWindows() {
		writeln(sb, "# Utility to create import libraries:")
		writeVar(sb, "DLLTOOL", "dlltool")
		writeln(sb)
	}

	writeln(sb, "# Flags for the TTCN-3 and ASN.1 compiler:")
	compilerFlags := []string{"-L"}
	if o.Runtime2 {
		compilerFlags = append(compilerFlags, "-R")
	}
	if o.CodeSplitting {
		compilerFlags = append(compilerFlags, "-U", "type")
	}
	writeVar(sb, "COMPILER_FLAGS", append(compilerFlags, o.CompilerFlags...)...)
	writeln(sb)

	writeln(sb, "# Execution mode: (either ttcn3 or ttcn3-parallel)")
	writeVar(sb, "TTCN3_LIB", m.ttcn3Lib())
	writeln(sb)

	writeln(sb, "# The path of your OpenSSL installation:")
	writeln(sb, "# If you do not have your own one, leave it unchanged.")
	writeVar(sb, "OPENSSL_DIR", m.runtimeRoot())
	writeln(sb)
	writeln(sb, "# The path of your libxml2 installation:")
	writeln(sb, "# If you do not have your own one, leave it unchanged.")
	writeVar(sb, "XMLDIR", m.runtimeRoot())
	writeln(sb)
	writeln(sb, "# Directory to store the archived source files:")
	writeVar(sb, "ARCHIVE_DIR", "backup")
	writeln(sb)

	writeln(sb, "# Platform specific additional libraries:")
	for _, p := range defaultPlatformLibs {
		libs := append(slices.Clone(p.libs), o.PlatformLibs[p.platform]...)
		writeVar(sb, p.platform+"_LIBS", libs...)
	}
	writeln(sb)
}
