package gen

import (
	"strings"

	"github.com/qobs-build/titanmk/internal/registry"
)

// moduleList is one module collection as seen by the compiler: preprocessed
// modules are listed by the .ttcn file the preprocessor writes
type moduleList struct {
	variable string
	ext      string
	modules  []*registry.Module
	regular  bool
}

func (m *Makefile) moduleLists(base bool) []moduleList {
	if base {
		return []moduleList{
			{"BASE_TTCN3_MODULES", registry.ExtTTCN3, m.baseTTCN, m.naming.BaseTTCN3},
			{"BASE_PREPROCESSED_TTCN3_MODULES", registry.ExtTTCN3, m.basePP, m.naming.BaseTTCN3PP},
			{"BASE_ASN1_MODULES", registry.ExtASN1, m.baseASN, m.naming.BaseASN1},
		}
	}
	return []moduleList{
		{"TTCN3_MODULES", registry.ExtTTCN3, m.ttcn, m.naming.TTCN3},
		{"PREPROCESSED_TTCN3_MODULES", registry.ExtTTCN3, m.pp, m.naming.TTCN3PP},
		{"ASN1_MODULES", registry.ExtASN1, m.asn, m.naming.ASN1},
	}
}

// generated lists the files derived from every module of lists, either as
// one substitution per list or file by file
func (m *Makefile) generated(lists []moduleList, ext string, split bool, explicit func(*registry.Module) []string) []string {
	var out []string
	for _, l := range lists {
		if len(l.modules) == 0 {
			continue
		}
		if m.collapse(l.regular) {
			for _, suffix := range registry.GeneratedSuffixes(split) {
				out = append(out, subst(l.variable, l.ext, suffix+ext))
			}
			continue
		}
		for _, mod := range l.modules {
			out = append(out, explicit(mod)...)
		}
	}
	return out
}

// moduleVars lists the variables holding the compiler's input files
func (m *Makefile) moduleVars(local, base bool) []string {
	var vars []string
	add := func(name string) {
		if local {
			vars = append(vars, ref(name))
		}
		if base && m.central {
			vars = append(vars, ref("BASE_"+name))
		}
	}
	add("TTCN3_MODULES")
	if m.hasPP {
		add("PREPROCESSED_TTCN3_MODULES")
	}
	add("ASN1_MODULES")
	return vars
}

func (m *Makefile) hasIncludes() bool {
	return m.hasPP || len(m.reg.Includes) > 0
}

func modulePaths(mods []*registry.Module) []string {
	out := make([]string, 0, len(mods))
	for _, mod := range mods {
		out = append(out, mod.Path())
	}
	return out
}

func preprocessedPaths(mods []*registry.Module) []string {
	out := make([]string, 0, len(mods))
	for _, mod := range mods {
		out = append(out, mod.PreprocessedPath())
	}
	return out
}

func includePaths(incl []*registry.IncludeFragment) []string {
	out := make([]string, 0, len(incl))
	for _, f := range incl {
		out = append(out, f.Path())
	}
	return out
}

func nativePaths(natives []*registry.NativeArtifact, path func(*registry.NativeArtifact) string) []string {
	var out []string
	for _, n := range natives {
		if p := path(n); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// writeFileVars writes one file list and, with central storage, its BASE_
// counterpart
func (m *Makefile) writeFileVars(sb *strings.Builder, name string, local, base []string) {
	writeVar(sb, name, local...)
	if m.central {
		writeVar(sb, "BASE_"+name, base...)
	}
}

func (m *Makefile) writeFiles(sb *strings.Builder) {
	o := m.opts
	split := o.CodeSplitting

	writeln(sb, "#")
	writeln(sb, "# The following variables are derived from the project's files.")
	writeln(sb, "#")
	writeln(sb)

	writeln(sb, "# TTCN-3 modules of this project:")
	m.writeFileVars(sb, "TTCN3_MODULES", modulePaths(m.ttcn), modulePaths(m.baseTTCN))
	writeln(sb)

	if m.hasPP {
		writeln(sb, "# TTCN-3 modules to preprocess:")
		m.writeFileVars(sb, "TTCN3_PP_MODULES", modulePaths(m.pp), modulePaths(m.basePP))
		writeln(sb)
		writeln(sb, "# Files created by the TTCN-3 preprocessor:")
		if m.collapse(true) {
			m.writeFileVars(sb, "PREPROCESSED_TTCN3_MODULES",
				[]string{subst("TTCN3_PP_MODULES", registry.ExtTTCN3PP, registry.ExtTTCN3)},
				[]string{subst("BASE_TTCN3_PP_MODULES", registry.ExtTTCN3PP, registry.ExtTTCN3)})
		} else {
			m.writeFileVars(sb, "PREPROCESSED_TTCN3_MODULES", preprocessedPaths(m.pp), preprocessedPaths(m.basePP))
		}
		writeln(sb)
	}

	if m.hasIncludes() {
		writeln(sb, "# TTCN-3 files included by the preprocessor:")
		m.writeFileVars(sb, "TTCN3_INCLUDES", includePaths(m.incl), includePaths(m.baseIncl))
		writeln(sb)
	}

	writeln(sb, "# ASN.1 modules of this project:")
	m.writeFileVars(sb, "ASN1_MODULES", modulePaths(m.asn), modulePaths(m.baseASN))
	writeln(sb)

	local, base := m.moduleLists(false), m.moduleLists(true)

	writeln(sb, "# C++ source and header files generated from the TTCN-3 and ASN.1 modules:")
	sources := func(mod *registry.Module) []string { return mod.GeneratedSources(split) }
	m.writeFileVars(sb, "GENERATED_SOURCES",
		m.generated(local, registry.ExtGenSource, split, sources),
		m.generated(base, registry.ExtGenSource, split, sources))
	header := func(mod *registry.Module) []string { return []string{mod.GeneratedHeader()} }
	m.writeFileVars(sb, "GENERATED_HEADERS",
		m.generated(local, registry.ExtGenHeader, false, header),
		m.generated(base, registry.ExtGenHeader, false, header))
	writeln(sb)

	writeln(sb, "# C/C++ source and header files of test ports, external functions and")
	writeln(sb, "# other modules:")
	m.writeFileVars(sb, "USER_SOURCES",
		nativePaths(m.user, (*registry.NativeArtifact).SourcePath),
		nativePaths(m.baseUser, (*registry.NativeArtifact).SourcePath))
	m.writeUserDerived(sb, "USER_HEADERS", registry.ExtHeader,
		m.naming.UserHeaders, m.naming.BaseUserHeaders, (*registry.NativeArtifact).HeaderPath)
	writeln(sb)

	writeln(sb, "# Object files of this project that are needed for the executable test suite:")
	objects := func(mod *registry.Module) []string { return mod.Objects(split) }
	if m.collapse(true) {
		m.writeFileVars(sb, "GENERATED_OBJECTS",
			[]string{subst("GENERATED_SOURCES", registry.ExtGenSource, registry.ExtObject)},
			[]string{subst("BASE_GENERATED_SOURCES", registry.ExtGenSource, registry.ExtObject)})
	} else {
		m.writeFileVars(sb, "GENERATED_OBJECTS",
			m.generated(local, registry.ExtObject, split, objects),
			m.generated(base, registry.ExtObject, split, objects))
	}
	m.writeUserDerived(sb, "USER_OBJECTS", registry.ExtObject,
		m.naming.UserSources, m.naming.BaseUserSources, (*registry.NativeArtifact).Object)
	writeVar(sb, "OBJECTS", ref("GENERATED_OBJECTS"), ref("USER_OBJECTS"))
	writeln(sb)

	if o.DynamicLinking {
		writeln(sb, "# Shared object files of this project:")
		if m.collapse(true) {
			m.writeFileVars(sb, "SHARED_OBJECTS",
				[]string{subst("GENERATED_OBJECTS", registry.ExtObject, registry.ExtShared), subst("USER_OBJECTS", registry.ExtObject, registry.ExtShared)},
				[]string{subst("BASE_GENERATED_OBJECTS", registry.ExtObject, registry.ExtShared), subst("BASE_USER_OBJECTS", registry.ExtObject, registry.ExtShared)})
		} else {
			shared := func(mod *registry.Module) []string { return mod.SharedObjects(split) }
			m.writeFileVars(sb, "SHARED_OBJECTS",
				append(m.generated(local, registry.ExtShared, split, shared), nativePaths(m.user, (*registry.NativeArtifact).SharedObject)...),
				append(m.generated(base, registry.ExtShared, split, shared), nativePaths(m.baseUser, (*registry.NativeArtifact).SharedObject)...))
		}
		writeln(sb)
	}

	if o.IncrementalDeps {
		writeln(sb, "# Dependency files of the C++ sources:")
		if m.collapse(true) {
			writeVar(sb, "DEPFILES", subst("GENERATED_OBJECTS", registry.ExtObject, registry.ExtDepend), subst("USER_OBJECTS", registry.ExtObject, registry.ExtDepend))
		} else {
			deps := func(mod *registry.Module) []string { return mod.DepFiles(split) }
			writeVar(sb, "DEPFILES", append(m.generated(local, registry.ExtDepend, split, deps), nativePaths(m.user, (*registry.NativeArtifact).DepFile)...)...)
		}
		writeln(sb)
	}

	writeln(sb, "# Other files of the project (Makefile, configuration files, etc.)")
	writeln(sb, "# that will be added to the archived source files:")
	other := make([]string, 0, len(m.reg.OtherFiles))
	for _, f := range m.reg.OtherFiles {
		other = append(other, f.Path())
	}
	writeVar(sb, "OTHER_FILES", other...)
	writeln(sb)

	writeln(sb, "# Additional object files linked into the executable:")
	writeVar(sb, "ADDITIONAL_OBJECTS", o.AdditionalObjects...)
	writeln(sb)

	writeln(sb, "# The name of the executable test suite:")
	writeVar(sb, "EXECUTABLE", m.executableName())
	writeVar(sb, "LIBRARY", m.libraryName())
	if o.Library {
		writeVar(sb, "TARGET", ref("LIBRARY"))
	} else {
		writeVar(sb, "TARGET", ref("EXECUTABLE"))
	}
	writeln(sb)
}

// writeUserDerived writes a list derived from USER_SOURCES, as a substitution
// when the naming allows it
func (m *Makefile) writeUserDerived(sb *strings.Builder, name, ext string, regular, baseRegular bool, path func(*registry.NativeArtifact) string) {
	local := nativePaths(m.user, path)
	if len(m.user) > 0 && m.collapse(regular) {
		local = []string{subst("USER_SOURCES", registry.ExtSource, ext)}
	}
	base := nativePaths(m.baseUser, path)
	if len(m.baseUser) > 0 && m.collapse(baseRegular) {
		base = []string{subst("BASE_USER_SOURCES", registry.ExtSource, ext)}
	}
	m.writeFileVars(sb, name, local, base)
}
