package gen

import (
	"strings"

	"github.com/qobs-build/titanmk/internal/registry"
)

func (m *Makefile) writeTargets(sb *strings.Builder) {
	writeln(sb, "#")
	writeln(sb, "# Rules for building the executable...")
	writeln(sb, "#")
	writeln(sb)

	m.writePhony(sb)
	m.writeBuildTargets(sb)
	m.writeLink(sb)
	m.writeObjectRules(sb)
	if m.hasPP {
		m.writePreprocess(sb)
	}
	m.writeCompile(sb)
	m.writeClean(sb)
	m.writeDep(sb)
	m.writeArchive(sb)
	m.writeDiag(sb)

	writeln(sb, "#")
	writeln(sb, "# Add your rules here if necessary...")
	writeln(sb, "#")
}

func (m *Makefile) writePhony(sb *strings.Builder) {
	if m.opts.GNUMake {
		phony := []string{"all"}
		if m.opts.DynamicLinking {
			phony = append(phony, "shared_objects")
		}
		phony = append(phony, "executable", "library", "objects", "check", "port", "clean", "dep", "archive", "diag")
		if m.hasPP {
			phony = append(phony, "preprocess")
		}
		writeln(sb, ".PHONY: ", strings.Join(phony, " "))
		writeln(sb)
	}

	suffixes := []string{".o", ".c", ".cc", ".cpp"}
	if m.opts.DynamicLinking {
		suffixes = append(suffixes, ".so")
	}
	if m.opts.IncrementalDeps {
		suffixes = append(suffixes, ".d")
	}
	writeln(sb, ".SUFFIXES: ", strings.Join(suffixes, " "))
	writeln(sb)
}

func (m *Makefile) writeBuildTargets(sb *strings.Builder) {
	writeln(sb, "all: $(TARGET) ;")
	writeln(sb)
	if m.opts.DynamicLinking {
		writeln(sb, "shared_objects: $(SHARED_OBJECTS) ;")
		writeln(sb)
	}
	writeln(sb, "executable: $(EXECUTABLE) ;")
	writeln(sb)
	writeln(sb, "library: $(LIBRARY) ;")
	writeln(sb)
	if m.hasModules() {
		writeln(sb, "objects: $(OBJECTS) compile ;")
	} else {
		writeln(sb, "objects: $(OBJECTS) ;")
	}
	writeln(sb)
}

// platformLibs refers to the libraries of the configured platform; computed
// variable names are a GNU make extension
func (m *Makefile) platformLibs() string {
	if m.opts.GNUMake {
		return "$($(PLATFORM)_LIBS)"
	}
	return ref(m.opts.Platform + "_LIBS")
}

// linkInputs are the files the executable or library is built from
func (m *Makefile) linkInputs() []string {
	if m.opts.DynamicLinking {
		inputs := []string{ref("SHARED_OBJECTS")}
		if m.central {
			inputs = append(inputs, ref("BASE_SHARED_OBJECTS"))
		}
		return inputs
	}
	inputs := []string{ref("OBJECTS")}
	if m.central {
		inputs = append(inputs, ref("BASE_GENERATED_OBJECTS"), ref("BASE_USER_OBJECTS"))
	}
	return inputs
}

func (m *Makefile) libraryFlags() []string {
	root := m.runtimeRoot()
	flags := []string{"-L" + root + "/lib"}
	if m.opts.CrossCompile {
		flags = append(flags, "-L$(CROSSTOOL_DIR)/lib")
	}
	flags = append(flags, prefixed("-L", m.opts.LibraryPaths)...)
	flags = append(flags, "-l$(TTCN3_LIB)")
	flags = append(flags, prefixed("-l", m.opts.Libraries)...)
	return flags
}

func (m *Makefile) writeLink(sb *strings.Builder) {
	inputs := join(m.linkInputs()...)

	writeln(sb, "$(EXECUTABLE): ", inputs)
	writeCommand(sb,
		"if $(CXX) $(LDFLAGS) -o $@ "+inputs+" $(ADDITIONAL_OBJECTS)",
		join(m.libraryFlags()...),
		"-L$(OPENSSL_DIR)/lib -lcrypto",
		"-L$(XMLDIR)/lib "+m.platformLibs()+";",
		"then : ; else $(TTCN3_DIR)/bin/titanver "+inputs+"; exit 1; fi")
	if !m.hasModules() {
		// generated-file rules never run, so the marker is created here
		writeCommand(sb, "touch compile")
	}
	writeln(sb)

	writeln(sb, "$(LIBRARY): ", inputs)
	if m.opts.DynamicLinking {
		writeCommand(sb,
			"$(CXX) -shared -o $@ "+inputs+" $(ADDITIONAL_OBJECTS)",
			join(m.libraryFlags()...))
	} else {
		writeCommand(sb, "$(AR) -r$(ARFLAGS) $(LIBRARY) "+inputs+" $(ADDITIONAL_OBJECTS)")
	}
	writeln(sb)
}

// explicitCompile holds when a user file does not sit next to its object file
func explicitCompile(n *registry.NativeArtifact) bool {
	return n.HasSource() && n.Dir != n.HomeDir
}

func (m *Makefile) writeObjectRules(sb *strings.Builder) {
	writeln(sb, ".cc.o .c.o .cpp.o:")
	writeCommand(sb, "$(CXX) -c $(CPPFLAGS) $(CXXFLAGS) -o $@ $<")
	writeln(sb)

	for _, n := range m.user {
		if !explicitCompile(n) {
			continue
		}
		src := n.SourcePath()
		writeln(sb, n.Object(), ": ", src)
		writeCommand(sb, "$(CXX) -c $(CPPFLAGS) $(CXXFLAGS) -o $@ "+src)
		writeln(sb)
	}

	if m.opts.DynamicLinking {
		writeln(sb, ".o.so:")
		writeCommand(sb, "$(CXX) -shared -o $@ $<")
		writeln(sb)
	}

	if m.opts.IncrementalDeps {
		writeln(sb, ".cc.d .c.d .cpp.d:")
		writeDepCommand(sb, "$<", "$*")
		writeln(sb)
		for _, n := range m.user {
			if !explicitCompile(n) {
				continue
			}
			src := n.SourcePath()
			writeln(sb, n.DepFile(), ": ", src)
			writeDepCommand(sb, src, n.Prefix)
			writeln(sb)
		}
	}
}

func writeDepCommand(sb *strings.Builder, src, stem string) {
	writeCommand(sb,
		"@echo Creating dependency file for '"+src+"'; set -e;",
		"$(CXX) $(CXXDEPFLAGS) $(CPPFLAGS) $(CXXFLAGS) "+src,
		"| sed 's/\\("+stem+"\\)\\.o[ :]*/\\1.o $@ : /g' > $@;",
		"[ -s $@ ] || rm -f $@")
}

func (m *Makefile) writePreprocess(sb *strings.Builder) {
	if m.collapse(true) {
		writeln(sb, "%.ttcn: %.ttcnpp $(TTCN3_INCLUDES)")
		writeCommand(sb, "$(CPP) -x c -nostdinc $(CPPFLAGS_TTCN3) $< $@")
		writeln(sb)
	} else {
		for _, mod := range m.pp {
			writeln(sb, mod.PreprocessedPath(), ": ", mod.Path(), " $(TTCN3_INCLUDES)")
			writeCommand(sb, "$(CPP) -x c -nostdinc $(CPPFLAGS_TTCN3) "+mod.Path()+" $@")
			writeln(sb)
		}
	}
	writeln(sb, "preprocess: $(PREPROCESSED_TTCN3_MODULES) ;")
	writeln(sb)
}

func (m *Makefile) writeCompile(sb *strings.Builder) {
	local := join(m.moduleVars(true, false)...)
	all := join(m.moduleVars(true, true)...)

	if m.central {
		writeln(sb, "$(GENERATED_SOURCES) $(GENERATED_HEADERS): compile-all compile")
		writeCommand(sb, "@if [ ! -f $@ ]; then rm -f compile-all; $(MAKE) compile-all; fi")
	} else {
		writeln(sb, "$(GENERATED_SOURCES) $(GENERATED_HEADERS): compile")
		writeCommand(sb, "@if [ ! -f $@ ]; then rm -f compile; $(MAKE) compile; fi")
	}
	writeln(sb)

	writeln(sb, "check: ", all)
	writeCommand(sb, "$(TTCN3_DIR)/bin/compiler -s $(COMPILER_FLAGS) "+all)
	writeln(sb)

	writeln(sb, "port: ", all)
	writeCommand(sb, "$(TTCN3_DIR)/bin/compiler -t $(COMPILER_FLAGS) "+all)
	writeln(sb)

	writeln(sb, "compile: ", local)
	if m.central {
		writeCommand(sb, "$(TTCN3_DIR)/bin/compiler $(COMPILER_FLAGS)", all+" - $?")
	} else {
		writeCommand(sb, "$(TTCN3_DIR)/bin/compiler $(COMPILER_FLAGS) "+local+" - $?")
	}
	writeCommand(sb, "touch $@")
	writeln(sb)

	if !m.central {
		return
	}
	prereqs := m.moduleVars(false, true)
	for _, d := range m.reg.BaseDirs {
		if d.HasModules {
			prereqs = append(prereqs, registry.JoinPath(d.Path, "compile"))
		}
	}
	writeln(sb, "compile-all: ", join(prereqs...))
	if m.hasPP {
		writeCommand(sb, "$(MAKE) preprocess")
	}
	writeCommand(sb, "$(TTCN3_DIR)/bin/compiler $(COMPILER_FLAGS)", all+" - "+local)
	writeCommand(sb, "touch $@ compile")
	writeln(sb)
}

func (m *Makefile) writeClean(sb *strings.Builder) {
	files := []string{"$(EXECUTABLE)", "$(LIBRARY)", "$(OBJECTS)"}
	if m.opts.DynamicLinking {
		files = append(files, "$(SHARED_OBJECTS)")
	}
	files = append(files, "$(GENERATED_HEADERS)", "$(GENERATED_SOURCES)")
	if m.hasPP {
		files = append(files, "$(PREPROCESSED_TTCN3_MODULES)")
	}
	files = append(files, "compile")
	if m.central {
		files = append(files, "compile-all")
	}
	if m.opts.IncrementalDeps {
		files = append(files, "$(DEPFILES)")
	}

	writeln(sb, "clean:")
	writeCommand(sb, "-rm -f "+join(files...), "tags *.log")
	writeln(sb)
}

func (m *Makefile) writeDep(sb *strings.Builder) {
	if !m.opts.IncrementalDeps {
		writeln(sb, "dep: $(GENERATED_SOURCES) $(USER_SOURCES)")
		writeCommand(sb, "makedepend $(CPPFLAGS) -DMAKEDEPEND $(GENERATED_SOURCES) $(USER_SOURCES)")
		writeln(sb)
		return
	}

	writeln(sb, "dep: $(GENERATED_SOURCES) $(USER_SOURCES) ;")
	writeln(sb)

	// goals that never need the dependency files, including the recursive
	// preprocess run made by compile-all
	skip := []string{"clean", "check", "port", "compile", "archive", "diag"}
	if m.central {
		skip = append(skip, "compile-all")
	}
	if m.hasPP {
		skip = append(skip, "preprocess")
	}
	writeln(sb, "ifeq ($(findstring n,$(MAKEFLAGS)),)")
	writeln(sb, "ifeq ($(filter ", strings.Join(skip, " "), ",$(MAKECMDGOALS)),)")
	writeln(sb, "-include $(DEPFILES)")
	writeln(sb, "endif")
	writeln(sb, "endif")
	writeln(sb)
}

func (m *Makefile) writeArchive(sb *strings.Builder) {
	var files []string
	add := func(name string) {
		files = append(files, ref(name))
		if m.central {
			files = append(files, ref("BASE_"+name))
		}
	}
	add("TTCN3_MODULES")
	if m.hasPP {
		add("TTCN3_PP_MODULES")
	}
	if m.hasIncludes() {
		add("TTCN3_INCLUDES")
	}
	add("ASN1_MODULES")
	add("USER_HEADERS")
	add("USER_SOURCES")
	files = append(files, ref("OTHER_FILES"))

	writeln(sb, "archive:")
	writeCommand(sb, "mkdir -p $(ARCHIVE_DIR)")
	writeCommand(sb, "tar -cvhf - "+join(files...),
		"| gzip >$(ARCHIVE_DIR)/`basename $(TARGET) .exe`-`date '+%y%m%d-%H%M'`.tgz")
	writeln(sb)
}

func (m *Makefile) writeDiag(sb *strings.Builder) {
	writeln(sb, "diag:")
	writeCommand(sb, "$(TTCN3_DIR)/bin/compiler -v 2>&1")
	writeCommand(sb, "$(TTCN3_DIR)/bin/mctr_cli -v 2>&1")
	writeCommand(sb, "$(CXX) -v 2>&1")
	if m.hasPP {
		writeCommand(sb, "$(CPP) --version 2>&1")
	}
	writeCommand(sb, "@echo TTCN3_DIR=$(TTCN3_DIR)")
	if m.opts.CrossCompile {
		writeCommand(sb, "@echo TTCN3_TARGET_DIR=$(TTCN3_TARGET_DIR)")
		writeCommand(sb, "@echo CROSSTOOL_DIR=$(CROSSTOOL_DIR)")
	}
	writeCommand(sb, "@echo OPENSSL_DIR=$(OPENSSL_DIR)")
	writeCommand(sb, "@echo XMLDIR=$(XMLDIR)")
	writeCommand(sb, "@echo PLATFORM=$(PLATFORM)")
	writeln(sb)
}
