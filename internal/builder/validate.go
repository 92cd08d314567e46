package builder

import (
	"fmt"
	"slices"
	"strings"

	"github.com/qobs-build/titanmk/internal/registry"
)

// characters make or the shell would interpret inside a file name
const unsafeChars = " *?[]<=>|&$%{};:()#!'\"`\\"

// InvalidPathsError lists every artifact whose path cannot be written into a
// Makefile
type InvalidPathsError struct {
	Paths []string
}

func (e *InvalidPathsError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d file name(s) contain characters make cannot handle (%s):", len(e.Paths), unsafeChars)
	for _, p := range e.Paths {
		sb.WriteString("\n    ")
		sb.WriteString(p)
	}
	return sb.String()
}

func artifactPaths(reg *registry.Registry) []string {
	var paths []string
	for _, coll := range [][]*registry.Module{reg.TTCN3Modules, reg.TTCN3PPModules, reg.ASN1Modules} {
		for _, m := range coll {
			paths = append(paths, m.Path(), m.HomeDir)
		}
	}
	for _, f := range reg.Includes {
		paths = append(paths, f.Path(), f.HomeDir)
	}
	for _, n := range reg.UserFiles {
		paths = append(paths, n.SourcePath(), n.HeaderPath(), n.HomeDir)
	}
	for _, f := range reg.OtherFiles {
		paths = append(paths, f.Path())
	}
	for _, d := range reg.BaseDirs {
		if d.HasModules {
			paths = append(paths, d.Path)
		}
	}
	for _, d := range reg.IncludeDirs {
		paths = append(paths, d.Path)
	}
	return paths
}

// validatePaths checks every path and reports all offending ones at once
func validatePaths(reg *registry.Registry) error {
	var bad []string
	for _, p := range artifactPaths(reg) {
		if p != "" && strings.ContainsAny(p, unsafeChars) {
			bad = append(bad, p)
		}
	}
	if len(bad) == 0 {
		return nil
	}
	slices.Sort(bad)
	return &InvalidPathsError{Paths: slices.Compact(bad)}
}
