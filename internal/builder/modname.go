package builder

import (
	"os"
	"regexp"

	"github.com/qobs-build/titanmk/internal/registry"
)

var (
	cBlockComment = regexp.MustCompile(`(?s)/\*.*?\*/`)
	cLineComment  = regexp.MustCompile(`//[^\n]*`)
	asnComment    = regexp.MustCompile(`--.*?(--|\n|$)`)

	ttcnModuleDecl = regexp.MustCompile(`(?m)^\s*module\s+([A-Za-z][A-Za-z0-9_]*)`)
	asnModuleDecl  = regexp.MustCompile(`^\s*([A-Z][A-Za-z0-9-]*)\s*(\{[^}]*\})?\s*DEFINITIONS\b`)
)

// moduleNameOf returns the module name declared in src, or "" when there is none
func moduleNameOf(src []byte, kind registry.Kind) string {
	switch kind {
	case registry.KindTTCN3, registry.KindTTCN3PP:
		src = cBlockComment.ReplaceAll(src, []byte(" "))
		src = cLineComment.ReplaceAll(src, nil)
		if m := ttcnModuleDecl.FindSubmatch(src); m != nil {
			return string(m[1])
		}
	case registry.KindASN1:
		src = asnComment.ReplaceAll(src, []byte("\n"))
		if m := asnModuleDecl.FindSubmatch(src); m != nil {
			return string(m[1])
		}
	}
	return ""
}

// parseModuleName reads a module file and returns its declared name
func parseModuleName(path string, kind registry.Kind) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return moduleNameOf(src, kind), nil
}
