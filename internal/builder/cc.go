package builder

import (
	"os"
	"os/exec"
)

const (
	fallbackCompiler     = "g++"
	fallbackPreprocessor = "cpp"
)

var commonCxxCompilers = []string{"g++", "clang++"}

// lookPath is swapped out in tests
var lookPath = exec.LookPath

// findCompiler picks the C++ compiler written into CXX when the project does
// not name one: $CXX, then the configured fallback, then the first known
// compiler on PATH, then g++.
func findCompiler(configured string) string {
	if cxx := os.Getenv("CXX"); cxx != "" {
		return cxx
	}
	if configured != "" {
		return configured
	}
	for _, compiler := range commonCxxCompilers {
		if _, err := lookPath(compiler); err == nil {
			return compiler
		}
	}
	return fallbackCompiler
}
