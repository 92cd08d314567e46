package builder

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/qobs-build/titanmk/internal/registry"
)

// pathFields yields a pointer to every directory field of the registry the
// Makefile refers to
func pathFields(reg *registry.Registry) []*string {
	var fields []*string
	for _, coll := range [][]*registry.Module{reg.TTCN3Modules, reg.TTCN3PPModules, reg.ASN1Modules} {
		for _, m := range coll {
			fields = append(fields, &m.Dir, &m.HomeDir)
		}
	}
	for _, f := range reg.Includes {
		fields = append(fields, &f.Dir, &f.WorkDir, &f.HomeDir)
	}
	for _, n := range reg.UserFiles {
		fields = append(fields, &n.Dir, &n.HomeDir)
	}
	for _, f := range reg.OtherFiles {
		fields = append(fields, &f.Dir)
	}
	for _, d := range reg.BaseDirs {
		fields = append(fields, &d.Path)
	}
	for _, d := range reg.IncludeDirs {
		fields = append(fields, &d.Path)
	}
	return fields
}

// relPath rewrites an absolute path relative to wd. The working directory
// itself becomes ".", so a home directory never turns into "" (local).
func relPath(wd, p string) string {
	if p == "" || !filepath.IsAbs(p) {
		return p
	}
	rel, err := filepath.Rel(wd, p)
	if err != nil {
		return p
	}
	return rel
}

// relativize rewrites every absolute directory relative to the working
// directory the Makefile runs in
func relativize(reg *registry.Registry, wd string) {
	for _, f := range pathFields(reg) {
		*f = relPath(wd, *f)
	}
}

var drivePrefix = regexp.MustCompile(`^([A-Za-z]):(/|$)`)

// cygwinPath converts a Windows path to the form the Cygwin make and shell
// understand, e.g. C:\work\src to /cygdrive/c/work/src
func cygwinPath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if m := drivePrefix.FindStringSubmatch(p); m != nil {
		rest := strings.TrimPrefix(p[len(m[0]):], "/")
		p = "/cygdrive/" + strings.ToLower(m[1])
		if rest != "" {
			p += "/" + rest
		}
	}
	return p
}

// platformize converts every directory to the syntax of the make that will
// run the Makefile
func platformize(reg *registry.Registry, platform string) {
	for _, f := range pathFields(reg) {
		if platform == platformWindows {
			*f = cygwinPath(*f)
		} else {
			*f = filepath.ToSlash(*f)
		}
	}
}
