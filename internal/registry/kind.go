package registry

import (
	"path"
	"strings"
)

// Kind is the role a file plays in the build
type Kind int

const (
	KindMisc Kind = iota
	KindTTCN3
	KindTTCN3PP
	KindTTCN3Include
	KindASN1
	KindSource
	KindHeader
)

var kindNames = [...]string{
	KindMisc:         "misc",
	KindTTCN3:        "ttcn3",
	KindTTCN3PP:      "ttcn3pp",
	KindTTCN3Include: "ttcn3-include",
	KindASN1:         "asn1",
	KindSource:       "source",
	KindHeader:       "header",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// IsModule reports whether files of this kind declare a module name
func (k Kind) IsModule() bool {
	return k == KindTTCN3 || k == KindTTCN3PP || k == KindASN1
}

// IsNative reports whether files of this kind are user C/C++ files
func (k Kind) IsNative() bool {
	return k == KindSource || k == KindHeader
}

// Canonical extensions, the only ones a suffix substitution rule can match
const (
	ExtTTCN3     = ".ttcn"
	ExtTTCN3PP   = ".ttcnpp"
	ExtInclude   = ".ttcnin"
	ExtASN1      = ".asn"
	ExtSource    = ".cc"
	ExtHeader    = ".hh"
	ExtObject    = ".o"
	ExtShared    = ".so"
	ExtDepend    = ".d"
	ExtGenSource = ".cc"
	ExtGenHeader = ".hh"
)

var extensionKinds = map[string]Kind{
	".ttcn":   KindTTCN3,
	".ttcn3":  KindTTCN3,
	".ttcnpp": KindTTCN3PP,
	".ttcnin": KindTTCN3Include,
	".asn":    KindASN1,
	".asn1":   KindASN1,
	".cc":     KindSource,
	".c":      KindSource,
	".cpp":    KindSource,
	".hh":     KindHeader,
	".h":      KindHeader,
	".hpp":    KindHeader,
}

// KindOf classifies a file by its extension
func KindOf(fileName string) Kind {
	if k, ok := extensionKinds[path.Ext(fileName)]; ok {
		return k
	}
	return KindMisc
}

// CanonicalExt returns the extension that generic rules are written for
func (k Kind) CanonicalExt() string {
	switch k {
	case KindTTCN3:
		return ExtTTCN3
	case KindTTCN3PP:
		return ExtTTCN3PP
	case KindTTCN3Include:
		return ExtInclude
	case KindASN1:
		return ExtASN1
	case KindSource:
		return ExtSource
	case KindHeader:
		return ExtHeader
	}
	return ""
}

// Stem returns the file name without its final extension
func Stem(fileName string) string {
	return strings.TrimSuffix(fileName, path.Ext(fileName))
}

// SplitSuffixes are the generated-file variants a module fans into when the
// compiler splits code by type.
var SplitSuffixes = []string{"", "_seq", "_seqof", "_set", "_setof", "_union"}

// GeneratedSuffixes returns the variants a single generated base name has
func GeneratedSuffixes(split bool) []string {
	if split {
		return SplitSuffixes
	}
	return SplitSuffixes[:1]
}
