package builder

import (
	"testing"

	"github.com/qobs-build/titanmk/internal/registry"
	"github.com/stretchr/testify/assert"
)

func TestModuleNameOf(t *testing.T) {
	for _, tt := range []struct {
		name string
		kind registry.Kind
		src  string
		want string
	}{
		{"ttcn", registry.KindTTCN3, "module Foo {\n}\n", "Foo"},
		{"ttcn language clause", registry.KindTTCN3, "module Foo language \"TTCN-3:2016\" {}", "Foo"},
		{"ttcn after comments", registry.KindTTCN3, "// module Wrong\n/* module Other\n */\nmodule Right {}", "Right"},
		{"ttcn indented", registry.KindTTCN3, "\n\t  module Indented_1 {}", "Indented_1"},
		{"ttcnpp", registry.KindTTCN3PP, "#include \"defs.ttcnin\"\nmodule Pre {\n}", "Pre"},
		{"ttcn without module", registry.KindTTCN3, "type integer I;", ""},
		{"asn1", registry.KindASN1, "MyTypes DEFINITIONS AUTOMATIC TAGS ::= BEGIN END", "MyTypes"},
		{"asn1 with dashes", registry.KindASN1, "My-Types DEFINITIONS ::= BEGIN END", "My-Types"},
		{"asn1 with oid", registry.KindASN1, "-- header comment\nMy-Types { iso(1) 2 } DEFINITIONS ::= BEGIN END", "My-Types"},
		{"asn1 inline comment", registry.KindASN1, "Types -- the types -- DEFINITIONS ::= BEGIN END", "Types"},
		{"asn1 garbage", registry.KindASN1, "this is not asn.1", ""},
		{"misc", registry.KindMisc, "module Foo {}", ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, moduleNameOf([]byte(tt.src), tt.kind))
		})
	}
}
