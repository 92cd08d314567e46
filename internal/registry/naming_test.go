package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectNaming(t *testing.T) {
	t.Run("all regular", func(t *testing.T) {
		r := New()
		r.AddModule(&Module{Name: "Foo", FileName: "Foo.ttcn", Kind: KindTTCN3})
		r.AddModule(&Module{Name: "Bar", FileName: "Bar.asn", Kind: KindASN1})
		r.AddNative(KindSource, "port.cc", "", "/p/port.cc", "")
		r.AddNative(KindHeader, "port.hh", "", "/p/port.hh", "")

		n := r.DetectNaming()
		assert.True(t, n.TTCN3)
		assert.True(t, n.ASN1)
		assert.True(t, n.UserSources)
		assert.True(t, n.UserHeaders)
		assert.True(t, n.BaseTTCN3, "empty collections are regular")
	})

	t.Run("module name differs from file name", func(t *testing.T) {
		r := New()
		r.AddModule(&Module{Name: "Foo", FileName: "Foo.ttcn", Kind: KindTTCN3})
		r.AddModule(&Module{Name: "Bar", FileName: "Baz.ttcn", Kind: KindTTCN3})
		r.AddModule(&Module{Name: "Proto", FileName: "Proto.asn", Kind: KindASN1})

		n := r.DetectNaming()
		assert.False(t, n.TTCN3)
		assert.True(t, n.ASN1, "flags are independent")
	})

	t.Run("non canonical extensions", func(t *testing.T) {
		r := New()
		r.AddModule(&Module{Name: "Foo", FileName: "Foo.ttcn3", Kind: KindTTCN3})
		r.AddNative(KindSource, "port.c", "", "/p/port.c", "")

		n := r.DetectNaming()
		assert.False(t, n.TTCN3)
		assert.False(t, n.UserSources)
		assert.False(t, n.UserHeaders)
	})

	t.Run("local and shared halves are separate", func(t *testing.T) {
		r := New()
		r.AddBaseDir("/base", "/base")
		r.AddModule(&Module{Name: "Local", FileName: "Local.ttcn", Kind: KindTTCN3})
		r.AddModule(&Module{Name: "Other", FileName: "Shared.ttcn", Kind: KindTTCN3, HomeDir: "/base"})

		n := r.DetectNaming()
		assert.True(t, n.TTCN3)
		assert.False(t, n.BaseTTCN3)
	})
}

// A true flag means every member's generated name is the suffix substitution
// of its file name; a false flag means at least one member breaks it.
func TestNamingRegularityInvariant(t *testing.T) {
	sets := [][]*Module{
		{{Name: "A", FileName: "A.ttcn"}, {Name: "B", FileName: "B.ttcn"}},
		{{Name: "A", FileName: "A.ttcn"}, {Name: "X", FileName: "B.ttcn"}},
		{{Name: "A-B", FileName: "A_B.ttcn"}},
		{{Name: "A-B", FileName: "A-B.ttcn"}},
	}
	for _, set := range sets {
		r := New()
		for _, m := range set {
			m.Kind = KindTTCN3
			r.AddModule(m)
		}
		flag := r.DetectNaming().TTCN3

		holds := true
		for _, m := range r.TTCN3Modules {
			substituted := strings.TrimSuffix(m.FileName, ExtTTCN3) + ExtGenSource
			if substituted != m.GeneratedSources(false)[0] {
				holds = false
			}
		}
		assert.Equal(t, holds, flag)
	}
}
