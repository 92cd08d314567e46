package registry

// Naming holds one regularity flag per artifact collection. A true flag lets
// the generator write a suffix substitution instead of listing every file.
type Naming struct {
	TTCN3, BaseTTCN3             bool
	TTCN3PP, BaseTTCN3PP         bool
	ASN1, BaseASN1               bool
	UserSources, BaseUserSources bool
	UserHeaders, BaseUserHeaders bool
}

func allRegular[T Homed](r *Registry, items []T, local bool, regular func(T) bool) bool {
	for _, it := range items {
		if r.IsLocal(it.Home()) != local {
			continue
		}
		if !regular(it) {
			return false
		}
	}
	return true
}

// DetectNaming computes the regularity flag of every collection; each flag
// is evaluated independently of the others.
func (r *Registry) DetectNaming() Naming {
	module := func(m *Module) bool { return m.IsRegular() }
	source := func(n *NativeArtifact) bool { return n.SourceIsRegular() }
	header := func(n *NativeArtifact) bool { return n.HeaderIsRegular() }

	return Naming{
		TTCN3:           allRegular(r, r.TTCN3Modules, true, module),
		BaseTTCN3:       allRegular(r, r.TTCN3Modules, false, module),
		TTCN3PP:         allRegular(r, r.TTCN3PPModules, true, module),
		BaseTTCN3PP:     allRegular(r, r.TTCN3PPModules, false, module),
		ASN1:            allRegular(r, r.ASN1Modules, true, module),
		BaseASN1:        allRegular(r, r.ASN1Modules, false, module),
		UserSources:     allRegular(r, r.UserFiles, true, source),
		BaseUserSources: allRegular(r, r.UserFiles, false, source),
		UserHeaders:     allRegular(r, r.UserFiles, true, header),
		BaseUserHeaders: allRegular(r, r.UserFiles, false, header),
	}
}
