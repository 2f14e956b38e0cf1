package framework

var (
	netStandard20 = V(2, 0)
	netStandard21 = V(2, 1)
	netCore30     = V(3, 0)
)

// BestMatch picks the framework of a referenced project that a consumer
// targeting target should build against.
//
// An exact match wins. Otherwise the highest same-family framework not newer
// than target and on a compatible platform is chosen. NetStandard consumers
// stop there. Everything else falls back to the highest NetStandard the
// consumer can load (2.0, or 2.1 for NetCore 3.0 and later).
func BestMatch(target TargetFramework, candidates []TargetFramework) (TargetFramework, bool) {
	if Contains(candidates, target) {
		return target, true
	}

	var best TargetFramework
	found := false
	for _, c := range candidates {
		if c.kind != target.kind || c.version.Compare(target.version) > 0 {
			continue
		}
		if c.platform != Agnostic && c.platform != target.platform {
			continue
		}
		if !found || c.version.Compare(best.version) > 0 {
			best, found = c, true
		}
	}
	if found {
		return best, true
	}

	// NetStandard only depends on NetStandard so the project stays portable.
	if target.kind == NetStandard {
		return TargetFramework{}, false
	}

	limit := netStandard20
	if target.kind == NetCore && target.version.Compare(netCore30) >= 0 {
		limit = netStandard21
	}

	for _, c := range candidates {
		if c.kind != NetStandard || c.version.Compare(limit) > 0 {
			continue
		}
		if !found || c.version.Compare(best.version) > 0 {
			best, found = c, true
		}
	}
	return best, found
}

// ClosestHigher returns the lowest candidate of the same family that is at
// least as new as target and runs on its platform.
func ClosestHigher(target TargetFramework, candidates []TargetFramework) (TargetFramework, bool) {
	var best TargetFramework
	found := false
	for _, c := range candidates {
		if c.kind != target.kind || c.version.Compare(target.version) < 0 {
			continue
		}
		if target.platform != Agnostic && target.platform != c.platform {
			continue
		}
		if !found || c.Compare(best) < 0 {
			best, found = c, true
		}
	}
	return best, found
}

// IsCompatibleReference reports whether a project targeting target may
// reference a project built for ref.
func IsCompatibleReference(target, ref TargetFramework) bool {
	if target.Equal(ref) {
		return true
	}

	if target.kind == ref.kind {
		return target.version.Compare(ref.version) >= 0 &&
			(ref.platform == Agnostic || target.platform == ref.platform)
	}

	if ref.kind != NetStandard {
		return false
	}

	if ref.version.Compare(netStandard20) > 0 {
		return target.kind == NetCore && target.version.Compare(netCore30) >= 0
	}
	return true
}

// SetIsValid reports whether every member of set can be referenced from target
// and the set does not mix .NET Framework with .NET Core.
func SetIsValid(target TargetFramework, set []TargetFramework) bool {
	hasFramework, hasCore := false, false
	for _, f := range set {
		switch f.kind {
		case NetFramework:
			hasFramework = true
		case NetCore:
			hasCore = true
		}
		if !IsCompatibleReference(target, f) {
			return false
		}
	}
	return !(hasFramework && hasCore)
}
