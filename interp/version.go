package interp

import "golang.org/x/mod/semver"

// ModuleNeeds is one entry of a module header's `Needs:` clause, spec.md
// §6.2's module-loading surface: a required module name plus a minimum
// semantic version.
type ModuleNeeds struct {
	Name    string
	MinVer  string // "vMAJOR.MINOR.PATCH", semver.IsValid format
}

// CheckNeeds verifies that every entry in needs is satisfied by the
// corresponding available version, using golang.org/x/mod/semver for
// comparison — grounded on the teacher's go.mod, which already depends on
// golang.org/x/mod (yaegi uses it for Go module path handling); no pack
// repo does semantic-version comparison directly, so this reuses the same
// dependency for the adjacent concern rather than hand-rolling a
// dotted-version comparator.
func CheckNeeds(needs []ModuleNeeds, available map[string]string) error {
	for _, n := range needs {
		have, ok := available[n.Name]
		if !ok {
			return newError("access", "needs-missing", "module %q is required but not available", n.Name)
		}
		if !semver.IsValid(n.MinVer) || !semver.IsValid(have) {
			return newError("script", "needs-bad-version", "module %q has an unparseable version", n.Name)
		}
		if semver.Compare(have, n.MinVer) < 0 {
			return newError("access", "needs-outdated", "module %q requires at least %s, have %s", n.Name, n.MinVer, have)
		}
	}
	return nil
}

// CanonicalVersion normalizes a version string to semver's canonical form,
// e.g. "1.2" -> "v1.2.0", used when molding a module header back to text.
func CanonicalVersion(v string) string {
	if len(v) == 0 || v[0] != 'v' {
		v = "v" + v
	}
	return semver.Canonical(v)
}

// ModuleHeader is the parsed header of a module script: its identity plus
// the `Needs:` requirements checked before any of the body runs.
type ModuleHeader struct {
	Name    string
	Version string
	Needs   []ModuleNeeds
}

// MakeModule is the `make module!` operation: it verifies the header's
// Needs against the modules already loaded in this interpreter, builds a
// module! context with one slot per top-level set-word of body, binds body
// against the root context and then the module's own slots (so module
// words shadow lib words), evaluates the body, and registers the module's
// version so later headers can require it. A failed Needs check runs
// nothing.
func (interp *Interpreter) MakeModule(header ModuleHeader, body *Series) (*Context, error) {
	if err := CheckNeeds(header.Needs, interp.modules); err != nil {
		return nil, err
	}
	ctx := NewModuleContext()
	for _, c := range body.Cells() {
		if c.Kind() == KindSetWord && c.sym != nil {
			if ctx.slotIndex(c.sym) < 0 {
				ctx.Put(c.sym, Null())
			}
		}
	}
	BindWords(body, interp.root, true)
	BindWords(body, ctx, true)

	ef := NewEvalFrame(interp, body, &Specifier{}, nil)
	if _, err := interp.RunToEnd(ef); err != nil {
		return nil, err
	}
	if header.Name != "" {
		ver := header.Version
		if ver == "" {
			ver = "0.0.0"
		}
		interp.modules[header.Name] = CanonicalVersion(ver)
	}
	return ctx, nil
}
