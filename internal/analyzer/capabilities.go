package analyzer

import (
	"strings"

	"github.com/funvibe/iris/internal/ast"
	"github.com/funvibe/iris/internal/config"
	"github.com/funvibe/iris/internal/diagnostics"
	"github.com/funvibe/iris/internal/token"
	"github.com/funvibe/iris/internal/typesystem"
)

// effectCapabilities lists what a host must grant to run code of each
// effect.
var effectCapabilities = map[typesystem.Effect][]config.Capability{
	typesystem.EffIO:  {config.CapIO},
	typesystem.EffNet: {config.CapNet},
	typesystem.EffAny: {config.CapIO, config.CapNet},
}

// checkCapabilities verifies that the profile grants every capability
// the functions and tools need: those implied by their effect and those
// named in their caps section.
func (a *Analyzer) checkCapabilities() {
	if _, ok := config.Profiles[a.profile]; !ok {
		a.addError(diagnostics.NewError(diagnostics.ErrC001, token.Token{}, "Unknown capability profile: "+a.profile))
		return
	}
	for _, def := range a.program.Defs {
		var meta ast.Meta
		switch d := def.(type) {
		case *ast.DefFn:
			meta = d.Meta
		case *ast.DefTool:
			meta = d.Meta
		default:
			continue
		}

		required := append([]config.Capability(nil), effectCapabilities[a.summaries[def.DefName()].Eff]...)
		for _, c := range meta.Caps {
			name := typeName(c.Type)
			capability, ok := config.CapabilityByName(name)
			if !ok {
				a.addError(newError(diagnostics.ErrC001, def, "Unknown capability %s in %s", name, def.DefName()))
				continue
			}
			required = append(required, capability)
		}

		missing := config.MissingCapabilities(required, a.profile)
		if len(missing) == 0 {
			continue
		}
		names := make([]string, len(missing))
		for i, m := range missing {
			names[i] = string(m)
		}
		a.addError(newError(diagnostics.ErrC001, def, "%s requires %s, not granted by profile %s", def.DefName(), strings.Join(names, ", "), a.profile))
	}
}

// typeName reads the capability named by a caps entry, which is written
// as a type: (caps (fs FS)).
func typeName(t typesystem.Type) string {
	if n, ok := t.(typesystem.TNamed); ok {
		return n.Name
	}
	return strings.TrimPrefix(t.String(), "!")
}
