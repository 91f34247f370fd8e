package manifestio

import (
	"strings"

	"github.com/dotter-go/dotter/internal/manifest"
	"github.com/dotter-go/dotter/internal/render"
)

// evaluateWhen decides whether a package document is selected for the
// current host. An empty when is always true. The expression is rendered
// as a template against vars and the platform facts already bound into
// renderer; a render error or any output other than the literal string
// "true" (after trimming) means the package is skipped, not fatal to the
// rest of the load.
func evaluateWhen(when string, renderer *render.Engine, vars manifest.VariableContext) bool {
	if strings.TrimSpace(when) == "" {
		return true
	}
	if renderer == nil {
		return false
	}

	out, err := renderer.Render("when", []byte(when), vars, nil)
	if err != nil {
		return false
	}

	return strings.TrimSpace(string(out)) == "true"
}
