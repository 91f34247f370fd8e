// Package render renders manifest templates into deployable bytes. It
// knows nothing about targets, the cache, or the plan — only how to turn
// template bytes plus a variable context into rendered bytes, deterministically.
package render

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/go-sprout/sprout"

	"github.com/dotter-go/dotter/internal/direrr"
	"github.com/dotter-go/dotter/internal/manifest"
	"github.com/dotter-go/dotter/internal/platform"
)

// data is what a template sees as "."; Vars carries the manifest's merged
// variable context; OS, Distro, Hostname, User and Env carry the host facts
// NewContextFromPlatform used to expose in the teacher's template package.
type data struct {
	Vars     manifest.VariableContext
	OS       string
	Distro   string
	Hostname string
	User     string
	Env      map[string]string
}

// HelperSet maps a helper name (as used inside templates, e.g. `helper
// "work_email"`) to the absolute path of the script that produces its
// value. Resolving manifest.Helpers (repo-relative SourcePaths) into
// absolute paths is the caller's job, keeping this package free of any
// notion of a repository root.
type HelperSet map[string]string

// Engine renders templates against a fixed platform context.
type Engine struct {
	platformData data
}

// New builds an Engine bound to the given platform snapshot. Env is seeded
// from the process environment with platform.EnvVars overriding it, the
// same precedence the teacher's template.Context used.
func New(p *platform.Platform) *Engine {
	env := make(map[string]string)
	for _, e := range os.Environ() {
		if k, v, ok := strings.Cut(e, "="); ok {
			env[k] = v
		}
	}
	for k, v := range p.EnvVars {
		env[k] = v
	}

	return &Engine{platformData: data{
		OS:       p.OS,
		Distro:   p.Distro,
		Hostname: p.Hostname,
		User:     p.User,
		Env:      env,
	}}
}

// Render renders templateBytes against vars and the engine's bound
// platform context, with helpers resolvable by name via the `helper`
// template function. Render is deterministic for identical inputs: the
// same template, vars, and helper outputs always produce the same bytes.
func (e *Engine) Render(source string, templateBytes []byte, vars manifest.VariableContext, helpers HelperSet) ([]byte, error) {
	funcs := e.funcMap(helpers)

	tmpl, err := template.New(source).Funcs(funcs).Parse(string(templateBytes))
	if err != nil {
		return nil, &direrr.RenderError{Source: source, Err: fmt.Errorf("parsing template: %w", err)}
	}

	d := e.platformData
	d.Vars = vars

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d); err != nil {
		return nil, &direrr.RenderError{Source: source, Err: fmt.Errorf("executing template: %w", err)}
	}

	return buf.Bytes(), nil
}

// nondeterministicFuncs names sprout (sprig-derived) functions whose output
// depends on wall-clock time, OS randomness, or other process-external
// state: the date/time registry (now and anything that measures against
// it), the random-string registry, and the crypto/uuid registries that
// generate fresh keys or identifiers on every call. Render must produce
// identical bytes for identical inputs — a
// template calling one of these would make the Planner see a spurious
// Changed classification on every run with no manifest change, so these
// never reach the registered FuncMap.
var nondeterministicFuncs = []string{
	"now", "date", "dateInZone", "dateModify", "mustDateModify", "ago",
	"toDate", "mustToDate", "duration", "durationRound",
	"htmlDate", "htmlDateInZone", "unixEpoch",
	"randAlphaNumeric", "randAlpha", "randNumeric", "randAscii", "randInt",
	"uuidv4",
	"htpasswd",
	"genPrivateKey", "genCA", "genCAWithKey",
	"genSelfSignedCert", "genSelfSignedCertWithKey",
	"genSignedCert", "genSignedCertWithKey",
}

// funcMap assembles the helper functions available inside a template: the
// sprout standard library minus nondeterministicFuncs, plus Dotter's own
// built-ins (arithmetic, host facts, user-supplied helper scripts).
func (e *Engine) funcMap(helpers HelperSet) template.FuncMap {
	handler := sprout.New()
	funcs := handler.Build()

	for _, name := range nondeterministicFuncs {
		delete(funcs, name)
	}

	funcs["calc"] = evalArithmetic
	funcs["hostname"] = func() string { return e.platformData.Hostname }
	funcs["helper"] = func(name string, args ...string) (string, error) {
		return runHelper(helpers, name, args...)
	}

	return funcs
}
