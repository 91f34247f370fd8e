package manifestio

// ownerDoc is the TOML shape of a FileEntry's ownership override.
type ownerDoc struct {
	User  string `toml:"user"`
	Group string `toml:"group"`
}

// fileDoc is the TOML shape of one file entry, keyed by its target path in
// the enclosing packageDoc.Files map.
type fileDoc struct {
	Source string    `toml:"source"`
	Kind   string    `toml:"kind"` // "symlink" (default) or "template"
	Owner  *ownerDoc `toml:"owner"`

	// Target overrides the FileEntry's Target field away from the map key
	// it's declared under. The only legitimate use is the "disabled"
	// sentinel: a patch overlay entry keyed by the target
	// it wants to elide, with Target set to "disabled" so Merge drops it.
	Target string `toml:"target"`
}

// packageDoc is one named package in global.toml: a when-filtered bundle
// of files, variables, helpers and recurse rules.
type packageDoc struct {
	When      string                 `toml:"when"`
	Files     map[string]fileDoc     `toml:"files"`
	Variables map[string]any         `toml:"variables"`
	Helpers   map[string]string      `toml:"helpers"`
	Recurse   []string               `toml:"recurse"`
}

// globalDoc is the root shape of global.toml.
type globalDoc struct {
	Packages map[string]packageDoc `toml:"packages"`
}

// localDoc is the root shape of local.toml: which packages this host
// selects, plus host-local variable overrides. An empty Packages list
// means "every package whose when-expression matches", so a fresh
// local.toml with no selection still deploys a when-less global.toml.
type localDoc struct {
	Packages  []string       `toml:"packages"`
	Variables map[string]any `toml:"variables"`
}

// patchDoc is the shape of the stdin patch overlay under --patch: a single
// anonymous package fragment applied last, same shape as packageDoc minus
// the when-expression (a patch always applies unconditionally).
type patchDoc struct {
	Files     map[string]fileDoc `toml:"files"`
	Variables map[string]any     `toml:"variables"`
	Helpers   map[string]string  `toml:"helpers"`
	Recurse   []string           `toml:"recurse"`
}
