package manifest

import (
	"fmt"

	"dario.cat/mergo"
)

// disabledSentinel is the magic target value a local or patch FileEntry can
// use to elide a FileEntry selected by an earlier layer: local overrides
// win over package selections.
const disabledSentinel = "disabled"

// Layer is one fragment of manifest to be folded into a base Manifest:
// a package selection, the local override document, or the stdin patch
// overlay. Layers are applied in the order given to Merge, later layers
// winning.
type Layer struct {
	Files     map[TargetPath]FileEntry
	Variables VariableContext
	Helpers   map[string]SourcePath
	Recurse   map[SourcePath]struct{}
}

// Merge folds layers into base in order. Variables are deep-merged with
// later layers overriding earlier ones (dario.cat/mergo, WithOverride);
// Files/Helpers/Recurse are a later-wins union over matching keys, and any
// FileEntry whose target equals the "disabled" sentinel is elided from the
// result rather than replacing the earlier entry.
func Merge(base *Manifest, layers ...Layer) (*Manifest, error) {
	result := New()
	for k, v := range base.Files {
		result.Files[k] = v
	}
	for k, v := range base.Helpers {
		result.Helpers[k] = v
	}
	for k := range base.RecurseRules {
		result.RecurseRules[k] = struct{}{}
	}
	if err := mergo.Merge(&result.Variables, base.Variables, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("seeding base variables: %w", err)
	}

	for _, layer := range layers {
		for target, entry := range layer.Files {
			if string(entry.Target) == disabledSentinel || string(target) == disabledSentinel {
				delete(result.Files, target)
				continue
			}
			result.Files[target] = entry
		}

		for name, src := range layer.Helpers {
			result.Helpers[name] = src
		}

		for src := range layer.Recurse {
			result.RecurseRules[src] = struct{}{}
		}

		if len(layer.Variables) > 0 {
			if err := mergo.Merge(&result.Variables, layer.Variables, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
				return nil, fmt.Errorf("merging variable layer: %w", err)
			}
		}
	}

	return result, nil
}
