package plan

import (
	"path/filepath"
	"sort"

	"github.com/dotter-go/dotter/internal/manifest"
)

func joinPath(base, rel string) string {
	return filepath.Join(base, rel)
}

// sortTargets orders targets lexically, the determinism rule ordering rule
// 4 depends on within a single action kind.
func sortTargets(targets []manifest.TargetPath) {
	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
}

func sortRemoveActions(actions []Action) {
	sort.Slice(actions, func(i, j int) bool { return actions[i].Target < actions[j].Target })
}

// planDirRemovals decides which of the cache's created_dirs are candidates
// for removal: a directory is a candidate once every file planned for
// removal that lived under it is accounted for and it holds nothing else.
// Consent (AutoConfirmEmptyDirRemoval or an interactive Confirmer) gates
// whether the candidate becomes a RemoveCreatedDir action or a SkipAction.
func planDirRemovals(in Inputs, opts Options, removedTargets map[manifest.TargetPath]struct{}) []Action {
	if len(in.Cache.CreatedDirs) == 0 {
		return nil
	}

	dirs := make([]string, 0, len(in.Cache.CreatedDirs))
	for d := range in.Cache.CreatedDirs {
		dirs = append(dirs, d)
	}
	dirs = reverseDepthOrder(dirs)

	var actions []Action
	removedDirs := make(map[string]struct{})
	for _, dir := range dirs {
		children, err := in.FS.ListDir(dir)
		if err != nil {
			// Can't tell what's in it; leave the created_dirs record alone
			// so it's reconsidered next run rather than guessed at now.
			actions = append(actions, Action{Kind: SkipAction, Dir: dir, Reason: "dir_not_removed"})
			continue
		}

		// Empty-after-removal: every remaining child must itself be one of
		// the targets or created directories this plan is about to remove.
		// Anything else is content Dotter didn't put there, so it's no
		// longer Dotter's directory to track: ForgetDir, so a future run
		// doesn't keep retrying removal of a directory that was never
		// really Dotter's.
		emptyAfterRemoval := true
		for _, child := range children {
			childPath := filepath.Join(dir, child)
			_, fileRemoved := removedTargets[manifest.TargetPath(childPath)]
			_, dirRemoved := removedDirs[childPath]
			if !fileRemoved && !dirRemoved {
				emptyAfterRemoval = false
				break
			}
		}
		if !emptyAfterRemoval {
			actions = append(actions, Action{Kind: SkipAction, Dir: dir, Reason: "dir_not_removed", ForgetDir: true})
			continue
		}

		consented := opts.AutoConfirmEmptyDirRemoval
		if !consented && opts.Confirm != nil {
			consented = opts.Confirm.Confirm("remove empty directory " + dir + "?")
		}
		if !consented {
			actions = append(actions, Action{Kind: SkipAction, Dir: dir, Reason: "dir_not_removed"})
			continue
		}
		actions = append(actions, Action{Kind: RemoveCreatedDir, Dir: dir})
		removedDirs[dir] = struct{}{}
	}

	return actions
}
