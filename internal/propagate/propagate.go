// Package propagate expands the explicit strategy map along reverse
// dependency edges.
package propagate

import (
	"github.com/monodeploy/cli/internal/core"
	"github.com/monodeploy/cli/internal/errors"
	"github.com/monodeploy/cli/internal/output"
	"github.com/monodeploy/cli/internal/workspace"
)

// Expand adds transitive dependents of explicitly-changed packages to the
// strategy map. A dependent not already in the map receives a patch bump
// with propagated origin; an existing entry keeps its (higher or equal)
// level. Peer edges propagate, optional edges do not. Private dependents
// are bumped locally so their ranges get rewritten, but they never produce
// a release descriptor.
//
// The traversal is a breadth-first fixed point: a package is enqueued at
// most once, so it completes in at most V visits and never lowers a level.
func Expand(explicit core.StrategyMap, ws *workspace.Workspace) (core.StrategyMap, error) {
	expanded := core.StrategyMap{}
	queue := make([]string, 0, len(explicit))
	for _, name := range explicit.Names() {
		if ws.Package(name) == nil {
			return nil, errors.Workspacef("strategy references unknown package %s", name)
		}
		expanded[name] = explicit[name]
		queue = append(queue, name)
	}

	dependents := ws.Dependents()
	enqueued := make(map[string]struct{}, len(queue))
	for _, name := range queue {
		enqueued[name] = struct{}{}
	}

	for len(queue) > 0 {
		provider := queue[0]
		queue = queue[1:]

		for _, edge := range dependents[provider] {
			consumer := edge.Consumer
			if _, known := expanded[consumer]; !known {
				expanded.Merge(consumer, core.VersionStrategy{
					Level:  core.Patch,
					Origin: core.OriginPropagated,
				})
				output.Debug("propagated bump",
					"package", consumer,
					"provider", provider,
					"kind", string(edge.Kind),
				)
			}
			if _, visited := enqueued[consumer]; !visited {
				enqueued[consumer] = struct{}{}
				queue = append(queue, consumer)
			}
		}
	}
	return expanded, nil
}
