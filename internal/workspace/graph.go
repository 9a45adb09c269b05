package workspace

import (
	"sort"
	"strings"

	"github.com/monodeploy/cli/internal/errors"
)

// Edge is a directed dependency edge consumer → provider between two
// workspace packages. Edges carry the manifest section and declared range.
type Edge struct {
	Consumer string
	Provider string
	Kind     DependencyKind
	Range    string
}

// Edges returns every in-workspace dependency edge, sorted by consumer,
// provider, then kind for deterministic iteration.
func (ws *Workspace) Edges() []Edge {
	var edges []Edge
	for _, consumer := range ws.Packages() {
		for _, kind := range DependencyKinds {
			section := consumer.Manifest.DependencySection(kind)
			for provider, rng := range section {
				if ws.packages[provider] == nil {
					continue
				}
				edges = append(edges, Edge{
					Consumer: consumer.Name,
					Provider: provider,
					Kind:     kind,
					Range:    rng,
				})
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Consumer != edges[j].Consumer {
			return edges[i].Consumer < edges[j].Consumer
		}
		if edges[i].Provider != edges[j].Provider {
			return edges[i].Provider < edges[j].Provider
		}
		return edges[i].Kind < edges[j].Kind
	})
	return edges
}

// Dependents returns the reverse adjacency: provider → consumers. Optional
// edges never appear; version propagation does not traverse them.
func (ws *Workspace) Dependents() map[string][]Edge {
	out := make(map[string][]Edge)
	for _, e := range ws.Edges() {
		if e.Kind == KindOptional {
			continue
		}
		out[e.Provider] = append(out[e.Provider], e)
	}
	return out
}

// DetectCycle rejects dependency cycles among non-private packages. Private
// packages may close cycles freely; they never publish, so ordering does
// not matter for them.
func (ws *Workspace) DetectCycle() error {
	adj := make(map[string][]string)
	for _, e := range ws.Edges() {
		if ws.packages[e.Consumer].Private() || ws.packages[e.Provider].Private() {
			continue
		}
		adj[e.Consumer] = append(adj[e.Consumer], e.Provider)
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	state := make(map[string]int)
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		state[name] = gray
		stack = append(stack, name)
		for _, next := range adj[name] {
			switch state[next] {
			case gray:
				// Close the loop for the error message.
				i := 0
				for ; i < len(stack); i++ {
					if stack[i] == next {
						break
					}
				}
				return append(append([]string{}, stack[i:]...), next)
			case white:
				if cycle := visit(next); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[name] = black
		return nil
	}

	for _, pkg := range ws.Packages() {
		if state[pkg.Name] != white {
			continue
		}
		if cycle := visit(pkg.Name); cycle != nil {
			return errors.Workspacef("dependency cycle: %s", strings.Join(cycle, " -> "))
		}
	}
	return nil
}

// TopologicalGroups partitions packages into dependency levels for the
// publish scheduler: group 0 has no in-workspace providers, group N depends
// only on groups < N. includeDev adds devDependencies edges to the
// grouping; optional edges are always ignored. Packages on a residual
// cycle (possible through private packages) land in a final group.
func (ws *Workspace) TopologicalGroups(includeDev bool) [][]string {
	indegree := make(map[string]int, len(ws.packages))
	consumers := make(map[string][]string)
	for name := range ws.packages {
		indegree[name] = 0
	}
	for _, e := range ws.Edges() {
		if e.Kind == KindOptional {
			continue
		}
		if e.Kind == KindDevelopment && !includeDev {
			continue
		}
		indegree[e.Consumer]++
		consumers[e.Provider] = append(consumers[e.Provider], e.Consumer)
	}

	var groups [][]string
	var frontier []string
	for name, deg := range indegree {
		if deg == 0 {
			frontier = append(frontier, name)
		}
	}
	placed := 0
	for len(frontier) > 0 {
		sort.Strings(frontier)
		groups = append(groups, frontier)
		placed += len(frontier)

		var next []string
		for _, provider := range frontier {
			for _, consumer := range consumers[provider] {
				indegree[consumer]--
				if indegree[consumer] == 0 {
					next = append(next, consumer)
				}
			}
		}
		frontier = next
	}

	if placed < len(ws.packages) {
		var rest []string
		for name, deg := range indegree {
			if deg > 0 {
				rest = append(rest, name)
			}
		}
		sort.Strings(rest)
		groups = append(groups, rest)
	}
	return groups
}
