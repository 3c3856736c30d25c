package property

import (
	"cmp"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// NodeInfo is a copy of one node's state, detached from the graph.
type NodeInfo struct {
	ID      uint64
	Name    string
	Kind    string
	Dirty   bool
	Bound   bool
	Version uint64
	Deps    []uint64
	Err     string
}

// Inspectable is implemented by *Cell[T] and *Tracker.
type Inspectable interface {
	inspect() *node
}

// Snapshot returns every node reachable from roots through dependency edges
// in either direction, ordered by creation.
func Snapshot(roots ...Inspectable) []NodeInfo {
	seen := mapset.NewThreadUnsafeSet[*node]()
	var work []*node
	for _, r := range roots {
		n := r.inspect()
		if seen.Add(n) {
			work = append(work, n)
		}
	}

	var infos []NodeInfo
	for len(work) > 0 {
		n := work[0]
		work = work[1:]
		infos = append(infos, n.info())

		visit := func(other *node) bool {
			if seen.Add(other) {
				work = append(work, other)
			}
			return false
		}
		n.deps.Each(visit)
		n.subs.Each(visit)
	}

	slices.SortFunc(infos, func(a, b NodeInfo) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return infos
}

// Snapshot returns the instance's own nodes and everything connected to them.
func (inst *Instance) Snapshot() []NodeInfo {
	roots := make([]Inspectable, 0, len(inst.nodes))
	for _, n := range inst.nodes {
		if n != nil {
			roots = append(roots, n)
		}
	}
	return Snapshot(roots...)
}

func (n *node) info() NodeInfo {
	info := NodeInfo{
		ID:      n.id,
		Name:    n.label(),
		Kind:    n.kind,
		Dirty:   n.flags&fDirty != 0,
		Bound:   n.flags&fHasBinding != 0,
		Version: n.version,
	}
	n.deps.Each(func(dep *node) bool {
		info.Deps = append(info.Deps, dep.id)
		return false
	})
	slices.Sort(info.Deps)
	if n.err != nil {
		info.Err = n.err.Error()
	}
	return info
}
