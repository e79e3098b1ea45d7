package pgdata

import "slices"

// Group is an evolution tree: a base monster and every monster reachable from
// it through evolves-to edges, in pre-order.
type Group struct {
	Base    Ref
	Members []Ref
}

// Groups returns the evolution groups ordered by base monster id.
func (db *DB) Groups() []Group {
	return db.groups
}

// GroupMembers resolves the members of g.
func (db *DB) GroupMembers(g Group) []*Monster {
	out := make([]*Monster, 0, len(g.Members))
	for _, r := range g.Members {
		out = append(out, db.monsters.at(r))
	}
	return out
}

// Regroup rebuilds the evolution groups and broadcasts the OR of each
// member's acquisition flags to every member of the group.
func (db *DB) Regroup() {
	var bases []Ref
	for i := range db.monsters.items {
		if db.monsters.items[i].EvoType == EvoBase {
			bases = append(bases, Ref(i))
		}
	}
	slices.SortFunc(bases, func(a, b Ref) int {
		return db.monsters.at(a).ID - db.monsters.at(b).ID
	})

	db.groups = make([]Group, 0, len(bases))
	for _, base := range bases {
		g := Group{Base: base, Members: db.collect(base)}
		db.broadcast(g)
		db.groups = append(db.groups, g)
	}
}

// collect walks the evolution tree rooted at base in pre-order. Evolution
// targets are visited in source order. A visited set guards against
// malformed data forming a cycle.
func (db *DB) collect(base Ref) []Ref {
	var members []Ref
	visited := map[Ref]bool{}
	stack := []Ref{base}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[r] {
			continue
		}
		visited[r] = true
		members = append(members, r)

		to := db.monsters.at(r).EvoTo
		for i := len(to) - 1; i >= 0; i-- {
			stack = append(stack, to[i])
		}
	}
	return members
}

func (db *DB) broadcast(g Group) {
	var farmable, pem, rem, mp bool
	for _, r := range g.Members {
		m := db.monsters.at(r)
		farmable = farmable || m.Farmable
		pem = pem || m.InPEM
		rem = rem || m.InREM
		mp = mp || m.InMPShop
	}
	for _, r := range g.Members {
		m := db.monsters.at(r)
		m.FarmableEvo = farmable
		m.PEMEvo = pem
		m.REMEvo = rem
		m.MPEvo = mp
	}
}

// SetFlags overwrites the individual acquisition flags of the monster with
// the given id. The group flags are not touched until [DB.Regroup] runs. It
// returns false when no such monster exists.
func (db *DB) SetFlags(id int, farmable, pem, rem, mpShop bool) bool {
	m := db.monsters.get(id)
	if m == nil {
		return false
	}
	m.Farmable, m.InPEM, m.InREM, m.InMPShop = farmable, pem, rem, mpShop
	return true
}
