// Package nickname derives searchable nicknames for every monster and
// assembles them into an immutable [Index].
//
// A monster's nicknames are its group's basenames combined with its own
// prefixes ("r", "uvo", "halloween", ...), plus any manual overrides. When
// two monsters claim the same nickname, the higher priority one wins.
package nickname

import (
	"cmp"
	"maps"
	"slices"
	"strings"

	"github.com/tchap/go-patricia/v2/patricia"

	"github.com/MrWong99/padinfo/internal/overrides"
	"github.com/MrWong99/padinfo/internal/pgdata"
)

// NamedMonster is the queryable projection of one monster. It holds only
// ids and strings so that an index never keeps a dataset generation alive.
type NamedMonster struct {
	ID   int
	NAID int

	NameNA string
	NameJP string

	Rarity      int
	GroupSize   int
	LowPriority bool

	GroupBasenames        []string
	Prefixes              []string
	MonsterBasename       string
	GroupComputedBasename string
	ExtraNicknames        []string
	RomaSubname           string

	Nicknames        []string
	TwoWordNicknames []string
}

// Index maps nicknames to monsters. It is read-only after [Build].
type Index struct {
	// Entries maps every nickname to the monster that claimed it.
	Entries map[string]*NamedMonster

	// TwoWordEntries maps the second word of two-word basenames, with
	// prefixes, to monsters.
	TwoWordEntries map[string]*NamedMonster

	// All holds every indexed monster in ascending priority order.
	All []*NamedMonster

	ByNAName map[string]*NamedMonster
	ByNA     map[int]*NamedMonster
	ByID     map[int]*NamedMonster

	trie *patricia.Trie
}

// Option configures [Build].
type Option func(*buildOptions)

type buildOptions struct {
	accept func(*pgdata.Monster) bool
}

// WithAcceptFilter excludes monsters for which accept returns false. Their
// group still counts them for basename and priority.
func WithAcceptFilter(accept func(*pgdata.Monster) bool) Option {
	return func(o *buildOptions) { o.accept = accept }
}

// Build projects every evolution group of db into named monsters and indexes
// their nicknames.
func Build(db *pgdata.DB, ov overrides.Tables, opts ...Option) *Index {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	extras := make(map[int][]string)
	for nick, naID := range ov.Nicknames {
		extras[naID] = append(extras[naID], nick)
	}

	var named []*NamedMonster
	for _, g := range db.Groups() {
		members := db.GroupMembers(g)
		base := db.MonsterAt(g.Base)

		memberBasenames := make([]string, len(members))
		for i, m := range members {
			memberBasenames[i] = MonsterBasename(m.NameNA)
		}
		computed := GroupBasename(memberBasenames)
		basenames := computedBasenames(computed)
		if bs := ov.Basenames[base.NAID]; len(bs) > 0 {
			basenames = slices.Clone(bs)
		}
		slices.Sort(basenames)
		lowPriority := IsLowPriority(base, members)

		for i, m := range members {
			if o.accept != nil && !o.accept(m) {
				continue
			}
			nm := &NamedMonster{
				ID:                    m.ID,
				NAID:                  m.NAID,
				NameNA:                m.NameNA,
				NameJP:                m.NameJP,
				Rarity:                m.Rarity,
				GroupSize:             len(members),
				LowPriority:           lowPriority,
				GroupBasenames:        basenames,
				Prefixes:              Prefixes(m),
				MonsterBasename:       memberBasenames[i],
				GroupComputedBasename: computed,
				ExtraNicknames:        sortedUnique(extras[m.NAID]),
				RomaSubname:           m.RomaSubname,
			}
			nm.Nicknames = synthesize(nm.ExtraNicknames, nm.RomaSubname, basenames, nm.Prefixes)
			nm.TwoWordNicknames = synthesize(nil, "", secondWords(basenames), nm.Prefixes)
			named = append(named, nm)
		}
	}

	// Ascending priority: later entries overwrite earlier ones, so the
	// highest priority claimant of a nickname is inserted last.
	slices.SortStableFunc(named, func(a, b *NamedMonster) int {
		return cmp.Or(
			cmp.Compare(b2i(!a.LowPriority), b2i(!b.LowPriority)),
			cmp.Compare(a.GroupSize, b.GroupSize),
			cmp.Compare(a.NAID, b.NAID),
		)
	})

	ix := &Index{
		Entries:        make(map[string]*NamedMonster),
		TwoWordEntries: make(map[string]*NamedMonster),
		All:            named,
		ByNAName:       make(map[string]*NamedMonster, len(named)),
		ByNA:           make(map[int]*NamedMonster, len(named)),
		ByID:           make(map[int]*NamedMonster, len(named)),
		trie:           patricia.NewTrie(),
	}
	for _, nm := range named {
		for _, n := range nm.Nicknames {
			ix.Entries[n] = nm
		}
		for _, n := range nm.TwoWordNicknames {
			ix.TwoWordEntries[n] = nm
		}
		ix.ByNAName[strings.ToLower(nm.NameNA)] = nm
		ix.ByNA[nm.NAID] = nm
		ix.ByID[nm.ID] = nm
	}

	for nick, naID := range ov.Nicknames {
		if nm, ok := ix.ByNA[naID]; ok && nick != "" {
			ix.Entries[nick] = nm
		}
	}

	for nick, nm := range ix.Entries {
		ix.trie.Insert(patricia.Prefix(nick), nm)
	}
	return ix
}

// synthesize combines overrides, the roma subname, and every
// basename/prefix pairing into a sorted nickname set. Empty strings are
// never nicknames.
func synthesize(extra []string, roma string, basenames, prefixes []string) []string {
	set := map[string]bool{}
	for _, n := range extra {
		set[n] = true
	}
	if roma != "" {
		set[roma] = true
	}
	for _, b := range basenames {
		set[b] = true
		for _, p := range prefixes {
			set[p+b] = true
			set[p+" "+b] = true
		}
	}
	delete(set, "")
	return slices.Sorted(maps.Keys(set))
}

func sortedUnique(s []string) []string {
	out := slices.Clone(s)
	slices.Sort(out)
	return slices.Compact(out)
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// VisitPrefix calls fn for every nickname starting with prefix.
func (ix *Index) VisitPrefix(prefix string, fn func(nickname string, nm *NamedMonster)) {
	if prefix == "" {
		for n, nm := range ix.Entries {
			fn(n, nm)
		}
		return
	}
	_ = ix.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		fn(string(p), item.(*NamedMonster))
		return nil
	})
}

// Nicknames returns every nickname key in sorted order.
func (ix *Index) Nicknames() []string {
	return slices.Sorted(maps.Keys(ix.Entries))
}

// Monsters returns the distinct monsters that own at least one nickname,
// ordered by NA id.
func (ix *Index) Monsters() []*NamedMonster {
	seen := make(map[*NamedMonster]bool)
	var out []*NamedMonster
	for _, nm := range ix.Entries {
		if !seen[nm] {
			seen[nm] = true
			out = append(out, nm)
		}
	}
	slices.SortFunc(out, byNAID)
	return out
}

func byNAID(a, b *NamedMonster) int {
	return cmp.Or(cmp.Compare(a.NAID, b.NAID), cmp.Compare(a.ID, b.ID))
}

// Len returns the number of indexed monsters.
func (ix *Index) Len() int { return len(ix.All) }
