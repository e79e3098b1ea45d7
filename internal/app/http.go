package app

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/MrWong99/padinfo/internal/discord/commands"
	"github.com/MrWong99/padinfo/internal/generation"
	"github.com/MrWong99/padinfo/internal/lookup"
	"github.com/MrWong99/padinfo/internal/nickname"
)

type monsterView struct {
	ID          int      `json:"id"`
	NAID        int      `json:"na_id"`
	NameNA      string   `json:"name_na"`
	NameJP      string   `json:"name_jp"`
	Rarity      int      `json:"rarity"`
	OnNA        bool     `json:"on_na"`
	LowPriority bool     `json:"low_priority"`
	Basenames   []string `json:"basenames"`
	Prefixes    []string `json:"prefixes"`
	Nicknames   []string `json:"nicknames"`
	Info        string   `json:"info,omitempty"`
	Link        string   `json:"link,omitempty"`
}

type queryResponse struct {
	Query      string       `json:"query"`
	Found      bool         `json:"found"`
	Stage      lookup.Stage `json:"stage"`
	Method     string       `json:"method,omitempty"`
	Reason     string       `json:"reason,omitempty"`
	Generation uint64       `json:"generation"`
	Monster    *monsterView `json:"monster,omitempty"`

	// Suggestions lists similar nicknames when nothing matched.
	Suggestions []string `json:"suggestions,omitempty"`
}

// maxSuggestions caps the nicknames offered for an unmatched query.
const maxSuggestions = 5

type errorResponse struct {
	Error string `json:"error"`
}

func newMonsterView(g *generation.Generation, nm *nickname.NamedMonster) *monsterView {
	v := &monsterView{
		ID:          nm.ID,
		NAID:        nm.NAID,
		NameNA:      nm.NameNA,
		NameJP:      nm.NameJP,
		Rarity:      nm.Rarity,
		LowPriority: nm.LowPriority,
		Basenames:   nm.GroupBasenames,
		Prefixes:    nm.Prefixes,
		Nicknames:   nm.Nicknames,
	}
	if m := g.DB.Monster(nm.ID); m != nil {
		v.OnNA = m.OnNA
		v.Info, v.Link = commands.InfoText(g.DB, m)
	}
	return v
}

// handleQuery serves GET /v1/query?q=. An unmatched query answers 404 with
// the user-facing reason and similar nicknames.
func (a *App) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing query parameter q"})
		return
	}

	res, g, err := a.resolver.Resolve(r.Context(), q)
	if errors.Is(err, generation.ErrNotReady) {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "index is still loading"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	resp := queryResponse{
		Query:      q,
		Found:      res.Found(),
		Stage:      res.Stage,
		Method:     res.Method,
		Reason:     res.Reason,
		Generation: g.Seq,
	}
	status := http.StatusOK
	if res.Found() {
		resp.Monster = newMonsterView(g, res.Monster)
	} else {
		resp.Suggestions = lookup.Suggest(g.Index, q, maxSuggestions)
		status = http.StatusNotFound
	}
	writeJSON(w, status, resp)
}

// handleMonster serves GET /v1/monsters/{id} by NA id.
func (a *App) handleMonster(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "monster id must be a number"})
		return
	}
	g := a.holder.Current()
	if g == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "index is still loading"})
		return
	}
	nm, ok := g.Index.ByNA[id]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no monster with id " + strconv.Itoa(id)})
		return
	}
	writeJSON(w, http.StatusOK, newMonsterView(g, nm))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
