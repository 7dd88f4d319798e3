/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roster

// Roster is the full id-ordered list of players.
type Roster []Player

// Summary bundles a roster with the counts the board pages display.
type Summary struct {
	Players                Roster `json:"players"`
	Total                  int    `json:"total"`
	Alive                  int    `json:"alive"`
	Eliminated             int    `json:"eliminated"`
	MostRecentlyEliminated Player `json:"mostRecentlyEliminated"`
}

func newRoster(size int) Roster {
	r := make(Roster, size)
	for i := range r {
		r[i] = newPlayer(i + 1)
	}
	return r
}

func (r Roster) index(id int) int {
	for i, p := range r {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Find returns the player with the given id.
func (r Roster) Find(id int) (Player, bool) {
	i := r.index(id)
	if i < 0 {
		return Player{}, false
	}
	return r[i], true
}

func (r Roster) EliminatedCount() int {
	count := 0
	for _, p := range r {
		if !p.Alive {
			count++
		}
	}
	return count
}

// MostRecentlyEliminated picks the eliminated player with the highest id,
// or NoneEliminated. No elimination times are recorded, so the id stands in
// for recency.
func (r Roster) MostRecentlyEliminated() Player {
	latest := NoneEliminated()
	for _, p := range r {
		if !p.Alive && p.ID > latest.ID {
			latest = p
		}
	}
	return latest
}

func (r Roster) Summary() Summary {
	eliminated := r.EliminatedCount()

	return Summary{
		Players:                r,
		Total:                  len(r),
		Alive:                  len(r) - eliminated,
		Eliminated:             eliminated,
		MostRecentlyEliminated: r.MostRecentlyEliminated(),
	}
}

// upgrade fits a stored roster to size without discarding anything: the
// view holds ids 1..size with empty names and images defaulted and missing
// ids added alive, while records outside [1,size] and repeated ids are
// returned in rest so a later save writes them back unchanged.
func upgrade(stored Roster, size int) (view Roster, rest Roster) {
	view = make(Roster, size)
	seen := make([]bool, size+1)

	for _, p := range stored {
		if p.ID < 1 || p.ID > size || seen[p.ID] {
			rest = append(rest, p)
			continue
		}
		seen[p.ID] = true

		if p.Name == "" {
			p.Name = DefaultName(p.ID)
		}
		if p.ImageURL == "" {
			p.ImageURL = DefaultImageURL
		}

		view[p.ID-1] = p
	}

	for id := 1; id <= size; id++ {
		if !seen[id] {
			view[id-1] = newPlayer(id)
		}
	}

	return view, rest
}
