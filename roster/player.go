/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package roster

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// DefaultImageURL is shown for players without a picture of their own.
const DefaultImageURL = `data:image/svg+xml;utf8,<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 64 64"><rect width="64" height="64" fill="%23222"/><circle cx="32" cy="24" r="12" fill="%23777"/><path d="M10 60c2-14 12-20 22-20s20 6 22 20z" fill="%23777"/></svg>`

const (
	noneID   = "none"
	noneName = "All players alive"
)

// NoneEliminated is returned by MostRecentlyEliminated while every player is
// still alive. It encodes with the id "none".
func NoneEliminated() Player {
	return Player{
		Name:  noneName,
		Alive: true,
	}
}

// Player is one entry of the roster. Fields this version does not know about
// are carried through load and save untouched.
type Player struct {
	ID       int
	Name     string
	Alive    bool
	ImageURL string

	extra map[string]json.RawMessage
}

// DefaultName returns the display name derived from a player id.
func DefaultName(id int) string {
	return fmt.Sprintf("Player %03d", id)
}

func newPlayer(id int) Player {
	return Player{
		ID:       id,
		Name:     DefaultName(id),
		Alive:    true,
		ImageURL: DefaultImageURL,
	}
}

// IsNone reports whether p is the NoneEliminated sentinel. The zero Player
// is not.
func (p Player) IsNone() bool {
	return p.ID == 0 && p.Name == noneName
}

func (p Player) Status() string {
	if p.Alive {
		return "ALIVE"
	}
	return "ELIMINATED"
}

func (p Player) MarshalJSON() ([]byte, error) {
	fields := make(map[string]any, len(p.extra)+4)
	for k, v := range p.extra {
		fields[k] = v
	}

	if p.IsNone() {
		fields["id"] = noneID
	} else {
		fields["id"] = p.ID
	}
	fields["name"] = p.Name
	fields["alive"] = p.Alive
	if p.ImageURL != "" {
		fields["imageURL"] = p.ImageURL
	}

	return json.Marshal(fields)
}

func (p *Player) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var out Player
	for key, raw := range fields {
		var err error
		switch key {
		case "id":
			out.ID, err = decodeID(raw)
		case "name":
			err = json.Unmarshal(raw, &out.Name)
		case "alive":
			err = json.Unmarshal(raw, &out.Alive)
		case "imageURL":
			err = json.Unmarshal(raw, &out.ImageURL)
		default:
			if out.extra == nil {
				out.extra = make(map[string]json.RawMessage)
			}
			out.extra[key] = raw
		}
		if err != nil {
			return fmt.Errorf("player field %q: %w", key, err)
		}
	}

	*p = out

	return nil
}

func decodeID(raw json.RawMessage) (int, error) {
	if bytes.Equal(bytes.TrimSpace(raw), []byte(`"`+noneID+`"`)) {
		return 0, nil
	}

	var id int
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0, err
	}

	return id, nil
}
