package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

type Reaction struct {
	Emoji string
	Users []string
}

// Reactions maps an emoji to the usernames who used it.
// Entries keep the order of the first reaction and encode as a JSON object in that order.
type Reactions []Reaction

// Add records username under emoji. It reports false when the username already reacted.
func (r *Reactions) Add(emoji, username string) bool {
	for i := range *r {
		entry := &(*r)[i]
		if entry.Emoji != emoji {
			continue
		}
		if lo.Contains(entry.Users, username) {
			return false
		}
		entry.Users = append(entry.Users, username)
		return true
	}
	*r = append(*r, Reaction{Emoji: emoji, Users: []string{username}})
	return true
}

func (r Reactions) Users(emoji string) []string {
	entry, ok := lo.Find(r, func(item Reaction) bool { return item.Emoji == emoji })
	if !ok {
		return []string{}
	}
	return append([]string{}, entry.Users...)
}

func (r Reactions) Clone() Reactions {
	return lo.Map(r, func(item Reaction, _ int) Reaction {
		return Reaction{Emoji: item.Emoji, Users: append([]string{}, item.Users...)}
	})
}

func (r Reactions) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Emoji)
		if err != nil {
			return nil, err
		}
		users, err := json.Marshal(lo.Ternary(entry.Users == nil, []string{}, entry.Users))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(users)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the object form back, keeping the key order of the input.
func (r *Reactions) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*r = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("reactions: expected object, got %v", tok)
	}
	out := Reactions{}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		emoji, ok := tok.(string)
		if !ok {
			return fmt.Errorf("reactions: expected key, got %v", tok)
		}
		var users []string
		if err = dec.Decode(&users); err != nil {
			return err
		}
		out = append(out, Reaction{Emoji: emoji, Users: users})
	}
	*r = out
	return nil
}
