package model

// DefaultCharacterPic is the placeholder avatar used when a character has no
// picture of its own. It also serves as the fallback avatar for thread posts.
const DefaultCharacterPic = "/static/images/default.png"

// Default values applied when a character is saved with blank fields.
const (
	DefaultCharacterName   = "Unknown character"
	DefaultCharacterFandom = "Original character"
)

// Character is a role-play persona owned by exactly one user. Characters have
// no independent existence — they live in their owner's character list and are
// deleted by removal from it.
//
// Position is the character's place in the owner's ordered list. Thread posts
// reference characters by this position (see Post.CharacterIndex), so the
// order is part of the authoring contract, not just display sugar.
type Character struct {
	ID       string `json:"_id"      db:"id"`
	Name     string `json:"name"     db:"name"`
	Nickname string `json:"nickname" db:"nickname"`
	Fandom   string `json:"fandom"   db:"fandom"`
	Pic      string `json:"pic"      db:"pic"`
	Position int    `json:"-"        db:"position"`
}
