package model

import (
	"fmt"
	"time"
)

// ThreadStatus is the publication state of a thread.
//
// It is a closed enum: "draft" or "published", nothing else. The API rejects
// unrecognized values with a validation error instead of storing them
// verbatim, so the database can never contain a third state.
type ThreadStatus string

const (
	StatusDraft     ThreadStatus = "draft"
	StatusPublished ThreadStatus = "published"
)

// ParseThreadStatus validates a raw status string. An empty string defaults
// to draft (a thread saved without an explicit status is a work in progress).
func ParseThreadStatus(raw string) (ThreadStatus, error) {
	switch ThreadStatus(raw) {
	case "":
		return StatusDraft, nil
	case StatusDraft:
		return StatusDraft, nil
	case StatusPublished:
		return StatusPublished, nil
	default:
		return "", fmt.Errorf("unknown status %q", raw)
	}
}

// Post is a single in-character message inside a thread. Posts are embedded —
// they never exist outside their thread.
//
// The character_* fields are a snapshot taken when the thread was saved.
// Editing or deleting the character afterwards does not touch them; the
// thread keeps showing the persona as it was at submission time.
type Post struct {
	CharacterIndex  int    `json:"characterIndex"   db:"character_index"` // position in the author's list at submission time
	CharacterID     string `json:"character_id"     db:"character_id"`
	CharacterName   string `json:"character_name"   db:"character_name"`
	CharacterFandom string `json:"character_fandom" db:"character_fandom"`
	Nickname        string `json:"nickname"         db:"nickname"`
	Avatar          string `json:"avatar"           db:"avatar"`
	Content         string `json:"content"          db:"content"`
	Floor           int    `json:"floor"            db:"floor"` // 1-based display position
}

// CharacterSummary is the thread-level snapshot of one referenced character.
// A thread stores one summary per distinct character appearing in its posts,
// frozen at save time. The JSON key "_id" matches what the frontend expects
// for character objects everywhere else in the API.
type CharacterSummary struct {
	ID       string `json:"_id"      db:"character_id"`
	Name     string `json:"name"     db:"name"`
	Nickname string `json:"nickname" db:"nickname"`
	Fandom   string `json:"fandom"   db:"fandom"`
	Pic      string `json:"pic"      db:"pic"`
}

// Thread is a multi-post forum thread owned by one user.
//
// INVARIANT: Characters always equals the deduplicated set of characters
// referenced by Posts. It is derived data, rebuilt on every save by the
// upsert workflow — nothing else writes it.
//
// PublishedAt is a pointer because "never published" is a meaningful state,
// distinct from any real timestamp. It is set when a thread is created as
// published, or when an update transitions it from draft to published, and
// is never re-derived after that.
type Thread struct {
	ID          string             `json:"id"         db:"id"`
	OwnerID     string             `json:"-"          db:"owner_id"`
	Title       string             `json:"title"      db:"title"`
	Status      ThreadStatus       `json:"status"     db:"status"`
	Posts       []Post             `json:"posts"`
	Characters  []CharacterSummary `json:"characters"`
	CreatedAt   time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at" db:"updated_at"`
	PublishedAt *time.Time         `json:"published_at,omitempty" db:"published_at"`
}

// ThreadSummary is the listing view of a thread. AuthorUsername is resolved
// from the user store at read time, so it always reflects the author's
// current name ("Anonymous" if the account no longer exists).
type ThreadSummary struct {
	ID             string             `json:"id"`
	Title          string             `json:"title"`
	Status         ThreadStatus       `json:"status"`
	PostCount      int                `json:"post_count"`
	Characters     []CharacterSummary `json:"characters"`
	AuthorUsername string             `json:"author_username"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
	PublishedAt    *time.Time         `json:"published_at,omitempty"`
}
