// Package repository defines the storage interfaces the service layer
// depends on. The sqlite subpackage provides the concrete implementation;
// tests substitute in-memory mocks. Services never import sqlite directly.
package repository

import (
	"context"

	"github.com/sakif/rp-forum/internal/model"
)

// ThreadOrder selects which timestamp a thread listing is sorted by
// (always descending — newest first).
type ThreadOrder string

const (
	OrderByUpdatedAt   ThreadOrder = "updated_at"   // owner-scoped listings
	OrderByPublishedAt ThreadOrder = "published_at" // public listings
)

// ThreadFilter narrows a thread listing. Zero values mean "no constraint".
//
// Query is matched case-insensitively as a substring against the thread
// title OR any referenced character's name, nickname, or fandom — a thread
// matches if any one of those fields matches, and the result is intersected
// with the other filters.
type ThreadFilter struct {
	OwnerID string
	Status  *model.ThreadStatus
	Query   string
	OrderBy ThreadOrder
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertGitHub creates or refreshes the account linked to user.GitHubID,
	// keeping the existing internal ID on update.
	UpsertGitHub(ctx context.Context, user *model.User) error
}

type CharacterRepository interface {
	// ListByUser returns the user's characters in list order. The order
	// matters: thread posts reference characters by position in this list.
	ListByUser(ctx context.Context, userID string) ([]model.Character, error)
	GetCharacter(ctx context.Context, userID, charID string) (*model.Character, error)
	// UpsertCharacter inserts (empty char.ID) or updates (char.ID set) a
	// character in the user's list. Updating an ID the user doesn't own
	// returns NotFound.
	UpsertCharacter(ctx context.Context, userID string, char *model.Character) error
	DeleteCharacter(ctx context.Context, userID, charID string) error
}

type ThreadRepository interface {
	CreateThread(ctx context.Context, thread *model.Thread) error
	GetThread(ctx context.Context, id string) (*model.Thread, error)
	// UpdateThread replaces title/status/posts/characters/updated_at/
	// published_at of the thread row matching (thread.ID, thread.OwnerID).
	// CreatedAt is never touched after insert.
	UpdateThread(ctx context.Context, thread *model.Thread) error
	DeleteThread(ctx context.Context, ownerID, id string) error
	ListThreads(ctx context.Context, filter ThreadFilter) ([]model.Thread, error)
}
