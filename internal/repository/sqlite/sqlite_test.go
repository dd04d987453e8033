package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sakif/rp-forum/internal/model"
)

// newTestDB opens a throwaway database in a per-test temp dir. A file (rather
// than ":memory:") keeps the schema visible to every connection in the pool.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func mustCreateUser(t *testing.T, db *DB, username, email string) *model.User {
	t.Helper()

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$04$notarealhash",
	}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return user
}

func mustCreateCharacter(t *testing.T, db *DB, userID, name, nickname, fandom string) *model.Character {
	t.Helper()

	char := &model.Character{
		Name:     name,
		Nickname: nickname,
		Fandom:   fandom,
		Pic:      model.DefaultCharacterPic,
	}
	if err := db.UpsertCharacter(context.Background(), userID, char); err != nil {
		t.Fatalf("creating character %s: %v", name, err)
	}
	return char
}
