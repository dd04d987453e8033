package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/rp-forum/internal/apperror"
	"github.com/sakif/rp-forum/internal/model"
)

func TestCharacterInsertAssignsPositions(t *testing.T) {
	db := newTestDB(t)
	user := mustCreateUser(t, db, "rowan", "rowan@example.com")

	mustCreateCharacter(t, db, user.ID, "Aria", "Ri", "Starfall")
	mustCreateCharacter(t, db, user.ID, "Kestrel", "Kes", "Ironwood")
	mustCreateCharacter(t, db, user.ID, "Brand", "B", "Ironwood")

	list, err := db.ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("ListByUser() returned %d characters, want 3", len(list))
	}
	for i, want := range []string{"Aria", "Kestrel", "Brand"} {
		if list[i].Name != want {
			t.Errorf("list[%d].Name = %q, want %q", i, list[i].Name, want)
		}
		if list[i].Position != i {
			t.Errorf("list[%d].Position = %d, want %d", i, list[i].Position, i)
		}
	}
}

func TestCharacterListIsPerUser(t *testing.T) {
	db := newTestDB(t)
	alice := mustCreateUser(t, db, "alice", "alice@example.com")
	bob := mustCreateUser(t, db, "bob", "bob@example.com")

	mustCreateCharacter(t, db, alice.ID, "Aria", "Ri", "Starfall")
	mustCreateCharacter(t, db, bob.ID, "Kestrel", "Kes", "Ironwood")

	list, err := db.ListByUser(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if len(list) != 1 || list[0].Name != "Aria" {
		t.Errorf("alice's list = %+v, want just Aria", list)
	}
}

func TestCharacterGetScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	alice := mustCreateUser(t, db, "alice", "alice@example.com")
	bob := mustCreateUser(t, db, "bob", "bob@example.com")

	char := mustCreateCharacter(t, db, alice.ID, "Aria", "Ri", "Starfall")

	got, err := db.GetCharacter(context.Background(), alice.ID, char.ID)
	if err != nil {
		t.Fatalf("GetCharacter() error = %v", err)
	}
	if got.Name != "Aria" {
		t.Errorf("Name = %q, want Aria", got.Name)
	}

	// Bob asking for Alice's character looks exactly like a missing one.
	if _, err := db.GetCharacter(context.Background(), bob.ID, char.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("cross-user GetCharacter() error = %v, want not found", err)
	}
}

func TestCharacterUpdate(t *testing.T) {
	db := newTestDB(t)
	user := mustCreateUser(t, db, "rowan", "rowan@example.com")

	char := mustCreateCharacter(t, db, user.ID, "Aria", "Ri", "Starfall")

	char.Name = "Aria Reborn"
	char.Fandom = "Starfall II"
	if err := db.UpsertCharacter(context.Background(), user.ID, char); err != nil {
		t.Fatalf("update UpsertCharacter() error = %v", err)
	}

	got, err := db.GetCharacter(context.Background(), user.ID, char.ID)
	if err != nil {
		t.Fatalf("GetCharacter() error = %v", err)
	}
	if got.Name != "Aria Reborn" || got.Fandom != "Starfall II" {
		t.Errorf("GetCharacter() = %+v, want updated fields", got)
	}
	if got.Position != 0 {
		t.Errorf("Position = %d, update must not move the character", got.Position)
	}
}

func TestCharacterUpdateForeign(t *testing.T) {
	db := newTestDB(t)
	alice := mustCreateUser(t, db, "alice", "alice@example.com")
	bob := mustCreateUser(t, db, "bob", "bob@example.com")

	char := mustCreateCharacter(t, db, alice.ID, "Aria", "Ri", "Starfall")

	stolen := *char
	stolen.Name = "Stolen"
	err := db.UpsertCharacter(context.Background(), bob.ID, &stolen)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("cross-user update error = %v, want not found", err)
	}
}

func TestCharacterDelete(t *testing.T) {
	db := newTestDB(t)
	user := mustCreateUser(t, db, "rowan", "rowan@example.com")

	char := mustCreateCharacter(t, db, user.ID, "Aria", "Ri", "Starfall")

	if err := db.DeleteCharacter(context.Background(), user.ID, char.ID); err != nil {
		t.Fatalf("DeleteCharacter() error = %v", err)
	}
	if _, err := db.GetCharacter(context.Background(), user.ID, char.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetCharacter() after delete error = %v, want not found", err)
	}

	// Deleting again reports not found rather than silently succeeding.
	if err := db.DeleteCharacter(context.Background(), user.ID, char.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second DeleteCharacter() error = %v, want not found", err)
	}
}

func TestCharacterDeleteKeepsThreadSnapshots(t *testing.T) {
	db := newTestDB(t)
	user := mustCreateUser(t, db, "rowan", "rowan@example.com")
	char := mustCreateCharacter(t, db, user.ID, "Aria", "Ri", "Starfall")

	thread := &model.Thread{
		OwnerID: user.ID,
		Title:   "Frozen",
		Status:  model.StatusDraft,
		Posts: []model.Post{{
			CharacterIndex: 0,
			CharacterID:    char.ID,
			CharacterName:  char.Name,
			Nickname:       char.Nickname,
			Avatar:         char.Pic,
			Content:        "Hello",
			Floor:          1,
		}},
		Characters: []model.CharacterSummary{{
			ID: char.ID, Name: char.Name, Nickname: char.Nickname, Fandom: char.Fandom, Pic: char.Pic,
		}},
	}
	if err := db.CreateThread(context.Background(), thread); err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}

	if err := db.DeleteCharacter(context.Background(), user.ID, char.ID); err != nil {
		t.Fatalf("DeleteCharacter() error = %v", err)
	}

	got, err := db.GetThread(context.Background(), thread.ID)
	if err != nil {
		t.Fatalf("GetThread() error = %v", err)
	}
	if len(got.Posts) != 1 || got.Posts[0].CharacterName != "Aria" {
		t.Errorf("post snapshot lost after character delete: %+v", got.Posts)
	}
	if len(got.Characters) != 1 || got.Characters[0].Name != "Aria" {
		t.Errorf("thread snapshot lost after character delete: %+v", got.Characters)
	}
}
