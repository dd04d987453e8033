package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/rp-forum/internal/apperror"
	"github.com/sakif/rp-forum/internal/model"
	"github.com/sakif/rp-forum/internal/repository"
)

var _ repository.CharacterRepository = (*DB)(nil)

// ListByUser returns the user's characters ordered by position.
//
// ORDER MATTERS HERE: the thread upsert workflow resolves a post's
// characterIndex against this exact ordering, so it must be stable across
// calls. Position is assigned at insert time and never reshuffled.
func (db *DB) ListByUser(ctx context.Context, userID string) ([]model.Character, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, nickname, fandom, pic, position
		 FROM characters
		 WHERE user_id = ?
		 ORDER BY position ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing characters for user %s: %w", userID, err)
	}
	defer rows.Close()

	characters := make([]model.Character, 0, 8)
	for rows.Next() {
		var c model.Character
		if err := rows.Scan(&c.ID, &c.Name, &c.Nickname, &c.Fandom, &c.Pic, &c.Position); err != nil {
			return nil, fmt.Errorf("sqlite: scanning character row: %w", err)
		}
		characters = append(characters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating characters: %w", err)
	}

	return characters, nil
}

// GetCharacter fetches one character, scoped to its owner. A valid character
// ID owned by someone else is indistinguishable from a missing one — both
// return NotFound, so the API never leaks other users' character IDs.
func (db *DB) GetCharacter(ctx context.Context, userID, charID string) (*model.Character, error) {
	var c model.Character
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, nickname, fandom, pic, position
		 FROM characters
		 WHERE user_id = ? AND id = ?`,
		userID, charID,
	).Scan(&c.ID, &c.Name, &c.Nickname, &c.Fandom, &c.Pic, &c.Position)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("character", charID)
		}
		return nil, fmt.Errorf("sqlite: getting character %s: %w", charID, err)
	}

	return &c, nil
}

// UpsertCharacter inserts a new character (char.ID empty) at the end of the
// user's list, or updates an existing one in place (char.ID set).
func (db *DB) UpsertCharacter(ctx context.Context, userID string, char *model.Character) error {
	if char.ID != "" {
		result, err := db.conn.ExecContext(ctx,
			`UPDATE characters
			 SET name = ?, nickname = ?, fandom = ?, pic = ?
			 WHERE user_id = ? AND id = ?`,
			char.Name, char.Nickname, char.Fandom, char.Pic,
			userID, char.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating character %s: %w", char.ID, err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return apperror.NotFound("character", char.ID)
		}
		return nil
	}

	char.ID = xid.New().String()

	// New characters go to the end of the list. COALESCE handles the empty
	// list (MAX over zero rows is NULL).
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO characters (id, user_id, name, nickname, fandom, pic, position)
		 VALUES (?, ?, ?, ?, ?, ?,
		         COALESCE((SELECT MAX(position) + 1 FROM characters WHERE user_id = ?), 0))`,
		char.ID, userID, char.Name, char.Nickname, char.Fandom, char.Pic,
		userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting character: %w", err)
	}

	return nil
}

// DeleteCharacter removes a character from the user's list. Existing threads
// are unaffected — their posts carry frozen snapshots, not references.
func (db *DB) DeleteCharacter(ctx context.Context, userID, charID string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM characters WHERE user_id = ? AND id = ?`,
		userID, charID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting character %s: %w", charID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("character", charID)
	}

	return nil
}
