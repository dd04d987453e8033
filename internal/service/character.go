package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/rp-forum/internal/model"
	"github.com/sakif/rp-forum/internal/repository"
)

// CharacterInput is the payload for creating or editing a character.
// An empty ID means "create"; a non-empty ID edits an existing character
// in the caller's list.
type CharacterInput struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
	Fandom   string `json:"fandom,omitempty"`
	Pic      string `json:"pic,omitempty"`
}

// CharacterService manages a user's character list.
type CharacterService struct {
	characters repository.CharacterRepository
	logger     *slog.Logger
}

func NewCharacterService(characters repository.CharacterRepository, logger *slog.Logger) *CharacterService {
	return &CharacterService{
		characters: characters,
		logger:     logger,
	}
}

// List returns the caller's characters in list order, optionally filtered
// by a case-insensitive substring match over name, nickname, and fandom.
//
// Filtering happens in memory after the load. A user's character list is
// small by construction (it's a hand-curated roster, not a data set), and
// this keeps the repository interface free of a one-off query path.
func (s *CharacterService) List(ctx context.Context, userID, query string) ([]model.Character, error) {
	characters, err := s.characters.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing characters: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return characters, nil
	}

	filtered := make([]model.Character, 0, len(characters))
	for _, c := range characters {
		if strings.Contains(strings.ToLower(c.Name), query) ||
			strings.Contains(strings.ToLower(c.Nickname), query) ||
			strings.Contains(strings.ToLower(c.Fandom), query) {
			filtered = append(filtered, c)
		}
	}

	return filtered, nil
}

// Get returns one of the caller's characters, for prefilling the edit form.
// Someone else's character ID reads as missing.
func (s *CharacterService) Get(ctx context.Context, userID, charID string) (*model.Character, error) {
	return s.characters.GetCharacter(ctx, userID, charID)
}

// Upsert creates or edits a character in the caller's list, applying the
// blank-field defaults: an unnamed character is "Unknown character", the
// nickname falls back to the name, the fandom to "Original character", and
// the picture to the placeholder.
func (s *CharacterService) Upsert(ctx context.Context, userID string, input CharacterInput) (*model.Character, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = model.DefaultCharacterName
	}
	nickname := strings.TrimSpace(input.Nickname)
	if nickname == "" {
		nickname = name
	}
	fandom := strings.TrimSpace(input.Fandom)
	if fandom == "" {
		fandom = model.DefaultCharacterFandom
	}
	pic := strings.TrimSpace(input.Pic)
	if pic == "" {
		pic = model.DefaultCharacterPic
	}

	char := &model.Character{
		ID:       input.ID,
		Name:     name,
		Nickname: nickname,
		Fandom:   fandom,
		Pic:      pic,
	}
	if err := s.characters.UpsertCharacter(ctx, userID, char); err != nil {
		return nil, err
	}

	s.logger.Info("character saved",
		slog.String("userID", userID),
		slog.String("characterID", char.ID),
		slog.String("name", char.Name),
	)

	return char, nil
}

// Delete removes a character from the caller's list. Threads that already
// reference it keep their snapshots; only future posts lose the option.
func (s *CharacterService) Delete(ctx context.Context, userID, charID string) error {
	if err := s.characters.DeleteCharacter(ctx, userID, charID); err != nil {
		return err
	}

	s.logger.Info("character deleted",
		slog.String("userID", userID),
		slog.String("characterID", charID),
	)
	return nil
}
