// Package service contains the business logic layer of the application.
//
// The code is organised in three layers, each knowing only about the one
// below it:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept plain values and return domain errors (apperror), never
// HTTP types or status codes. Handlers translate both directions. Each
// service receives repository INTERFACES, so tests inject in-memory mocks
// and the sqlite package stays an implementation detail of main.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/rp-forum/internal/apperror"
	"github.com/sakif/rp-forum/internal/model"
	"github.com/sakif/rp-forum/internal/repository"
)

// AnonymousAuthor is shown when a thread's author account no longer exists
// (or a listing row carries a dangling owner reference).
const AnonymousAuthor = "Anonymous"

// ThreadInput is the incoming payload for creating or updating a thread.
// An empty ID means "create"; a non-empty ID targets an existing thread.
type ThreadInput struct {
	ID     string      `json:"id,omitempty"`
	Title  string      `json:"title"`
	Status string      `json:"status,omitempty"`
	Posts  []PostInput `json:"posts"`
}

// PostInput is one post in a thread payload.
//
// CharacterIndex is raw JSON rather than an int so that a missing or
// non-integer value (`"two"`, 1.5, null) fails THIS post's validation with
// an error naming the offending post, instead of sinking the whole body
// decode. Index 0 is the author's first character and perfectly valid.
type PostInput struct {
	CharacterIndex json.RawMessage `json:"characterIndex"`
	Nickname       string          `json:"nickname,omitempty"`
	Avatar         string          `json:"avatar,omitempty"`
	Content        string          `json:"content"`
	Floor          int             `json:"floor,omitempty"`
}

// parseCharacterIndex turns the raw characterIndex field into an int.
// Absent, null, and non-integer values are all the same client bug.
func parseCharacterIndex(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, fmt.Errorf("character index missing")
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("character index not an integer: %w", err)
	}
	return n, nil
}

// ThreadService owns the thread-authoring workflow: validation, character
// resolution, snapshotting, visibility, and listings.
type ThreadService struct {
	threads    repository.ThreadRepository
	characters repository.CharacterRepository
	users      repository.UserRepository
	logger     *slog.Logger
}

func NewThreadService(
	threads repository.ThreadRepository,
	characters repository.CharacterRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *ThreadService {
	return &ThreadService{
		threads:    threads,
		characters: characters,
		users:      users,
		logger:     logger,
	}
}

// Upsert validates and saves a thread for the calling user.
//
// THE WORKFLOW:
//  1. Title must be non-empty after trimming; status must be a known value.
//  2. At least one post is required, and the caller must own at least one
//     character to post as.
//  3. Each post's characterIndex is resolved against the caller's character
//     list AS IT IS RIGHT NOW; the character's fields are copied into the
//     post as a frozen snapshot. Per-post errors cite the 1-based post
//     position so the author knows which entry to fix.
//  4. The thread-level character list is rebuilt as the deduplicated set of
//     referenced characters. First occurrence wins: if posts 1 and 4 both
//     use a character, the snapshot captured at post 1 is kept.
//  5. With an ID, the existing thread (which must be the caller's) is
//     replaced in place, keeping its creation time. Without one, a new
//     thread is created.
//
// Returns the thread's ID.
func (s *ThreadService) Upsert(ctx context.Context, callerID string, input ThreadInput) (string, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return "", apperror.ValidationFailed("title", "Title is required")
	}

	status, err := model.ParseThreadStatus(input.Status)
	if err != nil {
		return "", apperror.ValidationFailed("status",
			fmt.Sprintf("Status must be %q or %q", model.StatusDraft, model.StatusPublished))
	}

	if len(input.Posts) == 0 {
		return "", apperror.ValidationFailed("posts", "At least one post is required")
	}

	userCharacters, err := s.characters.ListByUser(ctx, callerID)
	if err != nil {
		return "", fmt.Errorf("loading characters: %w", err)
	}
	if len(userCharacters) == 0 {
		return "", apperror.ValidationFailed("posts", "You have no characters; add one first.")
	}

	posts := make([]model.Post, 0, len(input.Posts))
	// Deduplicated character snapshot. seen guards "first occurrence wins";
	// snapshot order follows first appearance in the posts.
	seen := make(map[string]bool)
	snapshot := make([]model.CharacterSummary, 0, len(userCharacters))

	for i, p := range input.Posts {
		idx := i + 1 // 1-based position for error messages

		charIndex, err := parseCharacterIndex(p.CharacterIndex)
		if err != nil {
			return "", apperror.ValidationFailed("posts",
				fmt.Sprintf("Invalid character index in post %d", idx))
		}
		if charIndex < 0 || charIndex >= len(userCharacters) {
			return "", apperror.ValidationFailed("posts",
				fmt.Sprintf("Character index out of range in post %d", idx))
		}
		char := userCharacters[charIndex]

		content := strings.TrimSpace(p.Content)
		if content == "" {
			return "", apperror.ValidationFailed("posts",
				fmt.Sprintf("Content required for post %d", idx))
		}

		// Overrides fall back to the character's own fields; the avatar
		// falls back once more to the placeholder.
		nickname := strings.TrimSpace(p.Nickname)
		if nickname == "" {
			nickname = char.Nickname
		}
		avatar := p.Avatar
		if avatar == "" {
			avatar = char.Pic
		}
		if avatar == "" {
			avatar = model.DefaultCharacterPic
		}
		floor := p.Floor
		if floor <= 0 {
			floor = idx
		}

		posts = append(posts, model.Post{
			CharacterIndex:  charIndex,
			CharacterID:     char.ID,
			CharacterName:   char.Name,
			CharacterFandom: char.Fandom,
			Nickname:        nickname,
			Avatar:          avatar,
			Content:         content,
			Floor:           floor,
		})

		if !seen[char.ID] {
			seen[char.ID] = true
			pic := char.Pic
			if pic == "" {
				pic = model.DefaultCharacterPic
			}
			snapshot = append(snapshot, model.CharacterSummary{
				ID:       char.ID,
				Name:     char.Name,
				Nickname: char.Nickname,
				Fandom:   char.Fandom,
				Pic:      pic,
			})
		}
	}

	now := time.Now()

	if input.ID != "" {
		return s.update(ctx, callerID, input.ID, title, status, posts, snapshot, now)
	}

	thread := &model.Thread{
		OwnerID:    callerID,
		Title:      title,
		Status:     status,
		Posts:      posts,
		Characters: snapshot,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if status == model.StatusPublished {
		thread.PublishedAt = &now
	}

	if err := s.threads.CreateThread(ctx, thread); err != nil {
		s.logger.Error("failed to create thread",
			slog.String("owner", callerID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("creating thread: %w", err)
	}

	s.logger.Info("thread created",
		slog.String("id", thread.ID),
		slog.String("owner", callerID),
		slog.String("status", string(status)),
	)

	return thread.ID, nil
}

func (s *ThreadService) update(
	ctx context.Context,
	callerID, id, title string,
	status model.ThreadStatus,
	posts []model.Post,
	snapshot []model.CharacterSummary,
	now time.Time,
) (string, error) {
	existing, err := s.threads.GetThread(ctx, id)
	if err != nil {
		return "", err
	}
	// A thread owned by someone else reads as "not found", the same answer
	// an unknown ID gets. Writers never learn whether a foreign ID exists.
	if !CanWrite(existing, callerID) {
		return "", apperror.NotFound("thread", id)
	}

	thread := &model.Thread{
		ID:          id,
		OwnerID:     callerID,
		Title:       title,
		Status:      status,
		Posts:       posts,
		Characters:  snapshot,
		CreatedAt:   existing.CreatedAt,
		UpdatedAt:   now,
		PublishedAt: existing.PublishedAt,
	}
	// PublishedAt is stamped exactly once: on the transition into the
	// published state. Re-saving an already-published thread keeps the
	// original timestamp; un-publishing does not clear it.
	if status == model.StatusPublished && existing.PublishedAt == nil {
		thread.PublishedAt = &now
	}

	if err := s.threads.UpdateThread(ctx, thread); err != nil {
		s.logger.Error("failed to update thread",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("updating thread: %w", err)
	}

	s.logger.Info("thread updated",
		slog.String("id", id),
		slog.String("status", string(status)),
	)

	return id, nil
}

// Get fetches a thread for reading, applying the visibility policy.
// Unknown ID → NotFound; exists but not visible to this caller → Forbidden.
func (s *ThreadService) Get(ctx context.Context, callerID, id string) (*model.Thread, error) {
	thread, err := s.threads.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanRead(thread, callerID) {
		return nil, apperror.Forbidden("Thread not visible to you")
	}

	return thread, nil
}

// GetOwned fetches a thread the caller owns, draft or published. A thread
// owned by someone else reports NotFound.
func (s *ThreadService) GetOwned(ctx context.Context, callerID, id string) (*model.Thread, error) {
	thread, err := s.threads.GetThread(ctx, id)
	if err != nil {
		return nil, err
	}

	if !CanWrite(thread, callerID) {
		return nil, apperror.NotFound("thread", id)
	}

	return thread, nil
}

// Delete removes a thread the caller owns.
func (s *ThreadService) Delete(ctx context.Context, callerID, id string) error {
	if err := s.threads.DeleteThread(ctx, callerID, id); err != nil {
		return err
	}

	s.logger.Info("thread deleted",
		slog.String("id", id),
		slog.String("owner", callerID),
	)
	return nil
}

// ListMine returns the caller's threads, newest-edited first.
//
// statusRaw filters to one publication state when it names a valid one;
// anything else (including "") is ignored rather than rejected — listing
// filters are best-effort, unlike the strict enum on writes.
func (s *ThreadService) ListMine(ctx context.Context, callerID, statusRaw, query string) ([]model.ThreadSummary, error) {
	filter := repository.ThreadFilter{
		OwnerID: callerID,
		Query:   strings.TrimSpace(query),
		OrderBy: repository.OrderByUpdatedAt,
	}
	switch model.ThreadStatus(statusRaw) {
	case model.StatusDraft, model.StatusPublished:
		status := model.ThreadStatus(statusRaw)
		filter.Status = &status
	}

	return s.list(ctx, filter)
}

// ListPublished returns the public feed: published threads, most recently
// published first.
func (s *ThreadService) ListPublished(ctx context.Context, query string) ([]model.ThreadSummary, error) {
	published := model.StatusPublished
	return s.list(ctx, repository.ThreadFilter{
		Status:  &published,
		Query:   strings.TrimSpace(query),
		OrderBy: repository.OrderByPublishedAt,
	})
}

func (s *ThreadService) list(ctx context.Context, filter repository.ThreadFilter) ([]model.ThreadSummary, error) {
	threads, err := s.threads.ListThreads(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list threads", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing threads: %w", err)
	}

	// Author usernames are resolved per listing, not stored on the thread,
	// so a rename shows up everywhere immediately. Cache per call — the
	// same author typically owns many of the listed threads.
	usernames := make(map[string]string)

	summaries := make([]model.ThreadSummary, 0, len(threads))
	for _, t := range threads {
		name, ok := usernames[t.OwnerID]
		if !ok {
			name = s.resolveUsername(ctx, t.OwnerID)
			usernames[t.OwnerID] = name
		}

		summaries = append(summaries, model.ThreadSummary{
			ID:             t.ID,
			Title:          t.Title,
			Status:         t.Status,
			PostCount:      len(t.Posts),
			Characters:     t.Characters,
			AuthorUsername: name,
			CreatedAt:      t.CreatedAt,
			UpdatedAt:      t.UpdatedAt,
			PublishedAt:    t.PublishedAt,
		})
	}

	return summaries, nil
}

func (s *ThreadService) resolveUsername(ctx context.Context, ownerID string) string {
	user, err := s.users.GetByID(ctx, ownerID)
	if err != nil {
		// Missing author is not an error worth failing a listing over.
		return AnonymousAuthor
	}
	if user.Username == "" {
		return AnonymousAuthor
	}
	return user.Username
}
