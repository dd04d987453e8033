package service

// In-memory fakes for the repository interfaces. The services only see the
// interfaces, so swapping sqlite for these maps is invisible to the code
// under test — that's the point of injecting repositories.

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/sakif/rp-forum/internal/apperror"
	"github.com/sakif/rp-forum/internal/model"
	"github.com/sakif/rp-forum/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// --- users ---

type mockUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if user.Email != "" && u.Email == user.Email {
			return apperror.Conflict("user", "email already registered")
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockUserRepo) UpsertGitHub(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.GitHubID == user.GitHubID {
			user.ID = u.ID
			u.Username = user.Username
			u.AvatarURL = user.AvatarURL
			return nil
		}
	}
	return m.Create(context.Background(), user)
}

// --- characters ---

type mockCharacterRepo struct {
	byUser map[string][]model.Character
	nextID int
}

func newMockCharacterRepo() *mockCharacterRepo {
	return &mockCharacterRepo{byUser: make(map[string][]model.Character)}
}

func (m *mockCharacterRepo) ListByUser(_ context.Context, userID string) ([]model.Character, error) {
	list := m.byUser[userID]
	result := make([]model.Character, len(list))
	copy(result, list)
	return result, nil
}

func (m *mockCharacterRepo) GetCharacter(_ context.Context, userID, charID string) (*model.Character, error) {
	for _, c := range m.byUser[userID] {
		if c.ID == charID {
			result := c
			return &result, nil
		}
	}
	return nil, apperror.NotFound("character", charID)
}

func (m *mockCharacterRepo) UpsertCharacter(_ context.Context, userID string, char *model.Character) error {
	if char.ID != "" {
		list := m.byUser[userID]
		for i := range list {
			if list[i].ID == char.ID {
				char.Position = list[i].Position
				list[i] = *char
				return nil
			}
		}
		return apperror.NotFound("character", char.ID)
	}
	m.nextID++
	char.ID = fmt.Sprintf("char-%d", m.nextID)
	char.Position = len(m.byUser[userID])
	m.byUser[userID] = append(m.byUser[userID], *char)
	return nil
}

func (m *mockCharacterRepo) DeleteCharacter(_ context.Context, userID, charID string) error {
	list := m.byUser[userID]
	for i := range list {
		if list[i].ID == charID {
			m.byUser[userID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return apperror.NotFound("character", charID)
}

// --- threads ---

type mockThreadRepo struct {
	threads map[string]*model.Thread
	nextID  int
}

func newMockThreadRepo() *mockThreadRepo {
	return &mockThreadRepo{threads: make(map[string]*model.Thread)}
}

func (m *mockThreadRepo) CreateThread(_ context.Context, thread *model.Thread) error {
	m.nextID++
	thread.ID = fmt.Sprintf("thread-%d", m.nextID)
	stored := *thread
	m.threads[thread.ID] = &stored
	return nil
}

func (m *mockThreadRepo) GetThread(_ context.Context, id string) (*model.Thread, error) {
	t, ok := m.threads[id]
	if !ok {
		return nil, apperror.NotFound("thread", id)
	}
	result := *t
	return &result, nil
}

func (m *mockThreadRepo) UpdateThread(_ context.Context, thread *model.Thread) error {
	existing, ok := m.threads[thread.ID]
	if !ok || existing.OwnerID != thread.OwnerID {
		return apperror.NotFound("thread", thread.ID)
	}
	stored := *thread
	stored.CreatedAt = existing.CreatedAt
	m.threads[thread.ID] = &stored
	return nil
}

func (m *mockThreadRepo) DeleteThread(_ context.Context, ownerID, id string) error {
	t, ok := m.threads[id]
	if !ok || t.OwnerID != ownerID {
		return apperror.NotFound("thread", id)
	}
	delete(m.threads, id)
	return nil
}

func (m *mockThreadRepo) ListThreads(_ context.Context, filter repository.ThreadFilter) ([]model.Thread, error) {
	result := make([]model.Thread, 0, len(m.threads))
	for _, t := range m.threads {
		if filter.OwnerID != "" && t.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		result = append(result, *t)
	}
	// Newest first by the requested column, mirroring the sqlite ORDER BY.
	for i := 0; i < len(result); i++ {
		for j := i + 1; j < len(result); j++ {
			if threadSortKey(result[j], filter.OrderBy).After(threadSortKey(result[i], filter.OrderBy)) {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	return result, nil
}

func threadSortKey(t model.Thread, order repository.ThreadOrder) time.Time {
	if order == repository.OrderByPublishedAt {
		if t.PublishedAt == nil {
			return time.Time{}
		}
		return *t.PublishedAt
	}
	return t.UpdatedAt
}

// newTestThreadService wires a ThreadService against fresh mocks, with one
// registered user who owns the given characters.
func newTestThreadService(t *testing.T, characters ...model.Character) (*ThreadService, *mockThreadRepo, *mockCharacterRepo, string) {
	t.Helper()

	users := newMockUserRepo()
	chars := newMockCharacterRepo()
	threads := newMockThreadRepo()

	user := &model.User{Username: "rowan", Email: "rowan@example.com"}
	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("creating test user: %v", err)
	}
	for i := range characters {
		c := characters[i]
		c.ID = "" // force insert
		if err := chars.UpsertCharacter(context.Background(), user.ID, &c); err != nil {
			t.Fatalf("creating test character: %v", err)
		}
	}

	svc := NewThreadService(threads, chars, users, testLogger())
	return svc, threads, chars, user.ID
}

// rawIndex renders an int the way the JSON decoder would hand it to
// PostInput.CharacterIndex.
func rawIndex(v int) json.RawMessage { return json.RawMessage(strconv.Itoa(v)) }
