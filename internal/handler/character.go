package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/rp-forum/internal/apperror"
	"github.com/sakif/rp-forum/internal/auth"
	"github.com/sakif/rp-forum/internal/service"
)

// CharacterHandler exposes the caller's character list over JSON.
// Every route here sits behind RequireAuth — characters belong to a user
// and have no anonymous surface.
type CharacterHandler struct {
	characters *service.CharacterService
	logger     *slog.Logger
}

func NewCharacterHandler(characters *service.CharacterService, logger *slog.Logger) *CharacterHandler {
	return &CharacterHandler{characters: characters, logger: logger}
}

// HandleList returns the caller's characters, optionally filtered.
//
// HTTP: GET /api/my_characters?q=<query>
func (h *CharacterHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("login required"))
		return
	}

	characters, err := h.characters.List(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]any{"characters": characters})
}

// HandleGet returns a single character, used to prefill the edit form.
//
// HTTP: GET /api/characters/{id}
func (h *CharacterHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("login required"))
		return
	}

	char, err := h.characters.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]any{"character": char})
}

// HandleUpsert creates or edits a character.
//
// HTTP: POST /api/characters
// BODY: {"id"?: string, "name": string, "nickname"?: string,
//        "fandom"?: string, "pic"?: string}
func (h *CharacterHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("login required"))
		return
	}

	var input service.CharacterInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	char, err := h.characters.Upsert(r.Context(), userID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]any{"character": char})
}

// HandleDelete removes a character from the caller's list.
//
// HTTP: DELETE /api/characters/{id}
func (h *CharacterHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("login required"))
		return
	}

	charID := r.PathValue("id")
	if charID == "" {
		writeError(w, apperror.ValidationFailed("id", "Character ID is required"))
		return
	}

	if err := h.characters.Delete(r.Context(), userID, charID); err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, nil)
}
