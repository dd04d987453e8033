package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/rp-forum/internal/apperror"
	"github.com/sakif/rp-forum/internal/auth"
	"github.com/sakif/rp-forum/internal/service"
)

// ThreadHandler exposes the thread-authoring workflow and the listings.
//
// ROUTE MAP:
//
//	POST   /api/thread            → create/update a thread (auth required)
//	GET    /api/thread/{id}       → read a thread (anonymous ok, visibility applies)
//	GET    /api/my_forums         → caller's threads, filter by ?status= and ?q=
//	GET    /api/my_forums/{id}    → caller's thread, draft or published
//	DELETE /api/my_forums/{id}    → delete caller's thread
//	GET    /api/published_forums  → public feed, newest publication first
//	GET    /api/community         → public feed, original community shape
type ThreadHandler struct {
	threads *service.ThreadService
	logger  *slog.Logger
}

func NewThreadHandler(threads *service.ThreadService, logger *slog.Logger) *ThreadHandler {
	return &ThreadHandler{threads: threads, logger: logger}
}

// HandleUpsert creates a thread or updates one the caller owns.
//
// HTTP: POST /api/thread
// BODY: {"id"?: string, "title": string, "status"?: "draft"|"published",
//        "posts": [{"characterIndex": int, "nickname"?: string,
//                   "avatar"?: string, "content": string, "floor"?: int}]}
//
// Responds {"ok": true, "id": "<threadID>"} on success.
func (h *ThreadHandler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("login required"))
		return
	}

	var input service.ThreadInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.threads.Upsert(r.Context(), userID, input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]any{"id": id})
}

// HandleGet returns a full thread, drafts included when the caller owns it.
// Sits behind OptionalAuth: anonymous readers see published threads and a
// 403 for anything else that exists.
//
// HTTP: GET /api/thread/{id}
func (h *ThreadHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	callerID, _ := auth.UserIDFromContext(r.Context()) // "" when anonymous

	thread, err := h.threads.Get(r.Context(), callerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]any{"thread": thread})
}

// HandleListMine lists the caller's threads, newest-edited first.
//
// HTTP: GET /api/my_forums?status=<draft|published>&q=<query>
func (h *ThreadHandler) HandleListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("login required"))
		return
	}

	q := r.URL.Query()
	forums, err := h.threads.ListMine(r.Context(), userID, q.Get("status"), q.Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]any{"forums": forums})
}

// HandleGetMine returns one of the caller's threads regardless of status.
//
// HTTP: GET /api/my_forums/{id}
func (h *ThreadHandler) HandleGetMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("login required"))
		return
	}

	thread, err := h.threads.GetOwned(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]any{"thread": thread})
}

// HandleDelete removes one of the caller's threads.
//
// HTTP: DELETE /api/my_forums/{id}
func (h *ThreadHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthorized("login required"))
		return
	}

	if err := h.threads.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, nil)
}

// HandleListPublished is the public feed: published threads sorted by
// publication time, newest first. No auth of any kind.
//
// HTTP: GET /api/published_forums?q=<query>
func (h *ThreadHandler) HandleListPublished(w http.ResponseWriter, r *http.Request) {
	forums, err := h.threads.ListPublished(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]any{"forums": forums})
}

// HandleCommunity is the community page's feed — the same published
// threads, kept as a separate route because the original frontend calls
// both and they may diverge (the community view has no search box).
//
// HTTP: GET /api/community
func (h *ThreadHandler) HandleCommunity(w http.ResponseWriter, r *http.Request) {
	forums, err := h.threads.ListPublished(r.Context(), "")
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]any{"forums": forums})
}
