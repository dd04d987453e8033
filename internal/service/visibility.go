package service

import "github.com/sakif/rp-forum/internal/model"

// Visibility rules for threads. Pure functions of (thread, caller) — no
// store access, no side effects — so they can be reasoned about and tested
// in isolation. callerID is "" for anonymous requests.

// CanRead reports whether the caller may view the thread.
// Published threads are public; drafts are visible only to their owner.
func CanRead(thread *model.Thread, callerID string) bool {
	if thread.Status == model.StatusPublished {
		return true
	}
	return callerID != "" && callerID == thread.OwnerID
}

// CanWrite reports whether the caller may modify or delete the thread.
// Only the owner can. There is no administrative override.
func CanWrite(thread *model.Thread, callerID string) bool {
	return callerID != "" && callerID == thread.OwnerID
}
