package auth

import (
	"sync"
	"time"

	"storefront/internal/model"
)

// Holder keeps the signed-in customer's credential and profile.
// It is safe for concurrent use.
type Holder struct {
	now func() time.Time

	mu   sync.RWMutex
	cred Credential
	user model.User
	set  bool

	subMu   sync.Mutex
	subs    map[int]func(signedIn bool)
	nextSub int
}

// NewHolder returns an empty holder.
func NewHolder() *Holder {
	return &Holder{
		now:  time.Now,
		subs: make(map[int]func(bool)),
	}
}

// Set parses token and stores it with the customer profile.
func (h *Holder) Set(token string, user model.User) error {
	cred, err := ParseToken(token)
	if err != nil {
		return err
	}
	if user.ID == "" {
		user.ID = cred.UserID
	}
	if user.Email == "" {
		user.Email = cred.Email
	}

	h.mu.Lock()
	h.cred = cred
	h.user = user
	h.set = true
	h.mu.Unlock()

	h.publish(true)
	return nil
}

// Clear forgets the credential.
func (h *Holder) Clear() {
	h.mu.Lock()
	wasSet := h.set
	h.cred = Credential{}
	h.user = model.User{}
	h.set = false
	h.mu.Unlock()

	if wasSet {
		h.publish(false)
	}
}

// Credential returns the stored credential. An expired credential is
// reported as absent.
func (h *Holder) Credential() (Credential, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.set || h.cred.Expired(h.now()) {
		return Credential{}, false
	}
	return h.cred, true
}

// Token returns the bearer token, or "" when signed out.
func (h *Holder) Token() string {
	cred, ok := h.Credential()
	if !ok {
		return ""
	}
	return cred.Token
}

// User returns the stored profile and whether a valid credential is held.
func (h *Holder) User() (model.User, bool) {
	if _, ok := h.Credential(); !ok {
		return model.User{}, false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.user, true
}

// Profile returns the stored profile even if the credential has expired.
func (h *Holder) Profile() model.User {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.user
}

// UpdateUser replaces the stored profile, e.g. after a profile edit.
func (h *Holder) UpdateUser(user model.User) {
	h.mu.Lock()
	if h.set {
		h.user = user
	}
	h.mu.Unlock()
}

// Subscribe registers fn for sign-in and sign-out and returns a func that removes it.
func (h *Holder) Subscribe(fn func(signedIn bool)) func() {
	h.subMu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	h.subMu.Unlock()

	return func() {
		h.subMu.Lock()
		delete(h.subs, id)
		h.subMu.Unlock()
	}
}

func (h *Holder) publish(signedIn bool) {
	h.subMu.Lock()
	fns := make([]func(bool), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.subMu.Unlock()

	for _, fn := range fns {
		fn(signedIn)
	}
}
