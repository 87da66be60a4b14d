package model

// UnavailableReason explains why a StoreHandle has no store.
type UnavailableReason int

const (
	// ReasonNone means the handle is connected.
	ReasonNone UnavailableReason = iota
	// ReasonDisabled means the store was switched off by configuration.
	ReasonDisabled
	// ReasonUnreachable means the connection attempt failed.
	ReasonUnreachable
	// ReasonCanceled means the caller gave up before the attempt finished.
	// The store may still turn out reachable, so it is not degraded mode.
	ReasonCanceled
)

func (r UnavailableReason) String() string {
	switch r {
	case ReasonNone:
		return "connected"
	case ReasonDisabled:
		return "disabled"
	case ReasonUnreachable:
		return "unreachable"
	case ReasonCanceled:
		return "canceled"
	}
	return "unknown"
}

// StoreHandle is the outcome of acquiring the user store: either a
// connected store or the reason it is unavailable. Decision functions take
// a handle instead of reaching for a global connection.
type StoreHandle struct {
	store  UserStore
	reason UnavailableReason
	err    error
}

// Connected returns a handle wrapping a live store.
func Connected(store UserStore) StoreHandle {
	return StoreHandle{store: store}
}

// Unavailable returns a handle without a store. err is the connection
// failure for ReasonUnreachable, the context error for ReasonCanceled and
// nil otherwise.
func Unavailable(reason UnavailableReason, err error) StoreHandle {
	return StoreHandle{reason: reason, err: err}
}

// Store returns the store and true when the handle is connected.
func (h StoreHandle) Store() (UserStore, bool) {
	if h.store == nil {
		return nil, false
	}
	return h.store, true
}

// Reason returns why the store is unavailable, or ReasonNone.
func (h StoreHandle) Reason() UnavailableReason {
	if h.store != nil {
		return ReasonNone
	}
	if h.reason == ReasonNone {
		return ReasonDisabled
	}
	return h.reason
}

// Degraded reports whether the store is known to be unavailable, either
// disabled or failed to connect. A canceled acquisition is not degraded.
func (h StoreHandle) Degraded() bool {
	switch h.Reason() {
	case ReasonDisabled, ReasonUnreachable:
		return true
	}
	return false
}

// Err returns the connection failure behind an unreachable handle.
func (h StoreHandle) Err() error {
	return h.err
}
