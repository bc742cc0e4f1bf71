package coroflow

import "github.com/google/uuid"

// CallbackHandle identifies a registered message or finish callback so it
// can later be discarded. Handles are opaque and comparable; discarding an
// unknown or already-fired handle is always a safe no-op.
type CallbackHandle struct {
	id uuid.UUID
}

func newCallbackHandle() CallbackHandle {
	return CallbackHandle{id: uuid.New()}
}

func (h CallbackHandle) valid() bool { return h.id != uuid.Nil }
