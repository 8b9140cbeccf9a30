package blocks

import "sync"

// OverlayState names the two states of the optimistic overlay.
type OverlayState int

const (
	// StateConfirmed means the held sequence matches the server's last
	// confirmed version.
	StateConfirmed OverlayState = iota
	// StatePendingLocal means the held sequence contains local edits that the
	// server has not yet confirmed.
	StatePendingLocal
)

func (s OverlayState) String() string {
	switch s {
	case StateConfirmed:
		return "confirmed"
	case StatePendingLocal:
		return "pending-local"
	default:
		return "unknown"
	}
}

// PatchEvent carries an externally patched block sequence for a document.
type PatchEvent struct {
	DocumentID string
	Blocks     Sequence
}

// Overlay holds the last-known block sequence for one displayed document and
// applies patch events optimistically. Merging is biased: when an incoming
// block's key already exists locally, the existing local block object is kept
// so in-flight edits are not discarded. This bias can mask remote updates to
// a block until Confirm resynchronises the sequence; no expiry is applied to
// stale local state.
type Overlay struct {
	mu         sync.Mutex
	documentID string
	blocks     Sequence
	state      OverlayState
}

// NewOverlay constructs an overlay for the displayed document with its
// server-confirmed block sequence.
func NewOverlay(documentID string, confirmed Sequence) *Overlay {
	return &Overlay{
		documentID: documentID,
		blocks:     confirmed,
		state:      StateConfirmed,
	}
}

// DocumentID returns the id of the displayed document.
func (o *Overlay) DocumentID() string {
	return o.documentID
}

// Blocks returns the currently held sequence.
func (o *Overlay) Blocks() Sequence {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.blocks
}

// State returns the overlay's current state.
func (o *Overlay) State() OverlayState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// StageLocal replaces the held sequence with a locally edited version and
// marks the overlay pending confirmation.
func (o *Overlay) StageLocal(edited Sequence) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.blocks = edited
	o.state = StatePendingLocal
}

// ApplyPatch merges an external patch into the held sequence. Events for a
// different document are ignored entirely and the held sequence is left
// untouched; the return value reports whether the event applied.
func (o *Overlay) ApplyPatch(event PatchEvent) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if event.DocumentID != o.documentID {
		return false
	}
	if event.Blocks == nil {
		return false
	}

	o.blocks = MergeBlocks(o.blocks, event.Blocks)
	return true
}

// Confirm replaces the held sequence with a server-confirmed version and
// resets the overlay state.
func (o *Overlay) Confirm(confirmed Sequence) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.blocks = confirmed
	o.state = StateConfirmed
}

// MergeBlocks merges an incoming sequence into the local one by
// reconciliation key. The result follows the incoming order; for every
// incoming block whose key already exists locally the local block object is
// kept, otherwise the incoming block is inserted.
func MergeBlocks(local, incoming Sequence) Sequence {
	merged := make(Sequence, 0, len(incoming))
	for _, block := range incoming {
		if existing := local.FindByKey(block.Key()); existing != nil {
			merged = append(merged, existing)
			continue
		}
		merged = append(merged, block)
	}
	return merged
}
