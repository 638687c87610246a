package draft

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"letterforge/api/internal/llm"
)

const (
	// DefaultAutosaveDelay is the quiet window an edit must survive before
	// the snapshot is written.
	DefaultAutosaveDelay = 1500 * time.Millisecond

	saveTimeout = 10 * time.Second
)

// Gateway is the LLM collaborator: text in, structured text out, or an
// opaque failure.
type Gateway interface {
	Generate(ctx context.Context, req llm.GenerateRequest) (llm.GenerateResult, error)
	Improve(ctx context.Context, req llm.ImproveRequest) (llm.ImproveResult, error)
}

// SnapshotStore is the per-user persistence slot. ReadSnapshot returns
// (nil, nil) when the user has no prior draft.
type SnapshotStore interface {
	ReadSnapshot(ctx context.Context, userID string) (*Snapshot, error)
	WriteSnapshot(ctx context.Context, userID string, input *Input, body string) error
}

// State is a point-in-time copy of the coordinator's in-memory draft.
type State struct {
	Input       *Input   `json:"input"`
	Body        string   `json:"body"`
	Suggestions []string `json:"suggestions"`
	Hydrated    bool     `json:"hydrated"`
	Saving      bool     `json:"saving"`
}

// Coordinator owns the draft state for one session and orchestrates the LLM
// gateway and the persistence store. Operations are serialized by a mutex;
// gateway and store calls run outside the lock, and late responses arriving
// after Close are dropped rather than applied.
//
// Overlapping Generate/Improve calls are not sequenced: the last response to
// settle wins.
type Coordinator struct {
	identity  Identity
	gateway   Gateway
	store     SnapshotStore
	notifier  Notifier
	saveDelay time.Duration

	mu          sync.Mutex
	input       *Input
	body        string
	suggestions []string
	hydrated    bool
	saving      bool
	closed      bool
	saveTimer   *time.Timer
}

func NewCoordinator(identity Identity, gateway Gateway, store SnapshotStore, notifier Notifier, saveDelay time.Duration) *Coordinator {
	if saveDelay <= 0 {
		saveDelay = DefaultAutosaveDelay
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Coordinator{
		identity:  identity,
		gateway:   gateway,
		store:     store,
		notifier:  notifier,
		saveDelay: saveDelay,
	}
}

// Initialize hydrates the coordinator from the persisted snapshot, exactly
// once per session. Until it has run, no autosave is ever issued, so a blank
// fresh session cannot clobber a saved draft. Synthetic identities skip the
// read; they have no persistence backing. A failed read is reported and the
// session continues empty.
func (c *Coordinator) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hydrated || c.closed {
		return nil
	}
	if !c.identity.Present() {
		return ErrUnauthenticated
	}
	if c.identity.Synthetic {
		c.hydrated = true
		return nil
	}

	snapshot, err := c.store.ReadSnapshot(ctx, c.identity.UserID)
	c.hydrated = true
	if err != nil {
		c.notifier.Notify(Notification{
			Kind:        KindPersistenceFailure,
			Title:       "Load Failed",
			Description: "Could not load your saved letter: " + err.Error(),
		})
		return nil
	}
	if snapshot != nil {
		c.input = snapshot.Input
		c.body = snapshot.Body
		c.notifier.Notify(Notification{
			Kind:        KindInfo,
			Title:       "Draft Loaded",
			Description: "Your previously saved draft has been loaded.",
		})
	}
	return nil
}

// Generate asks the gateway for a fresh draft from in. Prior suggestions are
// cleared and in supersedes the previous input before the call is made, so a
// failed generation still keeps the submitted form values. A failure also
// clears the body: nothing trustworthy was generated.
func (c *Coordinator) Generate(ctx context.Context, in Input) error {
	if err := in.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("%w: session torn down", ErrInvalidState)
	}
	if !c.identity.Present() {
		c.mu.Unlock()
		return ErrUnauthenticated
	}
	c.suggestions = nil
	c.input = &in
	c.mu.Unlock()

	result, err := c.gateway.Generate(ctx, llm.GenerateRequest{
		Background:    in.Background,
		TargetDetails: in.TargetDetails,
		LetterType:    string(in.LetterType),
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if err != nil {
		c.body = ""
		c.scheduleSaveLocked()
		c.notifier.Notify(Notification{
			Kind:        KindGatewayFailure,
			Title:       "Error Generating Draft",
			Description: "Something went wrong. Please try again.",
		})
		return fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}
	c.body = result.Draft
	c.scheduleSaveLocked()
	c.notifier.Notify(Notification{
		Kind:        KindInfo,
		Title:       "Draft Generated",
		Description: "Your letter draft has been generated.",
	})
	return nil
}

// Improve asks the gateway to refine the current body using the input's
// target and background for context. On success the body and the suggestion
// list are replaced wholesale; on failure both are left untouched and no
// save is scheduled.
func (c *Coordinator) Improve(ctx context.Context) error {
	c.mu.Lock()
	if !c.identity.Present() {
		c.mu.Unlock()
		return ErrUnauthenticated
	}
	if c.closed || strings.TrimSpace(c.body) == "" || c.input == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: letter content or initial input is missing", ErrInvalidState)
	}
	req := llm.ImproveRequest{
		LetterContent:         c.body,
		TargetJobOrUniversity: c.input.TargetDetails,
		UserBackground:        c.input.Background,
	}
	c.mu.Unlock()

	result, err := c.gateway.Improve(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	if err != nil {
		c.notifier.Notify(Notification{
			Kind:        KindGatewayFailure,
			Title:       "Error Improving Content",
			Description: "Something went wrong. Please try again.",
		})
		return fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}
	c.body = result.ImprovedContent
	c.suggestions = append([]string(nil), result.Suggestions...)
	c.scheduleSaveLocked()
	c.notifier.Notify(Notification{
		Kind:        KindInfo,
		Title:       "Content Improved",
		Description: "The letter has been refined.",
	})
	return nil
}

// EditBody applies a manual edit. Suggestions describe the text they were
// produced from, so any edit invalidates them.
func (c *Coordinator) EditBody(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.body = text
	if len(c.suggestions) > 0 {
		c.suggestions = nil
	}
	c.scheduleSaveLocked()
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	var input *Input
	if c.input != nil {
		copied := *c.input
		input = &copied
	}
	suggestions := make([]string, len(c.suggestions))
	copy(suggestions, c.suggestions)
	return State{
		Input:       input,
		Body:        c.body,
		Suggestions: suggestions,
		Hydrated:    c.hydrated,
		Saving:      c.saving,
	}
}

// Close tears the session down and cancels any pending autosave timer. A
// save already in flight completes; a late gateway response is dropped.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.saveTimer != nil {
		c.saveTimer.Stop()
		c.saveTimer = nil
	}
}

// scheduleSaveLocked arms (or re-arms) the debounce timer. Rapid mutations
// within the window coalesce into a single write carrying whatever state is
// current when the timer fires. Callers must hold c.mu.
func (c *Coordinator) scheduleSaveLocked() {
	if !c.hydrated || c.closed {
		return
	}
	if !c.identity.Present() || c.identity.Synthetic {
		return
	}
	if c.input == nil && c.body == "" {
		return
	}
	if c.saveTimer != nil {
		c.saveTimer.Stop()
	}
	c.saveTimer = time.AfterFunc(c.saveDelay, c.flushSave)
}

func (c *Coordinator) flushSave() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.saveTimer = nil
	var input *Input
	if c.input != nil {
		copied := *c.input
		input = &copied
	}
	body := c.body
	userID := c.identity.UserID
	c.saving = true
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	err := c.store.WriteSnapshot(ctx, userID, input, body)

	c.mu.Lock()
	c.saving = false
	c.mu.Unlock()

	// A failed save never rolls back memory: the local edit is the source
	// of truth and persistence is best-effort mirroring.
	if err != nil {
		c.notifier.Notify(Notification{
			Kind:        KindPersistenceFailure,
			Title:       "Save Failed",
			Description: "Could not save your letter. Please try again.",
		})
	}
}

type noopNotifier struct{}

func (noopNotifier) Notify(Notification) {}
