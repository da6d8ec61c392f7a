package send

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/Mohsinsiddi/w3send/internal/token"
)

// State is the lifecycle phase of the transfer form.
type State int

const (
	// StateIdle: composing the form, no dialog open.
	StateIdle State = iota
	// StateConfirming: the confirmation dialog is open, nothing in flight.
	StateConfirming
	// StateAwaitingSignature: submission started, waiting for the key to sign.
	StateAwaitingSignature
	// StateAwaitingReceipt: broadcast, waiting for the transaction to mine.
	StateAwaitingReceipt
	// StateConfirmed: mined successfully; resets to idle shortly after.
	StateConfirmed
	// StateFailed: submission or mining failed; the dialog stays open with
	// a notice.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConfirming:
		return "confirming"
	case StateAwaitingSignature:
		return "awaiting-signature"
	case StateAwaitingReceipt:
		return "awaiting-receipt"
	case StateConfirmed:
		return "confirmed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// defaultResetDelay is how long the success view stays up before the form
// clears for the next transfer.
const defaultResetDelay = 2 * time.Second

// TransferRequest is a validated transfer ready for confirmation.
type TransferRequest struct {
	To     string
	Amount *big.Int // smallest units
	// AmountText is the user's original input, redisplayed in the dialog.
	AmountText string
}

// Submitter signs and broadcasts a confirmed transfer, then waits for it
// to mine. Split in two so the machine can distinguish the signature phase
// (user-rejectable) from the mining phase.
type Submitter interface {
	// Submit signs and broadcasts, returning the transaction hash.
	Submit(ctx context.Context, req TransferRequest, est *Estimate) (hash string, err error)
	// WaitMined blocks until the transaction succeeds or fails on chain.
	WaitMined(ctx context.Context, hash string) error
}

// Machine drives a transfer from form entry through confirmation, signing,
// broadcast and receipt. All methods are safe for concurrent use; the UI
// polls Snapshot for rendering.
type Machine struct {
	submitter Submitter
	reset     time.Duration

	mu         sync.Mutex
	state      State
	req        TransferRequest
	est        *Estimate
	hash       string
	notice     error
	inFlight   bool
	noRetry    bool
	resetTimer *time.Timer
	// onChange, if set, fires (outside the lock) after every state change
	// so an event-driven UI can redraw without polling.
	onChange func()
}

// MachineOption configures a Machine.
type MachineOption func(*Machine)

// WithResetDelay overrides how long the success state lingers before the
// machine returns to idle.
func WithResetDelay(d time.Duration) MachineOption {
	return func(m *Machine) { m.reset = d }
}

// WithChangeHook registers a callback invoked after every transition.
func WithChangeHook(fn func()) MachineOption {
	return func(m *Machine) { m.onChange = fn }
}

// NewMachine creates a Machine in the idle state.
func NewMachine(submitter Submitter, opts ...MachineOption) *Machine {
	m := &Machine{submitter: submitter, reset: defaultResetDelay}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Snapshot is a point-in-time copy of the machine for rendering.
type Snapshot struct {
	State    State
	Request  TransferRequest
	Estimate *Estimate
	Hash     string
	Notice   error
	// Retryable is false when a failed transfer must not be confirmed
	// again (a broadcast transaction may still mine).
	Retryable bool
}

// Snapshot returns the current state for display.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		State:     m.state,
		Request:   m.req,
		Estimate:  m.est,
		Hash:      m.hash,
		Notice:    m.notice,
		Retryable: !m.noRetry,
	}
}

// State returns the current lifecycle phase.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Begin validates the form and, if clean, opens the confirmation dialog
// with the given gas estimate attached. Field errors leave the machine
// idle so the form can surface them inline.
func (m *Machine) Begin(v Validator, to, amount string, est *Estimate) FieldErrors {
	if errs := v.Validate(to, amount); errs != nil {
		return errs
	}
	parsed, err := token.ParseAmount(strings.TrimSpace(amount), v.Decimals)
	if err != nil {
		return FieldErrors{"amount": ErrAmountNotNumber}
	}

	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		return nil
	}
	m.state = StateConfirming
	m.req = TransferRequest{To: to, Amount: parsed, AmountText: amount}
	m.est = est
	m.hash = ""
	m.notice = nil
	m.noRetry = false
	m.mu.Unlock()
	m.notify()
	return nil
}

// UpdateEstimate attaches a fresher gas quote to the open confirmation.
// The quote must be for the transfer being confirmed; anything else, or a
// call once the submission is in flight, is ignored.
func (m *Machine) UpdateEstimate(to string, amount *big.Int, est *Estimate) {
	if est == nil {
		return
	}
	m.mu.Lock()
	if m.state != StateConfirming ||
		m.req.To != to ||
		amount == nil || m.req.Amount == nil || m.req.Amount.Cmp(amount) != 0 {
		m.mu.Unlock()
		return
	}
	m.est = est
	m.mu.Unlock()
	m.notify()
}

// Dismiss closes the confirmation dialog. Ignored while a submission is in
// flight: the transfer is already committed at that point.
func (m *Machine) Dismiss() {
	m.mu.Lock()
	if m.inFlight || (m.state != StateConfirming && m.state != StateFailed) {
		m.mu.Unlock()
		return
	}
	m.state = StateIdle
	m.est = nil
	m.notice = nil
	m.noRetry = false
	m.mu.Unlock()
	m.notify()
}

// Confirm launches the confirmed transfer. It returns immediately; the
// submission runs in its own goroutine and the machine advances through
// awaiting-signature and awaiting-receipt as it progresses. Calling Confirm
// outside the dialog, while a transfer is already in flight, or after a
// failure that may still mine, returns ErrNotConfirmable.
func (m *Machine) Confirm(ctx context.Context) error {
	m.mu.Lock()
	if m.inFlight || m.noRetry || (m.state != StateConfirming && m.state != StateFailed) {
		m.mu.Unlock()
		return ErrNotConfirmable
	}
	m.inFlight = true
	m.state = StateAwaitingSignature
	m.notice = nil
	req, est := m.req, m.est
	m.mu.Unlock()
	m.notify()

	go m.run(ctx, req, est)
	return nil
}

func (m *Machine) run(ctx context.Context, req TransferRequest, est *Estimate) {
	hash, err := m.submitter.Submit(ctx, req, est)
	if err != nil {
		m.fail(err)
		return
	}

	m.mu.Lock()
	m.state = StateAwaitingReceipt
	m.hash = hash
	m.mu.Unlock()
	m.notify()

	if err := m.submitter.WaitMined(ctx, hash); err != nil {
		m.fail(err)
		return
	}

	m.mu.Lock()
	m.state = StateConfirmed
	m.inFlight = false
	if m.resetTimer != nil {
		m.resetTimer.Stop()
	}
	m.resetTimer = time.AfterFunc(m.reset, m.resetToIdle)
	m.mu.Unlock()
	m.notify()
}

// fail records a submission error. A user-declined signature is not an
// error state: the dialog reopens silently so the user can try again or
// dismiss it. A mine timeout blocks retry — the broadcast transaction may
// still land, and confirming again would send a second one.
func (m *Machine) fail(err error) {
	m.mu.Lock()
	m.inFlight = false
	if IsUserRejected(err) {
		m.state = StateConfirming
		m.notice = nil
	} else {
		m.state = StateFailed
		m.notice = err
		m.noRetry = m.hash != "" && errors.Is(err, ErrMineTimeout)
	}
	m.mu.Unlock()
	m.notify()
}

// resetToIdle clears the completed transfer after the success view's
// linger period.
func (m *Machine) resetToIdle() {
	m.mu.Lock()
	if m.state != StateConfirmed {
		m.mu.Unlock()
		return
	}
	m.state = StateIdle
	m.req = TransferRequest{}
	m.est = nil
	m.hash = ""
	m.noRetry = false
	m.mu.Unlock()
	m.notify()
}

func (m *Machine) notify() {
	if m.onChange != nil {
		m.onChange()
	}
}
