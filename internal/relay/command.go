package relay

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-thermal/internal/params"
)

// Command actions.
const (
	ActionStart = "start"
	ActionStop  = "stop"
	ActionReset = "reset"
)

// Controller is the run-state surface of the control loop. *pid.Loop
// satisfies it.
type Controller interface {
	Start() bool
	Stop()
	Reset()
}

// Command is a message on the command topic. Params, when present, is
// applied before Action.
//
//	{"params": {"setpoint": 225, "period_s": 10}, "action": "start"}
type Command struct {
	Action string        `json:"action,omitempty"`
	Params *params.Patch `json:"params,omitempty"`
}

// CommandHandler executes commands against the store and the loop.
type CommandHandler struct {
	store  *params.Store
	ctrl   Controller
	logger Logger

	// mu is held for reading while a command executes; Close takes it
	// for writing, so no command runs after Close returns.
	mu     sync.RWMutex
	closed bool
}

// NewCommandHandler creates a handler.
func NewCommandHandler(store *params.Store, ctrl Controller) *CommandHandler {
	return &CommandHandler{store: store, ctrl: ctrl, logger: noopLogger{}}
}

// SetLogger sets the logger. Call before the handler is subscribed.
func (h *CommandHandler) SetLogger(logger Logger) {
	h.logger = logger
}

// HandleMessage decodes payload and executes it. Its signature matches
// mqtt.MessageHandler.
func (h *CommandHandler) HandleMessage(topic string, payload []byte) error {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCommand, err)
	}
	h.logger.Debug("command received", "topic", topic, "action", cmd.Action)
	return h.Execute(cmd)
}

// Close rejects further commands and waits for any executing command to
// finish. Call it before stopping the loop at shutdown.
func (h *CommandHandler) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()
}

// Execute applies cmd.Params, then performs cmd.Action.
//
// Returns:
//   - error: params.ErrInvalidPatch, ErrUnknownAction, ErrStartRejected
//     or ErrHandlerClosed
func (h *CommandHandler) Execute(cmd Command) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHandlerClosed
	}

	if cmd.Action == "" && cmd.Params == nil {
		return fmt.Errorf("%w: neither action nor params given", ErrInvalidCommand)
	}
	switch cmd.Action {
	case "", ActionStart, ActionStop, ActionReset:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAction, cmd.Action)
	}

	if cmd.Params != nil {
		snap, err := cmd.Params.Apply(h.store)
		if err != nil {
			return err
		}
		h.logger.Info("parameters updated by command", "version", snap.Version)
	}

	switch cmd.Action {
	case ActionStart:
		if !h.ctrl.Start() {
			return ErrStartRejected
		}
	case ActionStop:
		h.ctrl.Stop()
	case ActionReset:
		h.ctrl.Reset()
	}
	return nil
}
