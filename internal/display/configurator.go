package display

import (
	"fmt"
	"io"
	"log/slog"
)

// TxState is the state of a configuration transaction.
type TxState int

const (
	TxIdle TxState = iota
	TxOpen
	TxStaged
	TxCommitted
	TxAborted
)

func (s TxState) String() string {
	switch s {
	case TxIdle:
		return "idle"
	case TxOpen:
		return "open"
	case TxStaged:
		return "staged"
	case TxCommitted:
		return "committed"
	case TxAborted:
		return "aborted"
	default:
		return fmt.Sprintf("TxState(%d)", int(s))
	}
}

// Transaction drives a single begin/configure/commit sequence. Each phase
// runs only if the previous one succeeded, and a failure is terminal.
type Transaction struct {
	sub    Subsystem
	logger *slog.Logger
	ref    ConfigRef
	state  TxState
	err    error
}

// NewTransaction returns an idle transaction against sub. A nil logger
// discards log output.
func NewTransaction(sub Subsystem, logger *slog.Logger) *Transaction {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Transaction{sub: sub, logger: logger}
}

// State returns the current transaction state.
func (tx *Transaction) State() TxState {
	return tx.state
}

// Err returns the error that aborted the transaction, if any.
func (tx *Transaction) Err() error {
	return tx.err
}

// Begin opens the configuration transaction.
func (tx *Transaction) Begin() error {
	if tx.state != TxIdle {
		return tx.misuse("begin")
	}
	ref, err := tx.sub.BeginConfiguration()
	if err != nil {
		return tx.abort("begin", err)
	}
	tx.ref = ref
	tx.state = TxOpen
	tx.logger.Debug("display configuration opened")
	return nil
}

// Stage records the mode change for dev within the open transaction.
func (tx *Transaction) Stage(dev Device, mode Mode) error {
	if tx.state != TxOpen {
		return tx.misuse("configure")
	}
	if err := tx.ref.ConfigureWithMode(dev.ID, mode); err != nil {
		return tx.abort("configure", err)
	}
	tx.state = TxStaged
	tx.logger.Debug("display mode staged",
		"display", dev.ID,
		"width", mode.Width,
		"height", mode.Height,
	)
	return nil
}

// Commit applies the staged change for the current session. The system may
// fade the screen while it runs.
func (tx *Transaction) Commit() error {
	if tx.state != TxStaged {
		return tx.misuse("commit")
	}
	if err := tx.ref.Complete(); err != nil {
		return tx.abort("commit", err)
	}
	tx.state = TxCommitted
	tx.logger.Debug("display configuration committed")
	return nil
}

// Apply runs all three phases and returns the first failure.
func (tx *Transaction) Apply(dev Device, mode Mode) error {
	if err := tx.Begin(); err != nil {
		return err
	}
	if err := tx.Stage(dev, mode); err != nil {
		return err
	}
	return tx.Commit()
}

// abort records err, cancels an open transaction with the subsystem and
// returns err unchanged.
func (tx *Transaction) abort(phase string, err error) error {
	wasOpen := tx.state == TxOpen || tx.state == TxStaged
	tx.state = TxAborted
	tx.err = err
	tx.logger.Debug("display configuration aborted", "phase", phase, "code", int32(CodeOf(err)))

	if wasOpen && tx.ref != nil {
		if cerr := tx.ref.Cancel(); cerr != nil {
			tx.logger.Debug("cancel display configuration failed", "error", cerr)
		}
	}
	return err
}

func (tx *Transaction) misuse(phase string) error {
	return fmt.Errorf("display: cannot %s a transaction in state %s: %w", phase, tx.state, InvalidOperation)
}

// ApplyMode changes dev to mode for the current session. It returns nil on
// success or the code of the first failing phase.
func ApplyMode(sub Subsystem, dev Device, mode Mode, logger *slog.Logger) error {
	return NewTransaction(sub, logger).Apply(dev, mode)
}
