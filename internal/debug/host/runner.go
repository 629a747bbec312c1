// Package host runs an emulated machine under the control of a debugger
// session. It is the reference runtime for gdbserver: it decides where the
// target suspends and executes the resume action chosen by the client.
package host

import (
	"context"
	"fmt"

	"github.com/ngdevkit/emudbg/internal/debug/emulator"
	"github.com/ngdevkit/emudbg/internal/debug/gdbserver"
)

// DefaultSliceBudget is how many instructions run between two polls for an
// interrupt request.
const DefaultSliceBudget = 10000

// Machine is an emulator target the runner can single-step.
type Machine interface {
	emulator.Target
	PC() uint32
	Step() uint32
	HasBreakpoint(addr uint32) bool
	Halted() bool
}

// StopReason tells why execution suspended.
type StopReason int

const (
	StopStep StopReason = iota
	StopBreakpoint
	StopInterrupt
	StopRangeExit
	StopHalted
	StopCancelled
	StopIdle
)

func (r StopReason) String() string {
	switch r {
	case StopStep:
		return "step"
	case StopBreakpoint:
		return "breakpoint"
	case StopInterrupt:
		return "interrupt"
	case StopRangeExit:
		return "range exit"
	case StopHalted:
		return "halted"
	case StopCancelled:
		return "cancelled"
	case StopIdle:
		return "idle"
	default:
		return fmt.Sprintf("stop(%d)", int(r))
	}
}

// Settings is a configuration revision picked up between suspend points.
type Settings struct {
	Options     gdbserver.Options
	SliceBudget int
}

// Runner owns the machine and its debug session.
type Runner struct {
	machine Machine
	session *gdbserver.Session
	log     gdbserver.Logger
	budget  int
	reloads <-chan Settings
}

// NewRunner wires machine to session. A non-positive sliceBudget selects
// DefaultSliceBudget.
func NewRunner(machine Machine, session *gdbserver.Session, sliceBudget int) *Runner {
	if sliceBudget <= 0 {
		sliceBudget = DefaultSliceBudget
	}
	log := session.Options().Logger
	return &Runner{machine: machine, session: session, log: log, budget: sliceBudget}
}

// SetReloads sets the channel configuration revisions arrive on.
func (r *Runner) SetReloads(ch <-chan Settings) { r.reloads = ch }

// Run serves debugger clients one after another until ctx is done. A client
// that detaches or drops its connection is replaced by the next one to
// connect. Run only returns on cancellation or when the address cannot be
// listened on.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if err := r.session.WaitForClient(ctx); err != nil {
			return err
		}
		err := r.Serve(ctx)
		_ = r.session.Disconnect()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			r.log.Info("debugger session ended: %v", err)
		} else {
			r.log.Info("debugger detached")
		}
	}
}

// Serve runs the attached client until it detaches, returning nil, or until
// the connection fails.
func (r *Runner) Serve(ctx context.Context) error {
	suspended := false
	for {
		r.applyReloads()

		var next gdbserver.RunCommand
		if err := r.session.ServerLoop(suspended, &next); err != nil {
			return err
		}
		if next.Action == gdbserver.ActionDetach {
			return nil
		}
		reason := r.Execute(ctx, next)
		r.log.Debug("%s stopped at %#x: %s", next, r.machine.PC(), reason)
		if reason == StopCancelled {
			return ctx.Err()
		}
		suspended = true
	}
}

// Execute performs one resume action and returns once the machine suspends.
func (r *Runner) Execute(ctx context.Context, cmd gdbserver.RunCommand) StopReason {
	switch cmd.Action {
	case gdbserver.ActionContinue:
		return r.run(ctx, func(uint32) bool { return true }, StopInterrupt)
	case gdbserver.ActionStep:
		r.machine.Step()
		if r.machine.Halted() {
			return StopHalted
		}
		return StopStep
	case gdbserver.ActionStepRange:
		return r.run(ctx, cmd.InRange, StopRangeExit)
	default:
		// stop requests and unknown actions leave the machine where it is
		return StopIdle
	}
}

// run steps while keep accepts the new PC. It stops early on a breakpoint,
// when the machine halts, or when the client sends input, polled once per
// slice. The stop reason for a rejected PC is leave.
func (r *Runner) run(ctx context.Context, keep func(pc uint32) bool, leave StopReason) StopReason {
	for {
		for i := 0; i < r.budget; i++ {
			pc := r.machine.Step()
			if r.machine.Halted() {
				return StopHalted
			}
			if r.machine.HasBreakpoint(pc) {
				return StopBreakpoint
			}
			if !keep(pc) {
				return leave
			}
		}
		if r.session.HasPendingInput() {
			return StopInterrupt
		}
		if ctx.Err() != nil {
			return StopCancelled
		}
	}
}

// applyReloads drains pending configuration revisions, keeping the last.
func (r *Runner) applyReloads() {
	for {
		select {
		case st, ok := <-r.reloads:
			if !ok {
				r.reloads = nil
				return
			}
			r.apply(st)
		default:
			return
		}
	}
}

func (r *Runner) apply(st Settings) {
	if st.Options.Logger == nil {
		st.Options.Logger = r.log
	}
	if err := r.session.SetOptions(st.Options); err != nil {
		r.log.Info("ignoring configuration: %v", err)
		return
	}
	r.log = r.session.Options().Logger
	if st.SliceBudget > 0 {
		r.budget = st.SliceBudget
	}
	r.log.Info("configuration reloaded")
}
