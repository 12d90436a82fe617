package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/m3rciful/ridebot/app/domain"
	"github.com/m3rciful/ridebot/core/logger"
	"github.com/m3rciful/ridebot/core/state"
)

const cancelCommand = "/cancel"

// Validator checks one turn's input and returns the value to store.
// Rejections must be *domain.ValidationError; the flow then stays in the
// same state and the error text is re-prompted.
type Validator func(input string) (interface{}, error)

// Step is one row of a flow's transition table. Every step has exactly
// one success transition (Next, or commit when Next is empty) and, when a
// validator is present, one self-loop on validation failure.
type Step struct {
	// Prompt is sent when the flow enters this step.
	Prompt string
	// Field is the bag key the accepted value is stored under.
	Field string
	// Validate may be nil: the trimmed input is then accepted verbatim.
	Validate Validator
	// Next is the state to advance to; empty marks the terminal step,
	// after which Commit runs.
	Next state.State
}

// Flow is a named multi-turn conversation declared as a transition table.
type Flow struct {
	Name  string
	Entry state.State
	Steps map[state.State]Step
	// Guard, when set, must pass before the flow starts.
	Guard func(userID int64) error
	// Commit runs after the terminal step with the full input bag. It
	// must map domain failures to user-facing reply text; the returned
	// error is surfaced to the transport layer for logging only.
	Commit func(ctx context.Context, userID int64, bag Bag) (Reply, error)
}

type boundStep struct {
	flow *Flow
	step Step
}

// Engine executes flows against the session store. One engine instance
// serves all conversations; per-user state lives in the session manager.
type Engine struct {
	sessions state.Manager
	steps    map[state.State]boundStep
	flows    map[string]*Flow
}

// NewEngine indexes the transition tables of all flows. Every state must
// belong to exactly one flow and every non-terminal Next must resolve.
func NewEngine(sessions state.Manager, flows ...*Flow) (*Engine, error) {
	e := &Engine{
		sessions: sessions,
		steps:    make(map[state.State]boundStep),
		flows:    make(map[string]*Flow),
	}
	for _, f := range flows {
		if _, dup := e.flows[f.Name]; dup {
			return nil, fmt.Errorf("flows: duplicate flow %q", f.Name)
		}
		e.flows[f.Name] = f
		if _, ok := f.Steps[f.Entry]; !ok {
			return nil, fmt.Errorf("flows: %s entry state %q has no step", f.Name, f.Entry)
		}
		for st, step := range f.Steps {
			if _, dup := e.steps[st]; dup {
				return nil, fmt.Errorf("flows: state %q registered twice", st)
			}
			if step.Next != "" {
				if _, ok := f.Steps[step.Next]; !ok {
					return nil, fmt.Errorf("flows: %s state %q points to unknown state %q", f.Name, st, step.Next)
				}
			}
			e.steps[st] = boundStep{flow: f, step: step}
		}
	}
	return e, nil
}

// InProgress reports whether the user has an active flow.
func (e *Engine) InProgress(userID int64) bool {
	return e.sessions.InProgress(userID)
}

// Start begins a named flow for the user, superseding any flow already in
// progress. The seed map pre-fills the input bag (e.g. the selected ride
// id). The returned reply carries the entry step's prompt.
func (e *Engine) Start(ctx context.Context, userID int64, flowName string, seed map[string]interface{}) (Reply, error) {
	flow, ok := e.flows[flowName]
	if !ok {
		return Reply{}, fmt.Errorf("flows: unknown flow %q", flowName)
	}
	if flow.Guard != nil {
		if err := flow.Guard(userID); err != nil {
			return Reply{Text: deniedText(err)}, err
		}
	}

	e.sessions.Clear(userID)
	for k, v := range seed {
		e.sessions.SetTemp(userID, k, v)
	}
	e.sessions.SetState(userID, flow.Entry)

	logger.Debug(ctx, "flow", "flow.start",
		slog.Int64("user_id", userID),
		slog.String("flow", flow.Name),
		slog.String("state", string(flow.Entry)),
	)
	return Reply{Text: flow.Steps[flow.Entry].Prompt}, nil
}

// HandleTurn advances the user's active flow with one input. The boolean
// reports whether a flow consumed the input; false means no flow is
// active and the caller should route the input elsewhere. The error is
// for transport-level logging; the reply always holds the user-facing
// text.
func (e *Engine) HandleTurn(ctx context.Context, userID int64, input string) (Reply, bool, error) {
	st := e.sessions.GetState(userID)
	if st == state.StateIdle {
		return Reply{}, false, nil
	}
	bound, ok := e.steps[st]
	if !ok {
		// A state with no table entry is unrecoverable; drop the session.
		e.sessions.Clear(userID)
		return Reply{Text: "Something went wrong, the operation was reset."}, true, fmt.Errorf("flows: no step for state %q", st)
	}

	input = strings.TrimSpace(input)
	if strings.EqualFold(input, cancelCommand) {
		reply := e.cancelActive(ctx, userID, bound.flow.Name)
		return reply, true, nil
	}

	value := interface{}(input)
	if bound.step.Validate != nil {
		v, err := bound.step.Validate(input)
		if err != nil {
			logger.Debug(ctx, "flow", "turn.rejected",
				slog.Int64("user_id", userID),
				slog.String("flow", bound.flow.Name),
				slog.String("state", string(st)),
			)
			return Reply{Text: err.Error()}, true, nil
		}
		value = v
	}
	if bound.step.Field != "" {
		e.sessions.SetTemp(userID, bound.step.Field, value)
	}

	if next := bound.step.Next; next != "" {
		e.sessions.SetState(userID, next)
		logger.Debug(ctx, "flow", "turn.advance",
			slog.Int64("user_id", userID),
			slog.String("flow", bound.flow.Name),
			slog.String("state", string(next)),
		)
		return Reply{Text: bound.flow.Steps[next].Prompt}, true, nil
	}

	// Terminal step: commit with the accumulated bag, then clear the
	// session regardless of outcome.
	bag := Bag(e.sessions.TempSnapshot(userID))
	e.sessions.Clear(userID)
	reply, err := bound.flow.Commit(ctx, userID, bag)
	if err != nil {
		logger.Warn(ctx, "flow", "flow.failed",
			slog.Int64("user_id", userID),
			slog.String("flow", bound.flow.Name),
			slog.String("err", err.Error()),
		)
		if reply.Text == "" {
			reply.Text = "The operation failed, please try again later."
		}
		return reply, true, err
	}
	logger.Info(ctx, "flow", "flow.done",
		slog.Int64("user_id", userID),
		slog.String("flow", bound.flow.Name),
	)
	return reply, true, nil
}

// Cancel aborts the user's active flow. With no flow in progress it
// reports that there is nothing to cancel and changes no state.
func (e *Engine) Cancel(ctx context.Context, userID int64) Reply {
	st := e.sessions.GetState(userID)
	if st == state.StateIdle {
		return Reply{Text: "There is no active operation to cancel."}
	}
	name := ""
	if bound, ok := e.steps[st]; ok {
		name = bound.flow.Name
	}
	return e.cancelActive(ctx, userID, name)
}

func (e *Engine) cancelActive(ctx context.Context, userID int64, flowName string) Reply {
	e.sessions.Clear(userID)
	logger.Info(ctx, "flow", "flow.cancelled",
		slog.Int64("user_id", userID),
		slog.String("flow", flowName),
	)
	return Reply{Text: "Operation cancelled."}
}

func deniedText(err error) string {
	var authErr *domain.AuthorizationError
	if errors.As(err, &authErr) {
		return "Only a manager can do that."
	}
	return "Access denied."
}
