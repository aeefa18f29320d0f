package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/drivedesk/internal/domain"
	"github.com/soyeahso/drivedesk/internal/llm"
	"github.com/soyeahso/drivedesk/internal/logging"
	"github.com/soyeahso/drivedesk/internal/metrics"
	"github.com/soyeahso/drivedesk/internal/session"
	"github.com/soyeahso/drivedesk/internal/tools"
)

// DefaultMaxIterations bounds engine calls per run.
const DefaultMaxIterations = 8

var (
	// ErrLoopCapExceeded means the engine kept requesting tools past the
	// iteration budget.
	ErrLoopCapExceeded = errors.New("tool loop exceeded iteration cap")

	// ErrEmptyReply means the engine ended the run without any text.
	ErrEmptyReply = errors.New("engine returned an empty reply")
)

// State is the loop's position in a run.
type State int

const (
	StateAwaitingEngine State = iota
	StateDispatching
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingEngine:
		return "awaiting_engine"
	case StateDispatching:
		return "dispatching"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Dispatcher executes tool calls for a user.
type Dispatcher interface {
	Dispatch(ctx context.Context, userID string, call tools.Call) (tools.Result, error)
	Definitions() []tools.Definition
}

// RunnerConfig configures the agent runner.
type RunnerConfig struct {
	Model         string
	MaxIterations int
	MaxTokens     int
	Temperature   *float64
	ExtraPrompt   string
	Location      *time.Location
	Now           func() time.Time
}

// RunResult is the outcome of one run.
type RunResult struct {
	Reply      string        `json:"reply"`
	UserID     string        `json:"userId"`
	Iterations int           `json:"iterations"`
	ToolsUsed  []string      `json:"toolsUsed,omitempty"`
	Model      string        `json:"model,omitempty"`
	Usage      llm.Usage     `json:"usage"`
	Duration   time.Duration `json:"duration"`
}

// Runner drives the engine/tool loop for one user message at a time per
// user.
type Runner struct {
	cfg    RunnerConfig
	client llm.Client
	memory session.Memory
	tools  Dispatcher
	locks  userLocks
	log    *logging.Logger
}

// NewRunner creates an agent runner. client should already carry any retry
// policy (see RetryClient).
func NewRunner(cfg RunnerConfig, client llm.Client, memory session.Memory, dispatcher Dispatcher, log *logging.Logger) *Runner {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Runner{cfg: cfg, client: client, memory: memory, tools: dispatcher, log: log.Sub("agent")}
}

// run holds the mutable state of a single Run call.
type run struct {
	userID   string
	state    State
	messages []llm.Message
	result   RunResult
}

// Run answers msg. It returns exactly one reply or an error; on error
// nothing has been written to memory beyond the user's turn and tool
// markers.
func (r *Runner) Run(ctx context.Context, msg domain.InboundMessage) (*RunResult, error) {
	start := time.Now()
	if msg.UserID == "" {
		return nil, errors.New("run: message has no user id")
	}

	release, err := r.locks.acquire(ctx, msg.UserID)
	if err != nil {
		return nil, fmt.Errorf("waiting for user %s: %w", msg.UserID, err)
	}
	defer release()

	st := &run{userID: msg.UserID, state: StateAwaitingEngine}
	st.result.UserID = msg.UserID

	reply, err := r.loop(ctx, st, msg)
	st.result.Duration = time.Since(start)

	outcome := "done"
	switch {
	case errors.Is(err, ErrLoopCapExceeded):
		outcome = "loop_cap"
	case err != nil:
		outcome = "failed"
	}
	metrics.AgentRun(outcome, st.result.Iterations)

	if err != nil {
		r.log.Error().Err(err).
			Str("user", msg.UserID).
			Str("failedIn", st.state.String()).
			Int("iterations", st.result.Iterations).
			Strs("tools", st.result.ToolsUsed).
			Msg("run failed")
		r.transition(st, StateFailed)
		return nil, err
	}

	st.result.Reply = reply
	r.log.Info().
		Str("user", msg.UserID).
		Str("model", st.result.Model).
		Int("iterations", st.result.Iterations).
		Strs("tools", st.result.ToolsUsed).
		Int("inputTokens", st.result.Usage.InputTokens).
		Int("outputTokens", st.result.Usage.OutputTokens).
		Dur("duration", st.result.Duration).
		Msg("reply generated")
	return &st.result, nil
}

// Resetter drops everything stored for a user.
type Resetter interface {
	Reset(ctx context.Context, userID string) error
}

// Reset clears the user's session while holding the user's run lock, so it
// never interleaves with a loop in flight.
func (r *Runner) Reset(ctx context.Context, userID string, store Resetter) error {
	release, err := r.locks.acquire(ctx, userID)
	if err != nil {
		return fmt.Errorf("waiting for user %s: %w", userID, err)
	}
	defer release()
	if err := store.Reset(ctx, userID); err != nil {
		return fmt.Errorf("reset %s: %w", userID, err)
	}
	r.log.Info().Str("user", userID).Msg("session reset")
	return nil
}

func (r *Runner) loop(ctx context.Context, st *run, msg domain.InboundMessage) (string, error) {
	if err := r.memory.Append(ctx, st.userID, domain.Turn{Role: domain.RoleUser, Content: msg.Body}); err != nil {
		return "", fmt.Errorf("record user turn: %w", err)
	}
	history, err := r.memory.Read(ctx, st.userID)
	if err != nil {
		return "", fmt.Errorf("read memory: %w", err)
	}
	st.messages = historyMessages(history)

	defs := r.tools.Definitions()
	system := BuildSystemPrompt(PromptConfig{
		Today:       r.cfg.Now().In(r.cfg.Location),
		UserName:    msg.UserName,
		Tools:       defs,
		ExtraPrompt: r.cfg.ExtraPrompt,
	})
	toolDefs := make([]llm.ToolDefinition, len(defs))
	for i, d := range defs {
		toolDefs[i] = llm.ToolDefinition{Name: string(d.Name), Description: d.Description, InputSchema: d.InputSchema()}
	}

	r.log.Debug().Str("user", st.userID).Int("historyLen", len(history)).Msg("run started")

	for st.result.Iterations < r.cfg.MaxIterations {
		st.result.Iterations++
		r.transition(st, StateAwaitingEngine)

		resp, err := r.client.Complete(ctx, llm.CompletionRequest{
			Model:       r.cfg.Model,
			System:      system,
			Messages:    st.messages,
			Tools:       toolDefs,
			MaxTokens:   r.cfg.MaxTokens,
			Temperature: r.cfg.Temperature,
		})
		if err != nil {
			return "", fmt.Errorf("engine call %d: %w", st.result.Iterations, err)
		}
		st.result.Model = resp.Model
		st.result.Usage.InputTokens += resp.Usage.InputTokens
		st.result.Usage.OutputTokens += resp.Usage.OutputTokens

		if len(resp.ToolCalls) == 0 {
			return r.finish(ctx, st, UnwrapReply(resp.Content))
		}

		reply, done, err := r.dispatch(ctx, st, resp)
		if err != nil {
			return "", err
		}
		if done {
			return r.finish(ctx, st, reply)
		}
	}
	return "", fmt.Errorf("%w (%d)", ErrLoopCapExceeded, r.cfg.MaxIterations)
}

// dispatch runs the first requested tool. Further calls in the same
// response are dropped, and the replayed assistant message carries only the
// call that ran so every call id has exactly one tool answer.
func (r *Runner) dispatch(ctx context.Context, st *run, resp *llm.CompletionResponse) (string, bool, error) {
	r.transition(st, StateDispatching)
	call := resp.ToolCalls[0]
	if n := len(resp.ToolCalls); n > 1 {
		r.log.Warn().Str("user", st.userID).Int("discarded", n-1).Str("tool", call.Name).Msg("engine requested several tools; running only the first")
	}

	st.messages = append(st.messages, llm.Message{
		Role:      llm.RoleAssistant,
		Content:   resp.Content,
		ToolCalls: []llm.ToolCall{call},
	})

	res, err := r.tools.Dispatch(ctx, st.userID, tools.Call{
		ID:        call.ID,
		Name:      call.Name,
		Arguments: json.RawMessage(call.Input),
	})
	if err != nil {
		return "", false, fmt.Errorf("dispatch %s: %w", call.Name, err)
	}
	st.result.ToolsUsed = append(st.result.ToolsUsed, string(res.Tool))

	st.messages = append(st.messages, llm.Message{
		Role:       llm.RoleTool,
		Content:    res.JSON(),
		ToolCallID: call.ID,
	})

	if res.OK() && res.Tool == tools.Respond {
		return res.Payload().(tools.RespondPayload).Text, true, nil
	}

	marker := domain.Turn{Role: domain.RoleAssistant, Content: ToolMarker(res.Tool)}
	if err := r.memory.Append(ctx, st.userID, marker); err != nil {
		return "", false, fmt.Errorf("record tool marker: %w", err)
	}
	return "", false, nil
}

func (r *Runner) finish(ctx context.Context, st *run, reply string) (string, error) {
	if reply == "" {
		return "", ErrEmptyReply
	}
	if err := r.memory.Append(ctx, st.userID, domain.Turn{Role: domain.RoleAssistant, Content: reply}); err != nil {
		return "", fmt.Errorf("record reply: %w", err)
	}
	r.transition(st, StateDone)
	return reply, nil
}

func (r *Runner) transition(st *run, to State) {
	if st.state != to {
		r.log.Debug().Str("user", st.userID).Stringer("from", st.state).Stringer("to", to).Msg("loop state")
	}
	st.state = to
}

// ToolMarker is the compact memory entry recorded in place of a tool's
// full output.
func ToolMarker(name tools.Name) string {
	return "(used tool: " + string(name) + ")"
}

// historyMessages converts persisted turns into engine messages. Tool turns
// are never replayed without their originating call, so they are skipped.
func historyMessages(turns []domain.Turn) []llm.Message {
	out := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case domain.RoleUser:
			out = append(out, llm.Message{Role: llm.RoleUser, Content: t.Content})
		case domain.RoleAssistant:
			out = append(out, llm.Message{Role: llm.RoleAssistant, Content: t.Content})
		}
	}
	return out
}

// FailureMessage is the single user-facing text sent when a run fails.
func FailureMessage(err error) string {
	switch {
	case errors.Is(err, ErrLoopCapExceeded):
		return "Sorry, I couldn't finish that request. Try asking in a more specific way."
	case llm.IsRateLimited(err):
		return "I'm getting too many requests right now. Please try again in a minute."
	case errors.Is(err, context.DeadlineExceeded):
		return "Sorry, that took too long. Please try again."
	default:
		return "Sorry, something went wrong while handling your request."
	}
}
