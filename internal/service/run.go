package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fiskara/taxchat/internal/assistant"
	"github.com/fiskara/taxchat/internal/config"
	"github.com/fiskara/taxchat/internal/domain"
)

// runExecutor drives one assistant run to a terminal state: submit the
// message, start the run, poll at a fixed interval, resolve tool calls
// along the way. Completed is the only success terminal state; everything
// else maps to a typed error.
type runExecutor struct {
	provider Provider
	tools    *ToolRegistry
	cfg      assistant.RunConfig

	pollInterval time.Duration
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
}

func newRunExecutor(provider Provider, tools *ToolRegistry, cfg assistant.RunConfig) *runExecutor {
	return &runExecutor{
		provider:     provider,
		tools:        tools,
		cfg:          cfg,
		pollInterval: config.PollInterval,
		now:          time.Now,
		sleep:        sleepCtx,
	}
}

// execute posts the user message with its resolved attachments, starts a
// run and polls it until terminal. The timeout is a local wall-clock
// ceiling; the provider never reports a timed-out state itself.
//
// Polling runs as a background task detached from the caller's context
// with its own deadline, so a caller that disconnects mid-run neither
// aborts tool resolution nor leaves an orphaned poll loop behind.
func (e *runExecutor) execute(ctx context.Context, threadID, text string, ids []string, timeout time.Duration) error {
	if err := e.provider.PostMessage(ctx, threadID, text, ids); err != nil {
		return fmt.Errorf("submit message: %w", err)
	}

	run, err := e.provider.CreateRun(ctx, threadID, e.cfg)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	done := make(chan error, 1)
	go func() {
		defer cancel()
		done <- e.poll(runCtx, threadID, run, timeout)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		slog.Warn("caller gone before run settled", "thread_id", threadID, "run_id", run.ID)
		return ctx.Err()
	}
}

func (e *runExecutor) poll(ctx context.Context, threadID string, run *assistant.Run, timeout time.Duration) error {
	start := e.now()
	var err error
	for {
		switch run.Status {
		case assistant.StatusCompleted:
			return nil

		case assistant.StatusFailed:
			if run.LastError != nil {
				return fmt.Errorf("%w: %s", domain.ErrRunFailed, run.LastError.Message)
			}
			return domain.ErrRunFailed

		case assistant.StatusCancelling, assistant.StatusCancelled:
			return domain.ErrRunCancelled

		case assistant.StatusExpired:
			return domain.ErrRunExpired

		case assistant.StatusRequiresAction:
			if run.RequiredAction == nil ||
				run.RequiredAction.Type != assistant.ActionSubmitToolOutputs ||
				run.RequiredAction.SubmitToolOutputs == nil {
				return fmt.Errorf("%w: unexpected required action", domain.ErrRunFailed)
			}
			outputs, err := e.resolveToolCalls(ctx, run.RequiredAction.SubmitToolOutputs.ToolCalls)
			if err != nil {
				return err
			}
			if err := e.provider.SubmitToolOutputs(ctx, threadID, run.ID, outputs); err != nil {
				return fmt.Errorf("submit tool outputs: %w", err)
			}

		default: // queued, in_progress
			if e.now().Sub(start) > timeout {
				return domain.ErrRunTimedOut
			}
			// ctx is detached from the caller; its only cancellation source
			// is the run budget deadline.
			if err := e.sleep(ctx, e.pollInterval); err != nil {
				return domain.ErrRunTimedOut
			}
		}

		run, err = e.provider.GetRun(ctx, threadID, run.ID)
		if err != nil {
			return fmt.Errorf("poll run: %w", err)
		}
	}
}

// resolveToolCalls dispatches the pending batch by function name and
// collects the outputs for one batched submission. An unhandled name
// fails the whole run.
func (e *runExecutor) resolveToolCalls(ctx context.Context, calls []assistant.ToolCall) ([]assistant.ToolOutput, error) {
	outputs := make([]assistant.ToolOutput, 0, len(calls))
	for _, tc := range calls {
		args := map[string]any{}
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			// Malformed payloads degrade to the raw argument string.
			args = map[string]any{"raw": tc.Function.Arguments}
		}

		handler, ok := e.tools.Get(tc.Function.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedToolCall, tc.Function.Name)
		}

		slog.Info("resolving tool call", "tool", tc.Function.Name, "call_id", tc.ID)
		out, err := handler.Execute(ctx, args)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", tc.Function.Name, err)
		}
		outputs = append(outputs, assistant.ToolOutput{ToolCallID: tc.ID, Output: out})
	}
	return outputs, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
