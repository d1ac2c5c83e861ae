package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/flowvana/flowlight/internal/backend"
	"github.com/flowvana/flowlight/internal/flows"
)

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Reply kinds.
const (
	ReplyCompletion   = "completion"
	ReplyFlow         = "flow"
	ReplyFlowNotFound = "flow_not_found"
	ReplyUnexpected   = "unexpected"
	ReplyError        = "error"
)

// Canned replies.
const (
	msgUnexpected = "I received your message but the response format was unexpected."
	msgFailed     = "Sorry, something went wrong. Please try again."
)

// Message is one transcript entry.
type Message struct {
	Role string    `json:"role"`
	Kind string    `json:"kind,omitempty"`
	Text string    `json:"text"`
	Flow string    `json:"flow,omitempty"`
	At   time.Time `json:"at"`
	Err  *Error    `json:"error,omitempty"`
}

// Render implements Renderable.
func (m Message) Render() string {
	s := Styles
	switch {
	case m.Role == RoleUser:
		return s.User.Render("you") + " " + m.Text
	case m.Err != nil:
		return s.Assistant.Render("flowlight") + " " + s.Error.Render(m.Text)
	default:
		return s.Assistant.Render("flowlight") + " " + m.Text
	}
}

// ChatSession sends user messages to the chat backend and acts on the
// replies, keeping a transcript.
type ChatSession struct {
	rt  *Runtime
	now func() time.Time

	mu         sync.Mutex
	transcript []Message
}

// NewChatSession starts an empty session.
func NewChatSession(rt *Runtime) *ChatSession {
	return &ChatSession{rt: rt, now: time.Now}
}

// Transcript returns a copy of the messages so far.
func (s *ChatSession) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Empty reports whether nothing has been said yet.
func (s *ChatSession) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transcript) == 0
}

func (s *ChatSession) add(m Message) Message {
	m.At = s.now()
	s.mu.Lock()
	s.transcript = append(s.transcript, m)
	s.mu.Unlock()
	return m
}

// Send records text, asks the backend, and returns the assistant reply
// (also recorded). A reply naming a flow triggers that flow with the
// reply's inputs before returning. Backend failures become an apology
// reply; the error is still returned for logging.
func (s *ChatSession) Send(ctx context.Context, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, errors.New("empty message")
	}
	s.add(Message{Role: RoleUser, Text: text})

	if s.rt.Backend == nil {
		err := backend.ErrNoBaseURL
		return s.add(Message{Role: RoleAssistant, Kind: ReplyError, Text: msgFailed, Err: newError(ErrCodeBackend, err)}), err
	}

	resp, err := s.rt.Backend.SendChat(ctx, text, s.rt.Flows.Summaries())
	if err != nil {
		s.rt.Logger.Error("chat failed", zap.Error(err))
		return s.add(Message{Role: RoleAssistant, Kind: ReplyError, Text: msgFailed, Err: newError(ErrCodeBackend, err)}), err
	}
	return s.add(s.interpret(ctx, resp)), nil
}

func (s *ChatSession) interpret(ctx context.Context, resp *backend.ChatResponse) Message {
	switch {
	case resp.Completion != "":
		return Message{Role: RoleAssistant, Kind: ReplyCompletion, Text: resp.Completion}

	case resp.FlowName != "":
		flow := s.rt.Flows.Get(resp.FlowName)
		if flow == nil {
			return Message{
				Role: RoleAssistant,
				Kind: ReplyFlowNotFound,
				Flow: resp.FlowName,
				Text: fmt.Sprintf("Flow with name %q not found", resp.FlowName),
			}
		}
		inputs := resp.Inputs
		if inputs == nil {
			inputs = map[string]any{}
		}
		if err := flow.Trigger(ctx, inputs); err != nil {
			s.rt.Logger.Warn("flow from chat failed", zap.String("flow", flow.Name), zap.Error(err))
			return Message{
				Role: RoleAssistant,
				Kind: ReplyFlow,
				Flow: flow.Name,
				Text: fmt.Sprintf("Flow %q failed: %v", flow.Name, err),
				Err:  newError(ErrCodeFlowFailed, err),
			}
		}
		return Message{
			Role: RoleAssistant,
			Kind: ReplyFlow,
			Flow: flow.Name,
			Text: fmt.Sprintf("Flow %q triggered successfully", flow.Name),
		}
	}
	return Message{Role: RoleAssistant, Kind: ReplyUnexpected, Text: msgUnexpected}
}

// FlowRunOutput is the result of running a flow by name.
type FlowRunOutput struct {
	Flow    string             `json:"flow"`
	Inputs  map[string]any     `json:"inputs"`
	Steps   []flows.StepResult `json:"steps"`
	Elapsed string             `json:"elapsed,omitempty"`
	Error   *Error             `json:"error,omitempty"`
}

// Render implements Renderable.
func (o FlowRunOutput) Render() string {
	s := Styles
	var sb strings.Builder
	sb.WriteString(s.Header.Render("Flow " + o.Flow))
	for _, st := range o.Steps {
		sb.WriteString("\n  ")
		sb.WriteString(s.Success.Render("✓"))
		sb.WriteString(" ")
		sb.WriteString(s.Key.Render(st.Step))
		sb.WriteString(s.Dim.Render(" (" + st.Kind + ")"))
		if st.Output != nil {
			if b, err := FormatOutput(st.Output, OutputFormatJSON); err == nil {
				sb.WriteString("\n    ")
				sb.WriteString(strings.ReplaceAll(string(b), "\n", "\n    "))
			}
		}
	}
	if o.Error != nil {
		sb.WriteString("\n  ")
		sb.WriteString(s.Error.Render("✗ " + o.Error.Message))
	}
	if o.Elapsed != "" {
		sb.WriteString("\n")
		sb.WriteString(s.Dim.Render("took " + o.Elapsed))
	}
	return sb.String()
}

// RunFlow validates inputs and runs the named flow. Failures are reported
// in the output's Error and as a non-nil error.
func RunFlow(ctx context.Context, rt *Runtime, name string, inputs map[string]any) (FlowRunOutput, error) {
	if inputs == nil {
		inputs = map[string]any{}
	}
	out := FlowRunOutput{Flow: name, Inputs: inputs}
	flow := rt.Flows.Get(name)
	if flow == nil {
		err := fmt.Errorf("flow with name %q not found", name)
		out.Error = newError(ErrCodeFlowNotFound, err)
		return out, err
	}
	if err := flow.ValidateInputs(inputs); err != nil {
		out.Error = newError(ErrCodeInvalidInput, err)
		return out, err
	}

	start := time.Now()
	steps, err := flow.Run(ctx, inputs)
	out.Steps = steps
	out.Elapsed = time.Since(start).Round(time.Millisecond).String()
	if err != nil {
		out.Error = newError(ErrCodeFlowFailed, err)
		return out, err
	}
	return out, nil
}
