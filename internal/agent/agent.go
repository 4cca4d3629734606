package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/wwwzy/PantryAgent/internal/actions"
	"github.com/wwwzy/PantryAgent/internal/contract"
	"github.com/wwwzy/PantryAgent/internal/media"
)

// Input 是一轮的输入：文本、附件，或两者兼有。
type Input struct {
	Text  string
	Media *media.Ref
	// History 是此前轮次的对话，不会被修改
	History []*schema.Message
}

// Turn 是一轮处理的结果。失败时 Reply 为面向用户的道歉说明。
type Turn struct {
	TraceID    string
	Phase      Phase
	Reply      string
	Iterations int
	// UserMessage 为本轮追加到历史中的用户消息
	UserMessage *schema.Message
	// Messages 为本轮结束时的完整历史
	Messages []*schema.Message
	Err      error
}

type Agent struct {
	runnable  compose.Runnable[TurnState, TurnState]
	timeout   time.Duration
	callbacks callbacks.Handler
}

type Option func(*Agent)

// WithTurnTimeout 限制单轮处理时长，<=0 表示不限制。
func WithTurnTimeout(d time.Duration) Option {
	return func(a *Agent) { a.timeout = d }
}

func New(ctx context.Context, cm model.ToolCallingChatModel, tools *actions.Toolset, opts ...Option) (*Agent, error) {
	if tools == nil {
		return nil, errors.New("toolset is required")
	}
	r, err := NewReasoner(cm)
	if err != nil {
		return nil, err
	}
	runnable, err := BuildGraph(ctx, r, tools)
	if err != nil {
		return nil, fmt.Errorf("build graph failed: %w", err)
	}

	a := &Agent{runnable: runnable, callbacks: nodeLogHandler()}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Run 处理一轮输入。返回的 Turn 总是非 nil；本轮失败时 error 为失败原因，Turn.Reply 为道歉说明。
func (a *Agent) Run(ctx context.Context, in Input) (*Turn, error) {
	traceID := contract.GetTraceID(ctx)
	if traceID == "" {
		traceID = uuid.NewString()
		ctx = contract.WithTraceID(ctx, traceID)
	}
	logger := log.Ctx(ctx).With().Str("trace_id", traceID).Logger()
	ctx = logger.WithContext(ctx)

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	userMsg := schema.UserMessage(UserContent(in.Text, in.Media))
	messages := make([]*schema.Message, 0, len(in.History)+8)
	messages = append(messages, in.History...)
	messages = append(messages, userMsg)

	start := time.Now()
	logger.Info().
		Bool("has_media", in.Media != nil).
		Int("history", len(in.History)).
		Msg("turn started")

	final, err := a.runnable.Invoke(ctx, TurnState{Messages: messages, Media: in.Media}, compose.WithCallbacks(a.callbacks))
	if err != nil {
		// 节点本身不返回错误，这里只可能是图执行层面的问题（取消、步数超限等）
		final.Messages = messages
		final.Failure = err
		if ctx.Err() != nil {
			final.Failure = ctx.Err()
		}
	}

	turn := &Turn{
		TraceID:     traceID,
		Phase:       PhaseDone,
		Reply:       final.Reply,
		Iterations:  final.Iterations,
		UserMessage: userMsg,
		Messages:    final.Messages,
	}
	if final.Failure != nil {
		turn.Phase = PhaseFailed
		turn.Err = final.Failure
		turn.Reply = FailureReply(final.Failure)
	}

	ev := logger.Info()
	if turn.Err != nil {
		ev = logger.Warn().Err(turn.Err).Str("kind", contract.KindOf(turn.Err))
	}
	ev.Str("phase", string(turn.Phase)).
		Int("iterations", turn.Iterations).
		Dur("elapsed", time.Since(start)).
		Msg("turn finished")

	return turn, turn.Err
}

// UserContent 组合用户文本与附件说明。
func UserContent(text string, ref *media.Ref) string {
	text = strings.TrimSpace(text)
	if ref == nil {
		return text
	}

	kind := string(ref.Kind)
	if kind == "" {
		kind = "media"
	}
	note := fmt.Sprintf("Attached %s file: %s", kind, ref.Path)
	if text == "" {
		return note
	}
	return text + "\n" + note
}

// FailureReply 返回本轮失败时发给用户的说明。
func FailureReply(err error) string {
	switch {
	case errors.Is(err, contract.ErrUnsupportedMediaKind):
		return fmt.Sprintf("Sorry, I can't process that kind of file. I can handle audio (%s) and images (%s).",
			media.AudioClass.AllowedList(), media.ImageClass.AllowedList())
	case errors.Is(err, contract.ErrLoopBudgetExceeded):
		return "Sorry, I couldn't finish processing your request. Please try again with a simpler message."
	case errors.Is(err, context.DeadlineExceeded):
		return "Sorry, processing your message took too long. Please try again."
	default:
		return "Sorry, something went wrong while processing your message. Please try again later."
	}
}
