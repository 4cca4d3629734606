package agent

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"github.com/wwwzy/PantryAgent/internal/actions"
	"github.com/wwwzy/PantryAgent/internal/contract"
	"github.com/wwwzy/PantryAgent/internal/media"
)

// MaxIterations 是单轮内推理调用的上限。第 MaxIterations 次推理仍请求动作时本轮以 LoopBudgetExceeded 失败。
const MaxIterations = 6

// SelectNode 根据附件计算可用动作，不支持的附件直接让本轮失败。
func SelectNode(ctx context.Context, state TurnState) (TurnState, error) {
	state.Phase = PhaseSelect

	eligible, err := actions.SelectCapabilities(state.Media)
	if err != nil {
		state.Failure = err
		state.Phase = PhaseFailed
		log.Ctx(ctx).Warn().Err(err).Str("phase", string(PhaseSelect)).Msg("media rejected")
		return state, nil
	}

	state.Eligible = eligible
	log.Ctx(ctx).Debug().Strs("eligible", actions.Names(eligible)).Msg("capabilities selected")
	return state, nil
}

// ReasonNode 调用推理服务并把 assistant 消息追加到历史。
func ReasonNode(ctx context.Context, state TurnState, r *Reasoner) (TurnState, error) {
	state.Phase = PhaseReason
	state.Iterations++

	turn, err := r.Reason(ctx, state.Messages, state.Eligible)
	if err != nil {
		state.Failure = err
		state.Phase = PhaseFailed
		log.Ctx(ctx).Error().Err(err).Int("iteration", state.Iterations).Msg("reasoning failed")
		return state, nil
	}

	state.Messages = append(state.Messages, turn.Message)
	state.Pending = turn.Requests
	restrictToAttachment(state.Pending, state.Media)
	state.Phase = PhaseRoute

	log.Ctx(ctx).Debug().
		Int("iteration", state.Iterations).
		Int("requests", len(turn.Requests)).
		Msg("reasoning step finished")

	switch {
	case ShouldContinue(turn.Message) == Terminate:
		state.Reply = turn.Message.Content
		state.Phase = PhaseDone
	case state.Iterations >= MaxIterations:
		state.Failure = fmt.Errorf("%w: still requesting actions after %d reasoning steps",
			contract.ErrLoopBudgetExceeded, state.Iterations)
		state.Phase = PhaseFailed
	}
	return state, nil
}

// ExecuteNode 按请求顺序逐个执行，每个请求追加且只追加一条结果消息。
func ExecuteNode(ctx context.Context, state TurnState, tools *actions.Toolset) (TurnState, error) {
	state.Phase = PhaseExecute

	for _, req := range state.Pending {
		if err := ctx.Err(); err != nil {
			state.Failure = err
			state.Phase = PhaseFailed
			return state, nil
		}

		cctx := contract.WithCallID(ctx, req.ID)
		content, consumed := dispatch(cctx, tools, req)
		state.Messages = append(state.Messages, schema.ToolMessage(content, req.ID, schema.WithToolName(req.Name)))

		if consumed && targetsAttachment(req, state.Media) {
			state.Media = nil
			// 附件已消费，可用集合回到纯文本的情形
			state.Eligible, _ = actions.SelectCapabilities(nil)
		}
	}

	state.Pending = nil
	return state, nil
}

// dispatch 执行单个请求并返回结果文本。consumed 表示附件已被成功转写或识别。
func dispatch(ctx context.Context, tools *actions.Toolset, req ActionRequest) (string, bool) {
	logger := log.Ctx(ctx).With().Str("action", req.Name).Str("call_id", req.ID).Logger()

	if req.Rejected != nil {
		actions.RecordRejection(ctx, tools.Auditor(), req.Name, req.Arguments, req.Rejected)
		logger.Warn().Err(req.Rejected).Msg("action request rejected")
		return actions.ErrorResult(req.Rejected), false
	}

	it, ok := tools.Tool(req.Name)
	if !ok {
		err := fmt.Errorf("%w: action %q has no handler", contract.ErrCapabilityViolation, req.Name)
		actions.RecordRejection(ctx, tools.Auditor(), req.Name, req.Arguments, err)
		return actions.ErrorResult(err), false
	}

	out, err := it.InvokableRun(ctx, req.Arguments)
	if err != nil {
		logger.Info().Err(err).Str("kind", contract.KindOf(err)).Msg("action failed")
		return actions.ErrorResult(err), false
	}

	logger.Debug().Msg("action finished")
	return out, req.Name == actions.TranscribeAudio || req.Name == actions.DescribeImage
}

// restrictToAttachment 拒绝路径不是本轮附件的转写或识别请求。
func restrictToAttachment(reqs []ActionRequest, ref *media.Ref) {
	for i := range reqs {
		req := &reqs[i]
		if req.Rejected != nil {
			continue
		}
		path, ok := actions.MediaPathArg(req.Name, req.Arguments)
		if !ok || targetsAttachment(*req, ref) {
			continue
		}
		req.Rejected = fmt.Errorf("%w: %s may only read the file attached to this message, not %q",
			contract.ErrCapabilityViolation, req.Name, path)
	}
}

func targetsAttachment(req ActionRequest, ref *media.Ref) bool {
	if ref == nil {
		return false
	}
	path, ok := actions.MediaPathArg(req.Name, req.Arguments)
	return ok && filepath.Clean(path) == filepath.Clean(ref.Path)
}
