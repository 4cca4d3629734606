package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/wwwzy/PantryAgent/internal/actions"
	"github.com/wwwzy/PantryAgent/internal/contract"
)

// AssistantTurn 是一次推理的结果：Requests 为空即最终回复。
type AssistantTurn struct {
	Message  *schema.Message
	Requests []ActionRequest
}

// Final 表示没有动作请求。
func (t AssistantTurn) Final() bool {
	return len(t.Requests) == 0
}

// Reasoner 把历史和可用动作交给推理服务，并校验返回的动作请求。
type Reasoner struct {
	model    model.ToolCallingChatModel
	template prompt.ChatTemplate
	now      func() time.Time
}

func NewReasoner(cm model.ToolCallingChatModel) (*Reasoner, error) {
	if cm == nil {
		return nil, errors.New("chat model is required")
	}
	return &Reasoner{model: cm, template: NewChatTemplate(), now: time.Now}, nil
}

// Reason 执行一次推理。推理服务本身的失败包装为 ErrReasoning；
// 越界的动作名和不合法的参数不会返回错误，而是标记在对应请求的 Rejected 上。
func (r *Reasoner) Reason(ctx context.Context, history []*schema.Message, eligible []actions.Descriptor) (AssistantTurn, error) {
	infos := make([]*schema.ToolInfo, 0, len(eligible))
	for _, d := range eligible {
		infos = append(infos, d.ToolInfo())
	}

	// 每次推理按当前可用动作重新绑定，附件被消费后可用集合会缩小
	cm, err := r.model.WithTools(infos)
	if err != nil {
		return AssistantTurn{}, fmt.Errorf("%w: bind tools: %v", contract.ErrReasoning, err)
	}

	messages, err := r.template.Format(ctx, map[string]any{
		"date":    r.now().Format("2006-01-02"),
		"history": history,
	})
	if err != nil {
		return AssistantTurn{}, fmt.Errorf("%w: format prompt: %v", contract.ErrReasoning, err)
	}

	out, err := cm.Generate(ctx, messages)
	if err != nil {
		if ctx.Err() != nil {
			return AssistantTurn{}, ctx.Err()
		}
		return AssistantTurn{}, fmt.Errorf("%w: %v", contract.ErrReasoning, err)
	}
	if out == nil {
		return AssistantTurn{}, fmt.Errorf("%w: empty response", contract.ErrReasoning)
	}
	out.Role = schema.Assistant

	return AssistantTurn{Message: out, Requests: checkRequests(out, eligible)}, nil
}

// checkRequests 补齐缺失或重复的调用 ID（同时回写到消息上），再逐个校验动作名与参数。
func checkRequests(msg *schema.Message, eligible []actions.Descriptor) []ActionRequest {
	if len(msg.ToolCalls) == 0 {
		return nil
	}

	allowed := make(map[string]actions.Descriptor, len(eligible))
	for _, d := range eligible {
		allowed[d.Name] = d
	}

	seen := make(map[string]bool, len(msg.ToolCalls))
	reqs := make([]ActionRequest, 0, len(msg.ToolCalls))
	for i := range msg.ToolCalls {
		tc := &msg.ToolCalls[i]
		if tc.ID == "" || seen[tc.ID] {
			tc.ID = uuid.NewString()
		}
		seen[tc.ID] = true

		req := ActionRequest{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		}

		d, ok := allowed[req.Name]
		if !ok {
			req.Rejected = fmt.Errorf("%w: action %q is not available in this turn (available: %v)",
				contract.ErrCapabilityViolation, req.Name, actions.Names(eligible))
		} else if _, err := actions.ValidateArguments(d, req.Arguments); err != nil {
			req.Rejected = err
		}
		reqs = append(reqs, req)
	}
	return reqs
}
