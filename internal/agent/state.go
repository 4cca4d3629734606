package agent

import (
	"github.com/cloudwego/eino/schema"
	"github.com/wwwzy/PantryAgent/internal/actions"
	"github.com/wwwzy/PantryAgent/internal/media"
)

// Phase 是一轮处理所在的状态。
type Phase string

const (
	PhaseSelect  Phase = "SELECT"
	PhaseReason  Phase = "REASON"
	PhaseRoute   Phase = "ROUTE"
	PhaseExecute Phase = "EXECUTE"
	PhaseDone    Phase = "DONE"
	PhaseFailed  Phase = "FAILED"
)

// ActionRequest 是推理服务请求的一次动作调用。
// Rejected 非空时该请求不会被分发，而是直接以错误结果回答。
type ActionRequest struct {
	ID        string
	Name      string
	Arguments string
	Rejected  error
}

// TurnState 定义了在 Graph 中流转的状态，每轮一份。
type TurnState struct {
	// 历史对话消息 (User, Assistant, Tool)，只追加不重排
	Messages []*schema.Message `json:"messages"`

	// 最近一次推理产生的动作请求，为空表示结束
	Pending []ActionRequest `json:"pending"`

	// 本轮附件，被转写/识别成功后清空
	Media *media.Ref `json:"media,omitempty"`

	// 当前可用的动作
	Eligible []actions.Descriptor `json:"-"`

	Phase      Phase  `json:"phase"`
	Iterations int    `json:"iterations"`
	Reply      string `json:"reply"`

	// Failure 非空表示本轮以 FAILED 结束
	Failure error `json:"-"`
}
