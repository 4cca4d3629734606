package agent

import "github.com/cloudwego/eino/schema"

// Decision 是路由结果。
type Decision int

const (
	Terminate Decision = iota
	Continue
)

func (d Decision) String() string {
	if d == Continue {
		return "continue"
	}
	return "terminate"
}

// ShouldContinue 只看最近一条 assistant 消息是否带有动作请求。
func ShouldContinue(latest *schema.Message) Decision {
	if latest != nil && len(latest.ToolCalls) > 0 {
		return Continue
	}
	return Terminate
}
