package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/wwwzy/PantryAgent/internal/actions"
)

const (
	NodeSelect  = "select_node"
	NodeReason  = "reason_node"
	NodeExecute = "execute_node"
)

// BuildGraph 构建单轮处理流程图：
// START -> select -> reason -> (execute -> reason)* -> END
func BuildGraph(ctx context.Context, r *Reasoner, tools *actions.Toolset) (compose.Runnable[TurnState, TurnState], error) {
	g := compose.NewGraph[TurnState, TurnState]()

	if err := g.AddLambdaNode(NodeSelect, compose.InvokableLambda(SelectNode), compose.WithNodeName(NodeSelect)); err != nil {
		return nil, fmt.Errorf("add select node: %w", err)
	}

	if err := g.AddLambdaNode(NodeReason, compose.InvokableLambda(func(ctx context.Context, state TurnState) (TurnState, error) {
		return ReasonNode(ctx, state, r)
	}), compose.WithNodeName(NodeReason)); err != nil {
		return nil, fmt.Errorf("add reason node: %w", err)
	}

	if err := g.AddLambdaNode(NodeExecute, compose.InvokableLambda(func(ctx context.Context, state TurnState) (TurnState, error) {
		return ExecuteNode(ctx, state, tools)
	}), compose.WithNodeName(NodeExecute)); err != nil {
		return nil, fmt.Errorf("add execute node: %w", err)
	}

	if err := g.AddEdge(compose.START, NodeSelect); err != nil {
		return nil, err
	}

	// 附件不受支持时不调用推理服务
	err := g.AddBranch(NodeSelect, compose.NewGraphBranch(func(ctx context.Context, state TurnState) (string, error) {
		if state.Failure != nil {
			return compose.END, nil
		}
		return NodeReason, nil
	}, map[string]bool{
		NodeReason:  true,
		compose.END: true,
	}))
	if err != nil {
		return nil, err
	}

	// ROUTE：只有带动作请求的 assistant 消息才进入 EXECUTE
	err = g.AddBranch(NodeReason, compose.NewGraphBranch(func(ctx context.Context, state TurnState) (string, error) {
		if state.Failure != nil || len(state.Messages) == 0 {
			return compose.END, nil
		}
		if ShouldContinue(state.Messages[len(state.Messages)-1]) == Continue {
			return NodeExecute, nil
		}
		return compose.END, nil
	}, map[string]bool{
		NodeExecute: true,
		compose.END: true,
	}))
	if err != nil {
		return nil, err
	}

	// 动作结果回流给推理服务
	err = g.AddBranch(NodeExecute, compose.NewGraphBranch(func(ctx context.Context, state TurnState) (string, error) {
		if state.Failure != nil {
			return compose.END, nil
		}
		return NodeReason, nil
	}, map[string]bool{
		NodeReason:  true,
		compose.END: true,
	}))
	if err != nil {
		return nil, err
	}

	// select + MaxIterations 次 reason + (MaxIterations-1) 次 execute，再留一些余量
	runnable, err := g.Compile(ctx,
		compose.WithGraphName("pantryagent.turn"),
		compose.WithMaxRunSteps(2*MaxIterations+5),
	)
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runnable, nil
}
