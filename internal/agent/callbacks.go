package agent

import (
	"context"
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/rs/zerolog/log"
)

type nodeStartKey struct{}

// nodeLogHandler 为图中每个节点记录开始、结束和耗时（debug 级别）。
func nodeLogHandler() callbacks.Handler {
	return callbacks.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, _ callbacks.CallbackInput) context.Context {
			if info == nil {
				return ctx
			}
			log.Ctx(ctx).Debug().Str("node", info.Name).Str("component", string(info.Component)).Msg("node started")
			return context.WithValue(ctx, nodeStartKey{}, time.Now())
		}).
		OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
			if info == nil {
				return ctx
			}
			ev := log.Ctx(ctx).Debug().Str("node", info.Name)
			if start, ok := ctx.Value(nodeStartKey{}).(time.Time); ok {
				ev = ev.Dur("elapsed", time.Since(start))
			}
			if st, ok := output.(TurnState); ok {
				ev = ev.Str("phase", string(st.Phase)).Int("iteration", st.Iterations)
			}
			ev.Msg("node finished")
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			name := ""
			if info != nil {
				name = info.Name
			}
			log.Ctx(ctx).Warn().Err(err).Str("node", name).Msg("node error")
			return ctx
		}).
		Build()
}
