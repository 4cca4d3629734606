package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/wwwzy/PantryAgent/internal/agent"
	"github.com/wwwzy/PantryAgent/internal/contract"
)

type ConsoleChatUI struct {
	In  io.Reader
	Out io.Writer
}

func (u *ConsoleChatUI) Run(ctx context.Context, backend ChatBackend, opts ChatOptions) error {
	in := u.In
	if in == nil {
		return fmt.Errorf("console ui: In is nil")
	}
	out := u.Out
	if out == nil {
		return fmt.Errorf("console ui: Out is nil")
	}

	reader := bufio.NewReader(in)

	fmt.Fprintln(out, "进入 PantryAgent 对话模式。输入 salir/exit/quit 退出。")
	fmt.Fprintln(out, "附件格式: audio:<路径> 或 imagen:<路径>，路径后可继续输入文字。")
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "已退出。")
			return nil
		default:
		}

		fmt.Fprint(out, "你: ")
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("读取输入失败: %w", err)
		}
		eof := errors.Is(err, io.EOF)

		if strings.TrimSpace(line) == "" {
			if eof {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "已退出。")
				return nil
			}
			continue
		}

		parsed, perr := ParseInput(line)
		switch {
		case perr != nil:
			fmt.Fprintf(out, "输入无效: %v\n\n", perr)
		case parsed.Exit:
			fmt.Fprintln(out, "已退出。")
			return nil
		default:
			// 每轮生成一个 TraceID
			traceID := uuid.NewString()
			turnCtx := contract.WithTraceID(ctx, traceID)

			turn, err := backend.Ask(turnCtx, parsed.Text, parsed.Media)
			printTurn(out, turn, err, opts)
		}

		if eof {
			fmt.Fprintln(out, "已退出。")
			return nil
		}
	}
}

func printTurn(w io.Writer, turn *agent.Turn, err error, opts ChatOptions) {
	if turn == nil {
		fmt.Fprintf(w, "助手: (无回复) %v\n\n", err)
		return
	}
	reply := strings.TrimSpace(turn.Reply)
	if reply == "" {
		reply = "(无文本输出)"
	}
	fmt.Fprintf(w, "助手: %s\n", reply)
	if opts.ShowTrace {
		fmt.Fprintf(w, "  [trace %s, %s, %d 次推理]\n", turn.TraceID, turn.Phase, turn.Iterations)
	}
	fmt.Fprintln(w)
}
