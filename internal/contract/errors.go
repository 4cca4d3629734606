package contract

import "errors"

// 错误种类。调用方统一用 errors.Is 判断，文本细节通过 %w 包装追加。
var (
	ErrUnsupportedMediaKind = errors.New("unsupported media kind")
	ErrCapabilityViolation  = errors.New("capability violation")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrFileNotFound         = errors.New("file not found")
	ErrUnsupportedFormat    = errors.New("unsupported format")
	ErrFileTooLarge         = errors.New("file too large")
	ErrUpstreamRateLimited  = errors.New("upstream rate limited")
	ErrUpstreamFailure      = errors.New("upstream failure")
	ErrLoopBudgetExceeded   = errors.New("loop budget exceeded")
	ErrReasoning            = errors.New("reasoning service failed")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrUnsupportedMediaKind, "UnsupportedMediaKind"},
	{ErrCapabilityViolation, "CapabilityViolation"},
	{ErrInvalidArgument, "InvalidArgument"},
	{ErrFileNotFound, "FileNotFound"},
	{ErrUnsupportedFormat, "UnsupportedFormat"},
	{ErrFileTooLarge, "FileTooLarge"},
	{ErrUpstreamRateLimited, "UpstreamRateLimited"},
	{ErrUpstreamFailure, "UpstreamFailure"},
	{ErrLoopBudgetExceeded, "LoopBudgetExceeded"},
	{ErrReasoning, "ReasoningFailure"},
}

// KindOf 返回错误对应的稳定种类名，未知错误返回 "Internal"。
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}

// IsTerminal 表示该错误会直接结束当前轮次（不回流到循环中）。
func IsTerminal(err error) bool {
	return errors.Is(err, ErrUnsupportedMediaKind) ||
		errors.Is(err, ErrLoopBudgetExceeded) ||
		errors.Is(err, ErrReasoning)
}
