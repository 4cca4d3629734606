package inventory

import (
	"fmt"
	"strings"

	"github.com/wwwzy/PantryAgent/internal/contract"
)

// Status 是库存等级，只有三个合法取值。
type Status string

const (
	StatusLow    Status = "LOW"
	StatusMedium Status = "MEDIUM"
	StatusHigh   Status = "HIGH"
)

// Statuses 按从低到高的顺序列出全部取值。
var Statuses = []Status{StatusLow, StatusMedium, StatusHigh}

// StatusNames 返回字符串形式，供工具参数 enum 使用。
func StatusNames() []string {
	out := make([]string, 0, len(Statuses))
	for _, s := range Statuses {
		out = append(out, string(s))
	}
	return out
}

// ParseStatus 只接受 LOW / MEDIUM / HIGH（允许首尾空白）。
func ParseStatus(s string) (Status, error) {
	v := Status(strings.TrimSpace(s))
	for _, st := range Statuses {
		if v == st {
			return st, nil
		}
	}
	return "", fmt.Errorf("%w: status %q must be one of %s", contract.ErrInvalidArgument, s, strings.Join(StatusNames(), ", "))
}

// Normalize 去掉首尾空白、合并内部空白并转小写，结果是幂等的。
func Normalize(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
