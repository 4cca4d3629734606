package actions

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/wwwzy/PantryAgent/internal/contract"
)

// ValidateArguments 按描述校验 JSON 参数：必须是对象，必填项非空，类型与枚举匹配，不允许未知字段。
// 失败统一返回 ErrInvalidArgument。
func ValidateArguments(d Descriptor, argumentsInJSON string) (map[string]any, error) {
	raw := strings.TrimSpace(argumentsInJSON)
	if raw == "" {
		raw = "{}"
	}

	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: %s: arguments are not a JSON object: %v", contract.ErrInvalidArgument, d.Name, err)
	}
	if args == nil {
		return nil, fmt.Errorf("%w: %s: arguments are not a JSON object", contract.ErrInvalidArgument, d.Name)
	}

	unknown := make([]string, 0)
	for k := range args {
		if _, ok := d.Params[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, fmt.Errorf("%w: %s: unknown argument(s) %s", contract.ErrInvalidArgument, d.Name, strings.Join(unknown, ", "))
	}

	names := make([]string, 0, len(d.Params))
	for k := range d.Params {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, name := range names {
		p := d.Params[name]
		v, ok := args[name]
		if !ok || v == nil {
			if p.Required {
				return nil, fmt.Errorf("%w: %s: %q is required", contract.ErrInvalidArgument, d.Name, name)
			}
			continue
		}
		if err := checkValue(p, v); err != nil {
			return nil, fmt.Errorf("%w: %s: %q %v", contract.ErrInvalidArgument, d.Name, name, err)
		}
	}
	return args, nil
}

func checkValue(p *schema.ParameterInfo, v any) error {
	switch p.Type {
	case schema.String:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("must be a string")
		}
		s = strings.TrimSpace(s)
		if p.Required && s == "" {
			return fmt.Errorf("must not be empty")
		}
		if len(p.Enum) > 0 {
			for _, e := range p.Enum {
				if s == e {
					return nil
				}
			}
			return fmt.Errorf("must be one of %s", strings.Join(p.Enum, ", "))
		}
	case schema.Integer:
		f, ok := v.(float64)
		if !ok || f != float64(int64(f)) {
			return fmt.Errorf("must be an integer")
		}
	case schema.Number:
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("must be a number")
		}
	case schema.Boolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("must be a boolean")
		}
	}
	return nil
}

// stringArg 读取已校验过的字符串参数。
func stringArg(args map[string]any, name string) string {
	s, _ := args[name].(string)
	return strings.TrimSpace(s)
}
