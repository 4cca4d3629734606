// Package actions 定义四个动作（工具）、能力选择和参数校验。
package actions

import (
	"encoding/json"

	"github.com/cloudwego/eino/schema"
	"github.com/wwwzy/PantryAgent/internal/inventory"
	"github.com/wwwzy/PantryAgent/internal/media"
)

const (
	QueryItem       = "query_item"
	UpdateItem      = "update_item"
	TranscribeAudio = "transcribe_audio"
	DescribeImage   = "describe_image"
)

// Descriptor 是动作的静态元数据。
type Descriptor struct {
	Name   string
	Desc   string
	Params map[string]*schema.ParameterInfo
	// WhenEligible 为 KindNone 时总是可用，否则仅在附件属于该类别时可用。
	WhenEligible media.Kind
}

// ToolInfo 转换为推理服务使用的工具描述。
func (d Descriptor) ToolInfo() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name:        d.Name,
		Desc:        d.Desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(d.Params),
	}
}

var catalog = []Descriptor{
	{
		Name: QueryItem,
		Desc: "Look up the current stock level of a pantry item. Use it when the user asks whether they have something or what is missing.",
		Params: map[string]*schema.ParameterInfo{
			"item_name": {
				Desc:     "Name of the item, e.g. 'milk' or 'eggs'",
				Type:     schema.String,
				Required: true,
			},
		},
	},
	{
		Name: UpdateItem,
		Desc: "Set the stock level of a pantry item. Bought/added means HIGH, ran out means LOW, only a little left means MEDIUM.",
		Params: map[string]*schema.ParameterInfo{
			"item_name": {
				Desc:     "Name of the item to update",
				Type:     schema.String,
				Required: true,
			},
			"new_status": {
				Desc:     "New stock level",
				Type:     schema.String,
				Enum:     inventory.StatusNames(),
				Required: true,
			},
		},
	},
	{
		Name: TranscribeAudio,
		Desc: "Transcribe the audio file attached by the user. Call it before acting on a voice message.",
		Params: map[string]*schema.ParameterInfo{
			"audio_file_path": {
				Desc:     "Path of the attached audio file",
				Type:     schema.String,
				Required: true,
			},
		},
		WhenEligible: media.KindAudio,
	},
	{
		Name: DescribeImage,
		Desc: "Identify the grocery products in the image attached by the user and suggest stock updates.",
		Params: map[string]*schema.ParameterInfo{
			"image_file_path": {
				Desc:     "Path of the attached image file",
				Type:     schema.String,
				Required: true,
			},
		},
		WhenEligible: media.KindImage,
	},
}

// Catalog 返回全部动作描述的副本。
func Catalog() []Descriptor {
	out := make([]Descriptor, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup 按名称查找描述。
func Lookup(name string) (Descriptor, bool) {
	for _, d := range catalog {
		if d.Name == name {
			return d, true
		}
	}
	return Descriptor{}, false
}

// SelectCapabilities 根据本轮附件计算可用动作：
// 无附件只有 query/update；音频追加 transcribe_audio；图片追加 describe_image；
// 其余扩展名返回 ErrUnsupportedMediaKind。
func SelectCapabilities(ref *media.Ref) ([]Descriptor, error) {
	kind := media.KindNone
	if ref != nil {
		class, err := media.Classify(ref.Path)
		if err != nil {
			return nil, err
		}
		kind = class.Kind
	}

	out := make([]Descriptor, 0, 3)
	for _, d := range catalog {
		if d.WhenEligible == media.KindNone || d.WhenEligible == kind {
			out = append(out, d)
		}
	}
	return out, nil
}

// Names 返回描述列表中的动作名。
func Names(ds []Descriptor) []string {
	out := make([]string, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Name)
	}
	return out
}

var mediaPathParam = map[string]string{
	TranscribeAudio: "audio_file_path",
	DescribeImage:   "image_file_path",
}

// MediaPathArg 取出媒体类动作参数中的文件路径。非媒体动作或参数无法解析时 ok=false。
func MediaPathArg(name, argumentsInJSON string) (string, bool) {
	key, ok := mediaPathParam[name]
	if !ok {
		return "", false
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(argumentsInJSON), &args); err != nil {
		return "", false
	}
	path, ok := args[key].(string)
	return path, ok
}
