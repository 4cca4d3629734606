package actions

import (
	"github.com/cloudwego/eino/components/tool"
	"github.com/wwwzy/PantryAgent/internal/inventory"
	"github.com/wwwzy/PantryAgent/internal/speech"
	"github.com/wwwzy/PantryAgent/internal/vision"
)

// Toolset 持有四个动作的实现，按名称分发。
type Toolset struct {
	tools   map[string]tool.InvokableTool
	auditor Auditor
}

type Option func(*toolsetOptions)

type toolsetOptions struct {
	transcriber speech.Transcriber
	describer   vision.Describer
	auditor     Auditor
}

func WithTranscriber(t speech.Transcriber) Option {
	return func(o *toolsetOptions) { o.transcriber = t }
}

func WithDescriber(d vision.Describer) Option {
	return func(o *toolsetOptions) { o.describer = d }
}

// WithAuditor 为每个动作加上审计记录。
func WithAuditor(a Auditor) Option {
	return func(o *toolsetOptions) { o.auditor = a }
}

func NewToolset(store *inventory.Store, opts ...Option) *Toolset {
	var o toolsetOptions
	for _, opt := range opts {
		opt(&o)
	}

	raw := map[string]tool.InvokableTool{
		QueryItem:       &QueryItemTool{store: store},
		UpdateItem:      &UpdateItemTool{store: store},
		TranscribeAudio: &TranscribeAudioTool{transcriber: o.transcriber},
		DescribeImage:   &DescribeImageTool{describer: o.describer},
	}

	ts := &Toolset{tools: make(map[string]tool.InvokableTool, len(raw)), auditor: o.auditor}
	for name, t := range raw {
		ts.tools[name] = wrapWithAudit(t, o.auditor)
	}
	return ts
}

// Tool 返回指定名称的动作实现。
func (t *Toolset) Tool(name string) (tool.InvokableTool, bool) {
	it, ok := t.tools[name]
	return it, ok
}

// Auditor 返回挂载的审计端，可能为 nil。
func (t *Toolset) Auditor() Auditor {
	return t.auditor
}
