package actions

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"github.com/wwwzy/PantryAgent/internal/contract"
	"github.com/wwwzy/PantryAgent/internal/inventory"
	"github.com/wwwzy/PantryAgent/internal/media"
	"github.com/wwwzy/PantryAgent/internal/speech"
	"github.com/wwwzy/PantryAgent/internal/vision"
)

// QueryItemTool 查询库存
type QueryItemTool struct {
	store *inventory.Store
}

func (t *QueryItemTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return descriptorInfo(QueryItem), nil
}

func (t *QueryItemTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	args, err := validate(QueryItem, argumentsInJSON)
	if err != nil {
		return "", err
	}
	name := inventory.Normalize(stringArg(args, "item_name"))

	status, ok := t.store.Get(name)
	log.Ctx(ctx).Debug().Str("item", name).Bool("found", ok).Msg("query item")
	if !ok {
		return fmt.Sprintf("No record of '%s' in the pantry.", name), nil
	}
	return fmt.Sprintf("The status of '%s' is: %s", name, status), nil
}

// UpdateItemTool 更新库存，首次写入即创建
type UpdateItemTool struct {
	store *inventory.Store
}

func (t *UpdateItemTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return descriptorInfo(UpdateItem), nil
}

func (t *UpdateItemTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	args, err := validate(UpdateItem, argumentsInJSON)
	if err != nil {
		return "", err
	}
	name := inventory.Normalize(stringArg(args, "item_name"))
	status, err := inventory.ParseStatus(stringArg(args, "new_status"))
	if err != nil {
		return "", err
	}

	res, err := t.store.Set(ctx, name, status)
	if err != nil {
		return "", err
	}

	log.Ctx(ctx).Info().Str("item", name).Str("from", string(res.Previous)).Str("to", string(status)).Bool("created", res.Created).Msg("item updated")
	if res.Created {
		return fmt.Sprintf("Updated: '%s' had no record -> %s", name, status), nil
	}
	return fmt.Sprintf("Updated: '%s' %s -> %s", name, res.Previous, status), nil
}

// TranscribeAudioTool 校验音频文件后交给语音服务转写
type TranscribeAudioTool struct {
	transcriber speech.Transcriber
}

func (t *TranscribeAudioTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return descriptorInfo(TranscribeAudio), nil
}

func (t *TranscribeAudioTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	args, err := validate(TranscribeAudio, argumentsInJSON)
	if err != nil {
		return "", err
	}
	path := stringArg(args, "audio_file_path")

	if _, err := media.AudioClass.Validate(path); err != nil {
		return "", err
	}
	if t.transcriber == nil {
		return "", fmt.Errorf("%w: speech-to-text service is not configured", contract.ErrUpstreamFailure)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", contract.ErrFileNotFound, path, err)
	}
	defer f.Close()

	text, err := t.transcriber.Transcribe(ctx, filepath.Base(path), f)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("user said: '%s'", text), nil
}

// DescribeImageTool 校验图片后交给识别服务
type DescribeImageTool struct {
	describer vision.Describer
}

func (t *DescribeImageTool) Info(_ context.Context) (*schema.ToolInfo, error) {
	return descriptorInfo(DescribeImage), nil
}

func (t *DescribeImageTool) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	args, err := validate(DescribeImage, argumentsInJSON)
	if err != nil {
		return "", err
	}
	path := stringArg(args, "image_file_path")

	if _, err := media.ImageClass.Validate(path); err != nil {
		return "", err
	}
	if t.describer == nil {
		return "", fmt.Errorf("%w: vision service is not configured", contract.ErrUpstreamFailure)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", contract.ErrFileNotFound, path, err)
	}
	return t.describer.Describe(ctx, media.MIMEType(path), data, vision.Instruction)
}

// ErrorResult 把处理失败转换为回流到对话中的结果文本。
func ErrorResult(err error) string {
	return fmt.Sprintf("Error (%s): %v", contract.KindOf(err), err)
}

func descriptorInfo(name string) *schema.ToolInfo {
	d, _ := Lookup(name)
	return d.ToolInfo()
}

func validate(name, argumentsInJSON string) (map[string]any, error) {
	d, _ := Lookup(name)
	return ValidateArguments(d, argumentsInJSON)
}
