package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/wwwzy/PantryAgent/internal/media"
)

// Input 是解析后的一行用户输入。
type Input struct {
	Text  string
	Media *media.Ref
	Exit  bool
}

var exitWords = map[string]bool{"salir": true, "exit": true, "quit": true}

var mediaPrefixes = []struct {
	prefix string
	kind   media.Kind
}{
	{"audio:", media.KindAudio},
	{"imagen:", media.KindImage},
	{"image:", media.KindImage},
}

// ParseInput 解析一行输入：
//
//	audio:<path> [text]     附带音频
//	imagen:<path> [text]    附带图片（image: 同义）
//	<已存在的文件路径>       按扩展名识别为附件
//	salir / exit / quit     退出
//
// 其余内容作为纯文本。附件类别只做标注，能否处理由 agent 按扩展名判定。
func ParseInput(line string) (Input, error) {
	line = strings.TrimSpace(line)
	if exitWords[strings.ToLower(line)] {
		return Input{Exit: true}, nil
	}

	lower := strings.ToLower(line)
	for _, p := range mediaPrefixes {
		if !strings.HasPrefix(lower, p.prefix) {
			continue
		}
		rest := strings.TrimSpace(line[len(p.prefix):])
		if rest == "" {
			return Input{}, fmt.Errorf("missing file path after %q", p.prefix)
		}
		path, text, _ := strings.Cut(rest, " ")
		return Input{
			Text:  strings.TrimSpace(text),
			Media: &media.Ref{Path: path, Kind: p.kind},
		}, nil
	}

	if line != "" && !strings.ContainsAny(line, " \t") {
		if fi, err := os.Stat(line); err == nil && !fi.IsDir() {
			ref, err := media.NewRef(line)
			if err != nil {
				// 让 agent 给出不支持类型的说明
				ref = &media.Ref{Path: line}
			}
			return Input{Media: ref}, nil
		}
	}

	return Input{Text: line}, nil
}
