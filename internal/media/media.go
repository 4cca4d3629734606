package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/wwwzy/PantryAgent/internal/contract"
)

// Kind 表示附件的能力类别。
type Kind string

const (
	KindNone  Kind = ""
	KindAudio Kind = "audio"
	KindImage Kind = "image"
)

const megabyte = 1024 * 1024

// Class 是一类附件的分类规则：扩展名白名单与大小上限。
type Class struct {
	Kind       Kind
	Extensions []string
	MaxBytes   int64
}

// 分类表：整个程序中唯一决定附件类别的地方。
var (
	AudioClass = Class{
		Kind:       KindAudio,
		Extensions: []string{"mp3", "mp4", "mpeg", "mpga", "m4a", "wav", "webm"},
		MaxBytes:   25 * megabyte,
	}
	ImageClass = Class{
		Kind:       KindImage,
		Extensions: []string{"jpg", "jpeg", "png", "gif", "webp"},
		MaxBytes:   20 * megabyte,
	}
)

var classes = []Class{AudioClass, ImageClass}

// Ref 是本轮输入附带的媒体引用。
type Ref struct {
	Path string `json:"path"`
	Kind Kind   `json:"kind"`
}

// Extension 返回小写且不带点的扩展名。
func Extension(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(strings.TrimSpace(path))), ".")
}

// Classify 按扩展名把路径归入 audio 或 image；其余一律返回 ErrUnsupportedMediaKind。
func Classify(path string) (Class, error) {
	ext := Extension(path)
	for _, c := range classes {
		if c.allows(ext) {
			return c, nil
		}
	}
	if ext == "" {
		return Class{}, fmt.Errorf("%w: %q has no file extension", contract.ErrUnsupportedMediaKind, path)
	}
	return Class{}, fmt.Errorf("%w: .%s is neither audio (%s) nor image (%s)",
		contract.ErrUnsupportedMediaKind, ext, AudioClass.AllowedList(), ImageClass.AllowedList())
}

// NewRef 构造媒体引用，Kind 由 Classify 决定。
func NewRef(path string) (*Ref, error) {
	c, err := Classify(path)
	if err != nil {
		return nil, err
	}
	return &Ref{Path: strings.TrimSpace(path), Kind: c.Kind}, nil
}

// ClassOf 返回指定类别的规则。
func ClassOf(kind Kind) (Class, bool) {
	for _, c := range classes {
		if c.Kind == kind {
			return c, true
		}
	}
	return Class{}, false
}

func (c Class) allows(ext string) bool {
	for _, e := range c.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// AllowedList 以 "mp3, mp4, ..." 的形式列出白名单。
func (c Class) AllowedList() string {
	return strings.Join(c.Extensions, ", ")
}

// MaxMB 返回上限（MB）。
func (c Class) MaxMB() int64 {
	return c.MaxBytes / megabyte
}

// Validate 依次检查：存在性 -> 格式 -> 大小。第一个失败的检查直接返回。
func (c Class) Validate(path string) (fs.FileInfo, error) {
	path = strings.TrimSpace(path)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", contract.ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %v", contract.ErrFileNotFound, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", contract.ErrFileNotFound, path)
	}

	ext := Extension(path)
	if !c.allows(ext) {
		return nil, fmt.Errorf("%w: '.%s' is not supported, allowed formats: %s",
			contract.ErrUnsupportedFormat, ext, c.AllowedList())
	}

	if info.Size() > c.MaxBytes {
		return nil, fmt.Errorf("%w: %.2f MB, the maximum is %d MB",
			contract.ErrFileTooLarge, float64(info.Size())/megabyte, c.MaxMB())
	}
	return info, nil
}

var imageMIME = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
	"webp": "image/webp",
}

var audioMIME = map[string]string{
	"mp3":  "audio/mpeg",
	"mpga": "audio/mpeg",
	"mpeg": "audio/mpeg",
	"mp4":  "audio/mp4",
	"m4a":  "audio/mp4",
	"wav":  "audio/wav",
	"webm": "audio/webm",
}

// MIMEType 按扩展名推断 MIME 类型，未知返回 application/octet-stream。
func MIMEType(path string) string {
	ext := Extension(path)
	if m, ok := imageMIME[ext]; ok {
		return m
	}
	if m, ok := audioMIME[ext]; ok {
		return m
	}
	return "application/octet-stream"
}
