package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// 下载文件大小上限，超过 25MB 的附件本来也不会被处理
const maxDownloadBytes = 32 << 20

var extensionByMIME = map[string]string{
	"audio/ogg":  ".ogg",
	"audio/mpeg": ".mp3",
	"audio/mp4":  ".m4a",
	"audio/wav":  ".wav",
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// ExtensionFor 返回 MIME 对应的扩展名（带点），参数部分会被忽略，未知类型为 .tmp。
func ExtensionFor(mimeType string) string {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	if ext, ok := extensionByMIME[base]; ok {
		return ext
	}
	return ".tmp"
}

// NormalizePhone 去掉 +、空格和 -。
func NormalizePhone(to string) string {
	return strings.NewReplacer("+", "", " ", "", "-", "").Replace(to)
}

// Client 调用 Graph API 下载附件、发送文本。
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:          100,
				MaxIdleConnsPerHost:   10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
	}
}

type mediaInfo struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
}

// DownloadMedia 先查询附件地址再下载到临时文件，返回文件路径。调用方负责删除。
func (c *Client) DownloadMedia(ctx context.Context, mediaID, mimeType string) (string, error) {
	if strings.TrimSpace(c.cfg.Token) == "" {
		return "", errors.New("whatsapp token is not configured")
	}
	if strings.TrimSpace(mediaID) == "" {
		return "", errors.New("media id is empty")
	}

	body, err := c.get(ctx, c.cfg.baseURL()+"/"+mediaID)
	if err != nil {
		return "", errors.Wrap(err, "fetch media info")
	}
	var info mediaInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return "", errors.Wrap(err, "decode media info")
	}
	if info.URL == "" {
		return "", errors.Errorf("media %s has no download url", mediaID)
	}

	data, err := c.get(ctx, info.URL)
	if err != nil {
		return "", errors.Wrap(err, "download media")
	}

	f, err := os.CreateTemp("", "pantryagent-*"+ExtensionFor(mimeType))
	if err != nil {
		return "", errors.Wrap(err, "create temp file")
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, "write temp file")
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, "close temp file")
	}

	log.Ctx(ctx).Debug().Str("media_id", mediaID).Int("bytes", len(data)).Str("path", f.Name()).Msg("media downloaded")
	return f.Name(), nil
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type sendRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

// SendText 发送一条文本消息。
func (c *Client) SendText(ctx context.Context, to, body string) error {
	if !c.cfg.CanSend() {
		return errors.New("WHATSAPP_TOKEN or WHATSAPP_PHONE_NUMBER_ID is not configured")
	}

	payload, err := json.Marshal(sendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               NormalizePhone(to),
		Type:             "text",
		Text:             textBody{PreviewURL: false, Body: body},
	})
	if err != nil {
		return errors.Wrap(err, "encode message")
	}

	url := fmt.Sprintf("%s/%s/messages", c.cfg.baseURL(), c.cfg.PhoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build send request")
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "send message")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return errors.Errorf("send message: status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.Errorf("GET %s: status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if len(data) > maxDownloadBytes {
		return nil, errors.Errorf("GET %s: body exceeds %d bytes", url, maxDownloadBytes)
	}
	return data, nil
}
