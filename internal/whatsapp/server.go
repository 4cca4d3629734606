// Package whatsapp 实现 WhatsApp Cloud API 的 webhook 接入。
package whatsapp

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"github.com/wwwzy/PantryAgent/internal/media"
)

const (
	unsupportedTypeReply = "Sorry, I can only process text, audio and image messages."
	genericErrorReply    = "Sorry, there was an error processing your message. Please try again."
)

// Messenger 是 Graph API 的最小接口，*Client 实现了它。
type Messenger interface {
	DownloadMedia(ctx context.Context, mediaID, mimeType string) (string, error)
	SendText(ctx context.Context, to, body string) error
}

var _ Messenger = (*Client)(nil)

// Server 是 webhook HTTP 服务
type Server struct {
	app         *fiber.App
	verifyToken string
	messenger   Messenger
	sessions    *Sessions
}

func NewServer(verifyToken string, messenger Messenger, sessions *Sessions) *Server {
	s := &Server{
		verifyToken: verifyToken,
		messenger:   messenger,
		sessions:    sessions,
	}

	app := fiber.New(fiber.Config{
		AppName:               "PantryAgent",
		DisableStartupMessage: true,
	})

	app.Get("/healthz", s.handleHealth)
	app.Get("/webhook", s.handleVerify)
	app.Post("/webhook", s.handleWebhook)

	s.app = app
	return s
}

// App 返回底层 fiber 应用（测试使用）。
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen 阻塞直到服务关闭。
func (s *Server) Listen(addr string) error {
	log.Info().Str("addr", addr).Msg("webhook server listening")
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleVerify(c *fiber.Ctx) error {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && token == s.verifyToken {
		log.Info().Msg("webhook verified")
		return c.Status(fiber.StatusOK).SendString(challenge)
	}
	log.Warn().Str("mode", mode).Msg("webhook verification failed")
	return c.Status(fiber.StatusForbidden).SendString("Forbidden")
}

type webhookPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type mediaRef struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
}

type inboundMessage struct {
	From string `json:"from"`
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Audio *mediaRef `json:"audio"`
	Voice *mediaRef `json:"voice"`
	Image *mediaRef `json:"image"`
}

func (s *Server) handleWebhook(c *fiber.Ctx) error {
	var payload webhookPayload
	if err := json.Unmarshal(c.Body(), &payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"status": "error", "message": "invalid payload"})
	}
	if payload.Object != "whatsapp_business_account" {
		return c.JSON(fiber.Map{"status": "ok"})
	}

	ctx := c.UserContext()
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				s.handleMessage(ctx, msg)
			}
		}
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) handleMessage(ctx context.Context, msg inboundMessage) {
	logger := log.With().Str("from", msg.From).Str("message_id", msg.ID).Str("type", msg.Type).Logger()
	ctx = logger.WithContext(ctx)

	switch msg.Type {
	case "text":
		text := ""
		if msg.Text != nil {
			text = msg.Text.Body
		}
		s.runTurn(ctx, msg.From, text, nil)
	case "audio", "voice":
		ref := msg.Audio
		if ref == nil {
			ref = msg.Voice
		}
		if ref == nil {
			return
		}
		s.runMediaTurn(ctx, msg.From, ref, "audio/ogg", media.KindAudio)
	case "image":
		if msg.Image == nil {
			return
		}
		s.runMediaTurn(ctx, msg.From, msg.Image, "image/jpeg", media.KindImage)
	default:
		s.reply(ctx, msg.From, unsupportedTypeReply)
	}
}

func (s *Server) runMediaTurn(ctx context.Context, from string, ref *mediaRef, defaultMIME string, kind media.Kind) {
	mimeType := ref.MimeType
	if strings.TrimSpace(mimeType) == "" {
		mimeType = defaultMIME
	}

	path, err := s.messenger.DownloadMedia(ctx, ref.ID, mimeType)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("media_id", ref.ID).Msg("media download failed")
		what := "the audio file"
		if kind == media.KindImage {
			what = "the image"
		}
		s.reply(ctx, from, "Sorry, I couldn't download "+what+". Please try again.")
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("remove temp media failed")
		}
	}()

	s.runTurn(ctx, from, "", &media.Ref{Path: path, Kind: kind})
}

func (s *Server) runTurn(ctx context.Context, from, text string, ref *media.Ref) {
	turn, err := s.sessions.Get(from).Ask(ctx, text, ref)
	if turn == nil {
		log.Ctx(ctx).Error().Err(err).Msg("turn produced no result")
		s.reply(ctx, from, genericErrorReply)
		return
	}
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("trace_id", turn.TraceID).Msg("turn failed")
	}
	s.reply(ctx, from, turn.Reply)
}

func (s *Server) reply(ctx context.Context, to, body string) {
	if err := s.messenger.SendText(ctx, to, body); err != nil {
		log.Ctx(ctx).Error().Err(err).Msg("send reply failed")
	}
}
