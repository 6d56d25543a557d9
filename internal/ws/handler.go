package ws

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/saturnino-fabrica-de-software/blinkcheck/internal/domain"
)

const (
	readWait = 60 * time.Second
	localIP  = "ws_ip"
)

// FrameFunc processes one frame payload and returns the JSON body POST /detect
// would answer with
type FrameFunc func(ctx context.Context, payload string, meta ConnMeta) interface{}

// ConnMeta identifies the websocket peer
type ConnMeta struct {
	IPAddress string
	UserAgent string
	RequestID string
}

// StatusHandler streams tracker events to the client
func StatusHandler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		client := newClient(hub, c)

		if !hub.join(client) {
			_ = c.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

// DetectConfig bounds what one detection stream may send
type DetectConfig struct {
	// ReadLimit caps a single message in bytes; 0 leaves it unbounded
	ReadLimit int64
	// Allow is consulted per frame with the peer IP; nil admits every frame
	Allow func(key string) bool
}

// rateLimitedReply mirrors the body POST /detect answers with when limited
var rateLimitedReply = map[string]string{"error": domain.ErrRateLimitExceeded.Message}

// DetectHandler accepts frames over a websocket. Text messages carry the same
// payload as POST /detect; binary messages carry raw image bytes.
func DetectHandler(process FrameFunc, cfg DetectConfig, logger *slog.Logger) fiber.Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger = logger.With("component", "ws_detect")

	return websocket.New(func(c *websocket.Conn) {
		meta := connMeta(c)
		logger.Info("detection stream connected", "ip", meta.IPAddress)
		defer logger.Info("detection stream disconnected", "ip", meta.IPAddress)

		if cfg.ReadLimit > 0 {
			c.SetReadLimit(cfg.ReadLimit)
		}

		for {
			if err := c.SetReadDeadline(time.Now().Add(readWait)); err != nil {
				break
			}

			messageType, message, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warn("detection stream error", "error", err)
				}
				break
			}

			result, ok := handleFrame(context.Background(), process, cfg, messageType, message, meta)
			if !ok {
				continue
			}

			if err := c.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				break
			}
			if err := c.WriteJSON(result); err != nil {
				logger.Error("failed to write detection result", "error", err)
				break
			}
		}
	})
}

// handleFrame turns one websocket message into its reply. ok is false for
// message types that get no reply.
func handleFrame(ctx context.Context, process FrameFunc, cfg DetectConfig, messageType int, message []byte, meta ConnMeta) (interface{}, bool) {
	var payload string
	switch messageType {
	case websocket.TextMessage:
		payload = string(message)
	case websocket.BinaryMessage:
		payload = base64.StdEncoding.EncodeToString(message)
	default:
		return nil, false
	}

	if cfg.Allow != nil && !cfg.Allow(meta.IPAddress) {
		return rateLimitedReply, true
	}

	return process(ctx, payload, meta), true
}

func connMeta(c *websocket.Conn) ConnMeta {
	meta := ConnMeta{
		UserAgent: c.Headers(fiber.HeaderUserAgent),
	}
	if ip, ok := c.Locals(localIP).(string); ok {
		meta.IPAddress = ip
	}
	if id, ok := c.Locals("requestid").(string); ok {
		meta.RequestID = id
	}
	return meta
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			c.Locals(localIP, c.IP())
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
