package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wayfinder-labs/service-wayfinding/internal/application"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/auth"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/domain"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/metrics"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/middleware"
	"github.com/wayfinder-labs/service-wayfinding/internal/speech"
	"go.uber.org/zap"
)

// Frame types exchanged on the voice socket.
const (
	FrameHello      = "hello"
	FrameStart      = "start"
	FrameTranscript = "transcript"
	FrameStop       = "stop"
	FrameText       = "text"
	FrameReply      = "reply"
	FrameDegraded   = "degraded"
	FrameError      = "error"
)

// DegradedMessage is sent when the client cannot capture speech.
const DegradedMessage = "Your browser does not support speech recognition."

const (
	maxFrameSize = 64 << 10
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
)

// ClientFrame is a message from the browser.
type ClientFrame struct {
	Type              string `json:"type"`
	SpeechRecognition *bool  `json:"speech_recognition,omitempty"`
	Text              string `json:"text,omitempty"`
	Final             bool   `json:"final,omitempty"`
}

// ServerFrame is a JSON message to the browser. Synthesized audio follows a reply as a binary frame.
type ServerFrame struct {
	Type        string                `json:"type"`
	Text        string                `json:"text,omitempty"`
	Destination string                `json:"destination,omitempty"`
	Outcome     string                `json:"outcome,omitempty"`
	Route       *application.RouteDTO `json:"route,omitempty"`
}

// VoiceHandler serves the websocket capture session used by the browser client.
type VoiceHandler struct {
	service  AssistantService
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewVoiceHandler creates a new VoiceHandler. An empty allowedOrigins or "*" accepts any origin.
func NewVoiceHandler(service AssistantService, allowedOrigins []string, logger *zap.Logger) *VoiceHandler {
	return &VoiceHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// RegisterRoutes registers the voice socket on the given router group.
func (h *VoiceHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	r.GET("/ws/voice",
		middleware.AuthMiddleware(jwtManager),
		middleware.RequireRole(auth.RoleAssistant, auth.RoleAdmin),
		h.Voice,
	)
}

// Voice handles GET /ws/voice.
func (h *VoiceHandler) Voice(c *gin.Context) {
	subject, _ := middleware.GetSubject(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	metrics.ActiveVoiceSessions.Inc()
	defer metrics.ActiveVoiceSessions.Dec()

	sess := &voiceSession{
		id:      subject + ":" + uuid.NewString(),
		conn:    conn,
		service: h.service,
		logger:  h.logger,
	}
	h.logger.Info("voice session opened", zap.String("session_id", sess.id))
	sess.run(c.Request.Context())
	h.logger.Info("voice session closed", zap.String("session_id", sess.id))
}

type voiceSession struct {
	id      string
	conn    *websocket.Conn
	service AssistantService
	logger  *zap.Logger

	writeMu    sync.Mutex
	transcript speech.Transcript
	capturing  bool
	degraded   bool
	tasks      sync.WaitGroup

	// in-flight turn; only touched from the read loop
	turnCancel context.CancelFunc
	turnDone   chan struct{}
}

func (s *voiceSession) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		cancel()
		s.tasks.Wait()
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(maxFrameSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go s.keepAlive(ctx)

	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Debug("voice socket read failed", zap.String("session_id", s.id), zap.Error(err))
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}

		var frame ClientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			s.writeFrame(ServerFrame{Type: FrameError, Text: "malformed frame"})
			continue
		}
		s.handleFrame(ctx, frame)
	}
}

func (s *voiceSession) handleFrame(ctx context.Context, frame ClientFrame) {
	switch frame.Type {
	case FrameHello:
		if frame.SpeechRecognition != nil && !*frame.SpeechRecognition {
			s.degraded = true
			s.writeFrame(ServerFrame{Type: FrameDegraded, Text: DegradedMessage})
		}
		s.spawn(func() { s.launch(ctx) })
	case FrameStart:
		if s.degraded {
			s.writeFrame(ServerFrame{Type: FrameDegraded, Text: DegradedMessage})
			return
		}
		s.transcript.Reset()
		s.capturing = true
	case FrameTranscript:
		if s.capturing {
			s.transcript.Add(frame.Text, frame.Final)
		}
	case FrameStop:
		if !s.capturing {
			return
		}
		s.capturing = false
		text := s.transcript.Text()
		s.transcript.Reset()
		s.submit(ctx, text)
	case FrameText:
		s.submit(ctx, frame.Text)
	default:
		s.logger.Debug("ignoring voice frame", zap.String("session_id", s.id), zap.String("type", frame.Type))
	}
}

func (s *voiceSession) launch(ctx context.Context) {
	greeting, err := s.service.Launch(ctx, s.id)
	if err != nil {
		s.fail(ctx, err)
		return
	}
	s.reply(ctx, ServerFrame{Type: FrameReply, Text: greeting})
}

// submit cancels the in-flight turn and queues text behind it, so turns start
// in the order their frames arrived and only the newest one replies.
func (s *voiceSession) submit(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}

	if s.turnCancel != nil {
		s.turnCancel()
	}
	prev := s.turnDone
	turnCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.turnCancel, s.turnDone = cancel, done

	s.spawn(func() {
		defer close(done)
		defer cancel()
		if prev != nil {
			<-prev
		}
		if turnCtx.Err() != nil {
			return
		}

		result, err := s.service.HandleUtterance(turnCtx, s.id, text)
		if err != nil {
			if errors.Is(err, application.ErrTurnSuperseded) {
				return
			}
			s.fail(turnCtx, err)
			return
		}
		if turnCtx.Err() != nil {
			return
		}
		s.reply(turnCtx, ServerFrame{
			Type:        FrameReply,
			Text:        result.Reply,
			Destination: result.Destination,
			Outcome:     result.Outcome,
			Route:       result.Route,
		})
	})
}

func (s *voiceSession) reply(ctx context.Context, frame ServerFrame) {
	if !s.writeFrame(frame) || frame.Text == "" || !s.service.SpeechEnabled() {
		return
	}
	audio, err := s.service.Speak(ctx, frame.Text)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("speech synthesis failed", zap.String("session_id", s.id), zap.Error(err))
		return
	}
	s.write(websocket.BinaryMessage, audio.Data)
}

func (s *voiceSession) fail(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	s.logger.Error("voice turn failed", zap.String("session_id", s.id), zap.Error(err))
	msg := "internal error"
	if appErr, ok := domain.AsAppError(err); ok {
		msg = appErr.Message
	}
	s.writeFrame(ServerFrame{Type: FrameError, Text: msg})
}

func (s *voiceSession) spawn(fn func()) {
	s.tasks.Add(1)
	go func() {
		defer s.tasks.Done()
		fn()
	}()
}

func (s *voiceSession) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (s *voiceSession) writeFrame(frame ServerFrame) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		s.logger.Error("failed to encode voice frame", zap.Error(err))
		return false
	}
	return s.write(websocket.TextMessage, data)
}

func (s *voiceSession) write(kind int, data []byte) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(kind, data); err != nil {
		s.logger.Debug("voice socket write failed", zap.String("session_id", s.id), zap.Error(err))
		return false
	}
	return true
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimRight(o, "/")] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[u.Scheme+"://"+u.Host]
		return ok
	}
}
