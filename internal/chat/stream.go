// Package chat carries the employer-worker conversation opened by an accepted
// application: REST history and send, a live websocket stream, and an
// optional local archive of received messages.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/saran-1305/job-assigning-app-frontend-main/internal/apperr"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/logging"
	"github.com/saran-1305/job-assigning-app-frontend-main/internal/models"
)

// MaxMessageLen is the longest text the backend accepts.
const MaxMessageLen = 2000

const (
	defaultMinBackoff = time.Second
	defaultMaxBackoff = 30 * time.Second
	defaultPing       = 30 * time.Second
	handshakeTimeout  = 15 * time.Second
	writeTimeout      = 10 * time.Second
	readLimit         = 64 * 1024
)

// Backfill returns recent room messages. After a reconnect it is used to pick
// up anything pushed while the socket was down.
type Backfill func(ctx context.Context) ([]models.ChatMessage, error)

type Option func(*Stream)

func WithLogger(l *zap.Logger) Option {
	return func(s *Stream) { s.logger = logging.OrNop(l) }
}

// WithBackoff bounds the reconnect delay, which doubles after each failed
// attempt.
func WithBackoff(min, max time.Duration) Option {
	return func(s *Stream) {
		if min > 0 {
			s.minBackoff = min
		}
		if max >= s.minBackoff {
			s.maxBackoff = max
		}
	}
}

func WithPingInterval(d time.Duration) Option {
	return func(s *Stream) {
		if d > 0 {
			s.ping = d
		}
	}
}

func WithBackfill(b Backfill) Option {
	return func(s *Stream) { s.backfill = b }
}

// WithTranscript shares t with the caller, for example one already seeded
// with REST history so those messages are not delivered twice.
func WithTranscript(t *Transcript) Option {
	return func(s *Stream) {
		if t != nil {
			s.transcript = t
		}
	}
}

// WithUnauthorizedHook registers fn to run when the backend rejects the
// token, on the first dial or on a reconnect.
func WithUnauthorizedHook(fn func(ctx context.Context, err error)) Option {
	return func(s *Stream) { s.onUnauthorized = fn }
}

// Stream is a live subscription to one room. Messages are delivered once each,
// in the order received; the connection is re-established with capped
// exponential backoff until the context passed to Dial ends or Close is
// called. An authorization failure while reconnecting ends the stream and is
// reported by Err.
type Stream struct {
	url    string
	roomID string
	token  string
	dialer *websocket.Dialer
	logger *zap.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
	ping       time.Duration
	backfill   Backfill
	transcript *Transcript

	onUnauthorized func(ctx context.Context, err error)

	out    chan models.ChatMessage
	cancel context.CancelFunc
	done   chan struct{}

	wmu sync.Mutex // one concurrent writer per connection

	mu       sync.Mutex
	conn     *websocket.Conn
	err      error
	connects int
}

// Dial opens the stream. The first connection is made before Dial returns, so
// a bad token or a room the user is not part of fails here.
func Dial(ctx context.Context, wsURL, roomID, token string, opts ...Option) (*Stream, error) {
	const op = "chat.Dial"
	if strings.TrimSpace(roomID) == "" {
		return nil, apperr.Validation(op, "roomId", "room id is required")
	}
	if token == "" {
		return nil, apperr.ErrNotAuthenticated.At(op)
	}
	u, err := streamURL(wsURL, roomID)
	if err != nil {
		return nil, apperr.Validation(op, "wsURL", "%v", err)
	}

	s := &Stream{
		url:        u,
		roomID:     roomID,
		token:      token,
		dialer:     &websocket.Dialer{Proxy: http.ProxyFromEnvironment, HandshakeTimeout: handshakeTimeout},
		logger:     zap.NewNop(),
		minBackoff: defaultMinBackoff,
		maxBackoff: defaultMaxBackoff,
		ping:       defaultPing,
		transcript: NewTranscript(),
		out:        make(chan models.ChatMessage, 64),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	conn, err := s.connect(ctx, op)
	if err != nil {
		s.unauthorized(ctx, err)
		return nil, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	go s.run(runCtx, conn)
	return s, nil
}

// streamURL accepts ws(s) or http(s) endpoints and adds the room parameter.
func streamURL(raw, roomID string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", errors.New("chat url must be ws, wss, http or https")
	}
	if u.Host == "" {
		return "", errors.New("chat url has no host")
	}
	q := u.Query()
	q.Set("room_id", roomID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Messages delivers new room messages. The channel is closed when the stream
// ends.
func (s *Stream) Messages() <-chan models.ChatMessage { return s.out }

// Transcript holds every message delivered so far.
func (s *Stream) Transcript() *Transcript { return s.transcript }

func (s *Stream) RoomID() string { return s.roomID }

// Connected reports whether a socket is currently attached.
func (s *Stream) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Connects counts successful connections, the first one included.
func (s *Stream) Connects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connects
}

// Err reports why the stream stopped reconnecting, if it did.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Done is closed once the stream has stopped for good.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Close stops the stream and waits for its goroutines to exit.
func (s *Stream) Close() error {
	s.cancel()
	<-s.done
	return nil
}

// Send posts text to the room over the socket. The server answers a refusal
// with an error frame, which is logged; use the REST send when the outcome
// must be known.
func (s *Stream) Send(ctx context.Context, text string) error {
	const op = "chat.Send"
	text, err := checkText(op, text)
	if err != nil {
		return err
	}
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return &apperr.Error{Kind: apperr.KindNetwork, Code: apperr.CodeNetworkError,
			Op: op, Message: "chat stream is reconnecting"}
	}
	evt := models.ChatEvent{Type: models.ChatEventMessage, RoomID: s.roomID, Text: text}
	if err := s.write(ctx, conn, evt); err != nil {
		return &apperr.Error{Kind: apperr.KindNetwork, Code: apperr.CodeNetworkError,
			Op: op, Message: "Network error", Err: err}
	}
	return nil
}

func checkText(op, text string) (string, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return "", apperr.Validation(op, "text", "Message text is required")
	case len(text) > MaxMessageLen:
		return "", apperr.Validation(op, "text", "Message must be at most %d characters", MaxMessageLen)
	}
	return text, nil
}

func (s *Stream) write(ctx context.Context, conn *websocket.Conn, evt models.ChatEvent) error {
	deadline := time.Now().Add(writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	_ = conn.SetWriteDeadline(deadline)
	return conn.WriteJSON(evt)
}

func (s *Stream) connect(ctx context.Context, op string) (*websocket.Conn, error) {
	hdr := http.Header{}
	hdr.Set("Authorization", "Bearer "+s.token)

	conn, resp, err := s.dialer.DialContext(ctx, s.url, hdr)
	if err != nil {
		return nil, handshakeError(ctx, op, resp, err)
	}
	conn.SetReadLimit(readLimit)

	s.mu.Lock()
	s.conn = conn
	s.connects++
	n := s.connects
	s.mu.Unlock()
	s.logger.Info("chat stream connected", zap.String("room_id", s.roomID), zap.Int("connects", n))
	return conn, nil
}

// handshakeError classifies a failed upgrade. A response means the server
// refused us; no response means we never reached it.
func handshakeError(ctx context.Context, op string, resp *http.Response, err error) error {
	if resp != nil {
		var env struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		}
		if resp.Body != nil {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			_ = json.Unmarshal(body, &env)
		}
		if env.Message == "" {
			env.Message = http.StatusText(resp.StatusCode)
		}
		return apperr.FromResponse(op, resp.StatusCode, env.Code, env.Message)
	}
	if ctx.Err() != nil {
		return &apperr.Error{Kind: apperr.KindTimeout, Code: apperr.CodeCancelled,
			Op: op, Message: "dial abandoned", Err: ctx.Err()}
	}
	return &apperr.Error{Kind: apperr.KindNetwork, Code: apperr.CodeNetworkError,
		Op: op, Message: "Network error", Err: err}
}

func (s *Stream) unauthorized(ctx context.Context, err error) {
	if s.onUnauthorized != nil && apperr.IsAuth(err) {
		s.onUnauthorized(context.WithoutCancel(ctx), err)
	}
}

// permanent errors are not worth another dial.
func permanent(err error) bool {
	switch apperr.KindOf(err).Class() {
	case apperr.KindUnauthorized, apperr.KindForbidden, apperr.KindNotFound, apperr.KindValidation:
		return true
	}
	return false
}

func (s *Stream) run(ctx context.Context, conn *websocket.Conn) {
	defer close(s.done)
	defer close(s.out)

	backoff := s.minBackoff
	for {
		err := s.serve(ctx, conn)
		if ctx.Err() != nil {
			return
		}
		s.logger.Warn("chat stream lost", zap.String("room_id", s.roomID), zap.Error(err))

		for {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			conn, err = s.connect(ctx, "chat.Reconnect")
			if err == nil {
				backoff = s.minBackoff
				break
			}
			if ctx.Err() != nil {
				return
			}
			if permanent(err) {
				s.logger.Error("chat stream stopped", zap.String("room_id", s.roomID), zap.Error(err))
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
				s.unauthorized(ctx, err)
				return
			}
			backoff *= 2
			if backoff > s.maxBackoff {
				backoff = s.maxBackoff
			}
			s.logger.Debug("chat reconnect failed", zap.Duration("retry_in", backoff), zap.Error(err))
		}

		s.catchUp(ctx)
	}
}

// serve reads one connection until it fails or ctx ends.
func (s *Stream) serve(ctx context.Context, conn *websocket.Conn) error {
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	pingCtx, stopPing := context.WithCancel(ctx)
	pinger := make(chan struct{})
	go func() {
		defer close(pinger)
		s.keepalive(pingCtx, conn)
	}()
	defer func() {
		stopPing()
		<-pinger
		stop()
		s.mu.Lock()
		if s.conn == conn {
			s.conn = nil
		}
		s.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		var evt models.ChatEvent
		if err := conn.ReadJSON(&evt); err != nil {
			return err
		}
		switch evt.Type {
		case models.ChatEventMessage:
			if evt.Message != nil {
				s.deliver(ctx, *evt.Message)
			}
		case models.ChatEventError:
			s.logger.Warn("chat frame refused", zap.String("room_id", s.roomID), zap.String("reason", evt.Error))
		case models.ChatEventPong:
		default:
			s.logger.Debug("ignoring chat frame", zap.String("type", evt.Type))
		}
	}
}

func (s *Stream) keepalive(ctx context.Context, conn *websocket.Conn) {
	t := time.NewTicker(s.ping)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.write(ctx, conn, models.ChatEvent{Type: models.ChatEventPing, RoomID: s.roomID}); err != nil {
				return
			}
		}
	}
}

func (s *Stream) deliver(ctx context.Context, msgs ...models.ChatMessage) {
	for _, m := range s.transcript.Add(msgs...) {
		select {
		case s.out <- m:
		case <-ctx.Done():
			return
		}
	}
}

func (s *Stream) catchUp(ctx context.Context) {
	if s.backfill == nil {
		return
	}
	msgs, err := s.backfill(ctx)
	if err != nil {
		s.logger.Warn("chat backfill failed", zap.String("room_id", s.roomID), zap.Error(err))
		return
	}
	var missed []models.ChatMessage
	for _, m := range msgs {
		if m.RoomID == "" || m.RoomID == s.roomID {
			missed = append(missed, m)
		}
	}
	s.deliver(ctx, missed...)
}
