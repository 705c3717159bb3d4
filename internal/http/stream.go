package http

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"pitaka/internal/auth"
	"pitaka/internal/core"
	"pitaka/internal/log"
	"pitaka/internal/subscription"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
)

// streamMessage is one snapshot pushed to a stream client.
type streamMessage struct {
	Kind  core.RecordKind `json:"kind"`
	Data  any             `json:"data"`
	Error string          `json:"error,omitempty"`
	At    time.Time       `json:"at"`
}

// handleStream upgrades to a websocket and pushes a snapshot of every
// requested kind (?kinds=banks,expenses; default all) now and after each
// change. The stream ends when the client disconnects or the session it was
// opened with signs out.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	kinds, err := ParseKindsParam(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the request.
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	stop := context.AfterFunc(s.streams, cancel)
	defer stop()

	logger := log.FromContext(ctx).WithComponent(log.ComponentSubscription)
	atomic.AddInt64(&s.appMetrics.streamClients, 1)
	defer atomic.AddInt64(&s.appMetrics.streamClients, -1)

	out := make(chan streamMessage, 2*len(kinds))
	subs := make([]*subscription.Subscription, 0, len(kinds))
	defer func() {
		for _, sub := range subs {
			sub.Cancel()
		}
	}()

	for _, kind := range kinds {
		sub, err := s.hub.SubscribeSession(ctx, id.UserID, id.TokenID, kind, func(u subscription.Update) {
			msg := streamMessage{Kind: u.Kind, At: u.At}
			if u.Err != nil {
				msg.Error = "Failed to load records. Please try again."
			} else {
				msg.Data = s.streamData(u.Data)
			}
			select {
			case out <- msg:
			case <-ctx.Done():
			}
		})
		if err != nil {
			logger.ErrorContext(ctx, "Failed to subscribe", log.FieldRecordKind, string(kind), log.FieldError, err)
			closeStream(conn, websocket.CloseInternalServerErr, "subscription failed")
			return
		}
		subs = append(subs, sub)
	}
	logger.InfoContext(ctx, "Stream opened", "kinds", len(kinds))
	signedOut := anyDone(ctx, subs)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		defer cancel()
		// unblocks the read loop below
		defer conn.Close()
		s.writeStream(ctx, conn, out, signedOut)
	}()

	conn.SetReadLimit(maxInboundSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		// Clients only send control frames; anything else is discarded.
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	cancel()
	<-writerDone
	logger.InfoContext(ctx, "Stream closed")
}

func (s *Server) writeStream(ctx context.Context, conn *websocket.Conn, out <-chan streamMessage, signedOut <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			closeStream(conn, websocket.CloseNormalClosure, "")
			return
		case <-signedOut:
			closeStream(conn, websocket.ClosePolicyViolation, "signed out")
			return
		case msg := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// anyDone returns a channel closed as soon as one of subs is cancelled.
// The watchers exit with ctx.
func anyDone(ctx context.Context, subs []*subscription.Subscription) <-chan struct{} {
	done := make(chan struct{})
	var once sync.Once
	for _, sub := range subs {
		go func() {
			select {
			case <-sub.Done():
				once.Do(func() { close(done) })
			case <-ctx.Done():
			}
		}()
	}
	return done
}

func closeStream(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
}
