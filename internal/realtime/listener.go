package realtime

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	readWait  = 75 * time.Second
	writeWait = 5 * time.Second
)

// Listener keeps a websocket open to the server for one project and hands
// every decoded task event to Apply. It redials with backoff until its
// context ends.
type Listener struct {
	URL        string
	Token      func() string
	Apply      func(TaskEvent)
	Dialer     *websocket.Dialer
	Log        *logrus.Logger
	MinBackoff time.Duration
	MaxBackoff time.Duration
	// OnConnect, when set, is called after each successful dial.
	OnConnect func()
}

func (l *Listener) dialURL(projectID, token string) (string, error) {
	u, err := url.Parse(l.URL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("project", projectID)
	if token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (l *Listener) logger() *logrus.Logger {
	if l.Log == nil {
		return logrus.StandardLogger()
	}
	return l.Log
}

// Run blocks until ctx is done. It returns ctx.Err() on shutdown.
func (l *Listener) Run(ctx context.Context, projectID string) error {
	backoff := l.MinBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	maxBackoff := l.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}
	log := l.logger().WithField("project", projectID)

	for {
		connected, err := l.session(ctx, projectID)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			backoff = l.MinBackoff
			if backoff <= 0 {
				backoff = 500 * time.Millisecond
			}
		}
		log.WithError(err).WithField("retry_in", backoff).Warn("realtime connection lost")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// session dials once and reads until the connection fails.
func (l *Listener) session(ctx context.Context, projectID string) (bool, error) {
	token := ""
	if l.Token != nil {
		token = l.Token()
	}
	target, err := l.dialURL(projectID, token)
	if err != nil {
		return false, err
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	dialer := l.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, _, err := dialer.DialContext(ctx, target, header)
	if err != nil {
		return false, err
	}
	defer conn.Close()
	if l.OnConnect != nil {
		l.OnConnect()
	}
	l.logger().WithField("project", projectID).Info("realtime connected")

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			conn.Close()
		case <-stop:
		}
	}()

	conn.SetReadDeadline(time.Now().Add(readWait))
	conn.SetPingHandler(func(data string) error {
		conn.SetReadDeadline(time.Now().Add(readWait))
		err := conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(writeWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		conn.SetReadDeadline(time.Now().Add(readWait))
		evt, err := Decode(message)
		if err != nil {
			l.logger().WithError(err).Debug("ignoring realtime message")
			continue
		}
		if l.Apply != nil {
			l.Apply(evt)
		}
	}
}
