// Package bus publishes finished dialogue turns to a websocket hub.
package bus

import (
	"encoding/json"
	"fmt"
	log "log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"navi/internal/dialogue"
)

type Bus struct {
	mu   sync.Mutex
	conn *websocket.Conn
	from string
}

type Message struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Kind     string  `json:"kind"`
	Content  string  `json:"content"`
	Seq      int     `json:"seq"`
	Outcome  string  `json:"outcome"`
	Emotion  string  `json:"emotion,omitempty"`
	Polarity float64 `json:"polarity"`
	Reply    string  `json:"reply,omitempty"`
	FollowUp string  `json:"follow_up,omitempty"`
	Error    string  `json:"error,omitempty"`
}

func Dial(wsURL, from string) (*Bus, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", wsURL, err)
	}

	log.Info("Connected to bus", "url", wsURL)
	return &Bus{conn: conn, from: from}, nil
}

func (b *Bus) Write(m *Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	_ = b.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return b.conn.WriteMessage(websocket.TextMessage, data)
}

func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	_ = b.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	return b.conn.Close()
}

func FromTurn(from string, t dialogue.Turn) *Message {
	m := &Message{
		From:     from,
		To:       "ALL",
		Kind:     "turn",
		Content:  t.Utterance,
		Seq:      t.Seq,
		Outcome:  string(t.Outcome),
		Emotion:  string(t.Emotion),
		Polarity: t.Polarity,
		Reply:    t.Reply,
		FollowUp: t.FollowUp,
	}
	if t.Err != nil {
		m.Error = t.Err.Error()
	}
	return m
}

// Observe is a dialogue observer; publish failures are only logged.
func (b *Bus) Observe(t dialogue.Turn) {
	if err := b.Write(FromTurn(b.from, t)); err != nil {
		log.Warn("Failed to publish turn", "seq", t.Seq, "err", err)
	}
}
