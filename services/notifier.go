// services/notifier.go - websocket achievement notifications
package services

import (
	"sync"
	"time"

	"codemaster/achievements"
	"codemaster/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 15 * time.Second
	sendBufferSize = 16
)

// Message types pushed to clients.
const (
	MessageConnected = "connected"
	MessageEarned    = "achievements_earned"
)

type Message struct {
	Type         string                           `json:"type"`
	Achievements []achievements.EarnedAchievement `json:"achievements,omitempty"`
}

type subscriber struct {
	send chan Message
}

// Notifier fans newly earned achievements out to the user's open websocket
// connections. It implements achievements.Publisher.
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]map[*subscriber]struct{}
	log         *logger.Logger
}

func NewNotifier(log *logger.Logger) *Notifier {
	return &Notifier{
		subscribers: make(map[uuid.UUID]map[*subscriber]struct{}),
		log:         log.With("service", "Notifier"),
	}
}

// Subscribe registers a listener for userID. The returned func unsubscribes
// and closes the channel.
func (n *Notifier) Subscribe(userID uuid.UUID) (<-chan Message, func()) {
	sub := &subscriber{send: make(chan Message, sendBufferSize)}

	n.mu.Lock()
	if n.subscribers[userID] == nil {
		n.subscribers[userID] = make(map[*subscriber]struct{})
	}
	n.subscribers[userID][sub] = struct{}{}
	n.mu.Unlock()

	var once sync.Once
	return sub.send, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subscribers[userID], sub)
			if len(n.subscribers[userID]) == 0 {
				delete(n.subscribers, userID)
			}
			n.mu.Unlock()
			close(sub.send)
		})
	}
}

// Connected reports how many listeners userID has.
func (n *Notifier) Connected(userID uuid.UUID) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers[userID])
}

// PublishEarned never blocks; a slow listener misses the message.
func (n *Notifier) PublishEarned(userID uuid.UUID, earned []achievements.EarnedAchievement) {
	if len(earned) == 0 {
		return
	}
	msg := Message{Type: MessageEarned, Achievements: earned}

	n.mu.RLock()
	defer n.mu.RUnlock()
	for sub := range n.subscribers[userID] {
		select {
		case sub.send <- msg:
		default:
			n.log.Warn("dropping achievement push for slow client", "user_id", userID)
		}
	}
}

// Handler serves the websocket endpoint. The route must run the websocket
// auth middleware first so "userId" is set in locals.
func (n *Notifier) Handler() fiber.Handler {
	return websocket.New(n.serve)
}

func (n *Notifier) serve(conn *websocket.Conn) {
	userID, ok := conn.Locals("userId").(uuid.UUID)
	if !ok || userID == uuid.Nil {
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "unauthenticated"))
		_ = conn.Close()
		return
	}

	messages, unsubscribe := n.Subscribe(userID)
	defer unsubscribe()

	n.log.Debug("websocket connected", "user_id", userID)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		n.writePump(conn, messages, done)
	}()

	n.readPump(conn)
	close(done)
	wg.Wait()
	n.log.Debug("websocket disconnected", "user_id", userID)
}

// readPump discards client frames and returns when the connection closes.
func (n *Notifier) readPump(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				n.log.Debug("websocket read error", "error", err)
			}
			return
		}
	}
}

func (n *Notifier) writePump(conn *websocket.Conn, messages <-chan Message, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(Message{Type: MessageConnected}); err != nil {
		return
	}

	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				n.log.Debug("websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
