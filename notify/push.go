package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dan13ram/xbridge-engine/common"
	"github.com/dan13ram/xbridge-engine/models"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const defaultWriteWait = 5 * time.Second

type pushClient struct {
	conn      *websocket.Conn
	recipient string
	mu        sync.Mutex
}

func (c *pushClient) write(deadline time.Time, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, payload)
}

// PushHub pushes notifications to websocket clients connected with ?recipient=<id>.
type PushHub struct {
	mu       sync.Mutex
	clients  map[string]map[*pushClient]struct{}
	upgrader websocket.Upgrader
}

func NewPushHub() *PushHub {
	return &PushHub{
		clients:  make(map[string]map[*pushClient]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

func recipientKey(recipient string) string {
	return strings.ToLower(strings.TrimSpace(recipient))
}

func (h *PushHub) add(c *pushClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := recipientKey(c.recipient)
	if h.clients[key] == nil {
		h.clients[key] = make(map[*pushClient]struct{})
	}
	h.clients[key][c] = struct{}{}
}

func (h *PushHub) remove(c *pushClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	key := recipientKey(c.recipient)
	delete(h.clients[key], c)
	if len(h.clients[key]) == 0 {
		delete(h.clients, key)
	}
}

func (h *PushHub) connected(recipient string) []*pushClient {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[recipientKey(recipient)]
	out := make([]*pushClient, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// Connections returns the number of open connections for recipient.
func (h *PushHub) Connections(recipient string) int {
	return len(h.connected(recipient))
}

// Deliver writes to every connection of the recipient. target overrides the
// notification's recipient when set.
func (h *PushHub) Deliver(ctx context.Context, target string, n models.Notification) error {
	recipient := n.Recipient
	if target != "" {
		recipient = target
	}

	clients := h.connected(recipient)
	if len(clients) == 0 {
		return fmt.Errorf("%w: no push connection for %s", common.ErrDelivery, recipient)
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultWriteWait)
	}

	delivered := 0
	var lastErr error
	for _, c := range clients {
		if err := c.write(deadline, payload); err != nil {
			log.WithError(err).WithField("recipient", recipient).Warn("[NOTIFY] Dropping push connection")
			h.remove(c)
			c.conn.Close()
			lastErr = err
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return fmt.Errorf("%w: %w", common.ErrDelivery, lastErr)
	}
	return nil
}

// Handler upgrades the request and keeps the connection until the client goes away.
func (h *PushHub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recipient := r.URL.Query().Get("recipient")
		if strings.TrimSpace(recipient) == "" {
			http.Error(w, "recipient is required", http.StatusBadRequest)
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.WithError(err).Warn("[NOTIFY] Websocket upgrade failed")
			return
		}

		c := &pushClient{conn: conn, recipient: recipient}
		h.add(c)
		log.WithField("recipient", recipient).Debug("[NOTIFY] Push client connected")

		go func() {
			defer func() {
				h.remove(c)
				conn.Close()
				log.WithField("recipient", recipient).Debug("[NOTIFY] Push client disconnected")
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// Close drops every connection.
func (h *PushHub) Close() {
	h.mu.Lock()
	all := h.clients
	h.clients = make(map[string]map[*pushClient]struct{})
	h.mu.Unlock()

	for _, set := range all {
		for c := range set {
			c.conn.Close()
		}
	}
}
