package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client is a single introspection WebSocket peer. Adapted from the
// teacher's gateway.Client: same write-coalescing writePump, same
// ping/pong keepalive, subscriptions keyed by recordable path instead of
// symbol:tf.
type Client struct {
	conn *websocket.Conn
	send chan []byte
	hub  *Hub

	subMu sync.RWMutex
	subs  map[string]bool
}

func (c *Client) isSubscribed(path string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	if len(c.subs) == 0 {
		return true // no explicit subscription yet: receive everything
	}
	return c.subs[path]
}

func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(msg)

			// Drain any queued messages into the same frame.
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		c.conn.Close()
		log.Println("[introspect] ws client disconnected")
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var base struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(msg, &base) != nil {
			continue
		}

		switch base.Type {
		case "SUBSCRIBE":
			var sub SubscribeMsg
			if err := json.Unmarshal(msg, &sub); err != nil {
				sendError(c, "", "invalid SUBSCRIBE: "+err.Error())
				continue
			}
			c.handleSubscribe(sub)
		case "UNSUBSCRIBE":
			var unsub UnsubscribeMsg
			if err := json.Unmarshal(msg, &unsub); err != nil {
				continue
			}
			c.handleUnsubscribe(unsub)
		}
	}
}

func (c *Client) handleSubscribe(msg SubscribeMsg) {
	if msg.Path == "" {
		sendError(c, msg.ReqID, "path is required")
		return
	}

	c.subMu.Lock()
	c.subs[msg.Path] = true
	c.subMu.Unlock()

	entry, history, ok := c.hub.snapshot(msg.Path)
	resp := SnapshotResponse{Type: "SNAPSHOT", ReqID: msg.ReqID, Path: msg.Path}
	if ok {
		_ = entry
		resp.History = history
	}
	sendJSON(c, resp)
}

func (c *Client) handleUnsubscribe(msg UnsubscribeMsg) {
	c.subMu.Lock()
	delete(c.subs, msg.Path)
	c.subMu.Unlock()
}

func sendJSON(c *Client, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("[introspect] json marshal error: %v", err)
		return
	}
	select {
	case c.send <- data:
	default:
		log.Println("[introspect] client send buffer full, dropping message")
	}
}

func sendError(c *Client, reqID, errMsg string) {
	sendJSON(c, ErrorResponse{Type: "ERROR", ReqID: reqID, Error: errMsg})
}
