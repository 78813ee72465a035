package ws

import "sync"

type clients map[*Client]bool

// Hub tracks connected clients grouped by channel and fans messages out to
// them.
type Hub struct {
	mutex    sync.RWMutex
	clients  clients
	channels map[string]clients
}

func NewHub() *Hub {
	return &Hub{
		clients:  make(clients),
		channels: make(map[string]clients),
	}
}

func (h *Hub) Register(client *Client, channel string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	client.channel = channel
	h.clients[client] = true
	if _, ok := h.channels[channel]; !ok {
		h.channels[channel] = make(clients)
	}
	h.channels[channel][client] = true
}

func (h *Hub) Unregister(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, ok := h.clients[client]; ok {
		h.disconnect(client)
	}
}

// disconnect must be called with the mutex held.
func (h *Hub) disconnect(client *Client) {
	delete(h.clients, client)
	delete(h.channels[client.channel], client)
	if len(h.channels[client.channel]) == 0 {
		delete(h.channels, client.channel)
	}
	client.Close()
}

func (h *Hub) BroadCastByChannel(channel string, message []byte) {
	h.mutex.RLock()
	receivers := make([]*Client, 0, len(h.channels[channel]))
	for client := range h.channels[channel] {
		receivers = append(receivers, client)
	}
	h.mutex.RUnlock()

	for _, client := range receivers {
		if err := client.Write(message, false); err != nil {
			h.Unregister(client)
		}
	}
}
