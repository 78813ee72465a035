package stream

import (
	"sync"

	"github.com/google/uuid"
)

// Router fans events out to the open connections of a user. Everything is in
// process, an api instance only serves the connections it holds. Events for
// users connected to another instance reach it over the message broker.
type Router struct {
	hubs map[string]*userHub

	mutex sync.RWMutex
}

func NewRouter() *Router {
	return &Router{
		hubs:  make(map[string]*userHub),
		mutex: sync.RWMutex{},
	}
}

// Route delivers an event to every open connection of the user. It is a
// no-op when the user is offline.
func (r *Router) Route(userID string, ev Event) {
	r.mutex.RLock()
	hub, ok := r.hubs[userID]
	r.mutex.RUnlock()

	if ok {
		hub.send(ev)
	}
}

func (r *Router) Join(session *UserSession) {
	r.mutex.RLock()
	hub, ok := r.hubs[session.userID]
	r.mutex.RUnlock()

	if !ok {
		r.mutex.Lock()
		// Double check.
		hub, ok = r.hubs[session.userID]
		if !ok {
			hub = newUserHub(session.userID)
			r.hubs[session.userID] = hub
		}
		r.mutex.Unlock()
	}

	hub.register(session)
}

func (r *Router) Leave(session *UserSession) {
	r.mutex.RLock()
	hub, ok := r.hubs[session.userID]
	r.mutex.RUnlock()

	if !ok {
		return
	}

	hub.unregister(session)
	close(session.C)

	if hub.isEmpty() {
		r.mutex.Lock()
		if h, ok := r.hubs[session.userID]; ok && h.isEmpty() {
			delete(r.hubs, session.userID)
		}
		r.mutex.Unlock()
	}
}

// userHub groups the sessions of one user. A user may hold several open
// connections, for example a phone and a tablet.
type userHub struct {
	userID   string
	sessions map[string]*UserSession

	mutex sync.RWMutex
}

func newUserHub(userID string) *userHub {
	return &userHub{
		userID:   userID,
		sessions: make(map[string]*UserSession),
		mutex:    sync.RWMutex{},
	}
}

// send never blocks on a slow connection, a full session buffer drops the
// event for that session only.
func (h *userHub) send(ev Event) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for _, s := range h.sessions {
		select {
		case s.C <- ev:
		default:
		}
	}
}

func (h *userHub) register(session *UserSession) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.sessions[session.id] = session
}

func (h *userHub) unregister(session *UserSession) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	delete(h.sessions, session.id)
}

func (h *userHub) isEmpty() bool {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.sessions) == 0
}

// UserSession is one websocket connection of a user.
type UserSession struct {
	C chan Event

	id     string
	userID string
}

func NewUserSession(userID string) *UserSession {
	return &UserSession{
		C:      make(chan Event, 16),
		id:     uuid.NewString(),
		userID: userID,
	}
}
