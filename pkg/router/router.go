package router

import (
	"context"
	"net/http"

	"github.com/BillixOfficial/rewards-backend/pkg/ws"
	"github.com/BillixOfficial/rewards-backend/pkg/xcontext"
	"github.com/gorilla/websocket"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs around the handler. A middleware returning an error
// stops the chain and the error is written to the client.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc always runs after the handler and all middlewares, no matter
// they succeeded or not.
type CloserFunc func(ctx context.Context)

// WebsocketHandlerFunc serves a websocket connection which is retrieved by
// xcontext.WSClient. The connection is closed when the handler returns.
type WebsocketHandlerFunc func(ctx context.Context) error

type Router struct {
	ctx context.Context

	befores []MiddlewareFunc
	afters  []MiddlewareFunc
	closers []CloserFunc

	// routes and mux are shared between all branches of a router.
	routes map[string]map[string]http.HandlerFunc
	mux    *http.ServeMux
}

// New creates a root router. The given context is the base of every request
// context, so it should carry the database, configs, logger, and engines.
func New(ctx context.Context) *Router {
	return &Router{
		ctx:    ctx,
		routes: make(map[string]map[string]http.HandlerFunc),
		mux:    http.NewServeMux(),
	}
}

// Branch returns a new router sharing the route table with the current one,
// but with an independent middleware chain.
func (r *Router) Branch() *Router {
	return &Router{
		ctx:     r.ctx,
		befores: append([]MiddlewareFunc{}, r.befores...),
		afters:  append([]MiddlewareFunc{}, r.afters...),
		closers: append([]CloserFunc{}, r.closers...),
		routes:  r.routes,
		mux:     r.mux,
	}
}

func (r *Router) Before(middleware MiddlewareFunc) {
	r.befores = append(r.befores, middleware)
}

func (r *Router) After(middleware MiddlewareFunc) {
	r.afters = append(r.afters, middleware)
}

func (r *Router) AddCloser(closer CloserFunc) {
	r.closers = append(r.closers, closer)
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.register(http.MethodGet, pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.register(http.MethodPost, pattern, wrapHandler(r, http.MethodPost, handler))
}

func Websocket(r *Router, pattern string, handler WebsocketHandlerFunc) {
	r.register(http.MethodGet, pattern, wrapWebsocket(r, handler))
}

func (r *Router) register(method, pattern string, handler http.HandlerFunc) {
	if _, ok := r.routes[pattern]; !ok {
		r.routes[pattern] = make(map[string]http.HandlerFunc)

		r.mux.HandleFunc(pattern, func(w http.ResponseWriter, req *http.Request) {
			handler, ok := r.routes[pattern][req.Method]
			if !ok {
				http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
				return
			}

			handler(w, req)
		})
	}

	r.routes[pattern][method] = handler
}

// Handle mounts a raw http handler, bypassing middlewares and the response
// envelope.
func (r *Router) Handle(pattern string, handler http.Handler) {
	r.mux.Handle(pattern, handler)
}

func (r *Router) Static(pattern, root string) {
	r.mux.Handle(pattern, http.FileServer(http.Dir(root)))
}

func (r *Router) Handler() http.Handler {
	return r.mux
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func wrapWebsocket(r *Router, handler WebsocketHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		ctx := xcontext.WithHTTPRequest(r.ctx, req)
		ctx = xcontext.WithHTTPWriter(ctx, w)

		var err error
		for _, middleware := range r.befores {
			ctx, err = middleware(ctx)
			if err != nil {
				xcontext.SetError(ctx, err)
				handleResponse(ctx)
				return
			}
		}

		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			xcontext.Logger(ctx).Debugf("Cannot upgrade the connection: %v", err)
			return
		}

		client := ws.NewClient(conn)
		defer client.Close()

		ctx = xcontext.WithWSClient(ctx, client)
		if err := handler(ctx); err != nil {
			xcontext.Logger(ctx).Debugf("Websocket handler exited: %v", err)
		}
	}
}
