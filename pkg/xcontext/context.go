package xcontext

import (
	"context"
	"net/http"
	"time"

	"github.com/BillixOfficial/rewards-backend/config"
	"github.com/BillixOfficial/rewards-backend/pkg/authenticator"
	"github.com/BillixOfficial/rewards-backend/pkg/logger"
	"github.com/BillixOfficial/rewards-backend/pkg/ws"
	"github.com/bwmarrin/snowflake"
	"github.com/gorilla/sessions"
	"gorm.io/gorm"
)

type (
	httpRequestKey   struct{}
	httpWriterKey    struct{}
	httpClientKey    struct{}
	configsKey       struct{}
	loggerKey        struct{}
	dbKey            struct{}
	dbTransactionKey struct{}
	tokenEngineKey   struct{}
	sessionStoreKey  struct{}
	snowflakeKey     struct{}
	wsClientKey      struct{}
	startTimeKey     struct{}
)

// WithHTTPRequest attaches the current request to the context. It also
// prepares a room for the handler result, so closers running after the
// handler can read the response or error back.
func WithHTTPRequest(ctx context.Context, req *http.Request) context.Context {
	ctx = context.WithValue(ctx, httpRequestKey{}, req)
	ctx = context.WithValue(ctx, responseKey{}, &responseHolder{})
	ctx = context.WithValue(ctx, errorKey{}, &errorHolder{})
	return ctx
}

func HTTPRequest(ctx context.Context) *http.Request {
	return ctx.Value(httpRequestKey{}).(*http.Request)
}

func WithHTTPWriter(ctx context.Context, w http.ResponseWriter) context.Context {
	return context.WithValue(ctx, httpWriterKey{}, w)
}

func HTTPWriter(ctx context.Context) http.ResponseWriter {
	return ctx.Value(httpWriterKey{}).(http.ResponseWriter)
}

func WithHTTPClient(ctx context.Context, client *http.Client) context.Context {
	return context.WithValue(ctx, httpClientKey{}, client)
}

func HTTPClient(ctx context.Context) *http.Client {
	if client, ok := ctx.Value(httpClientKey{}).(*http.Client); ok {
		return client
	}

	return http.DefaultClient
}

func WithConfigs(ctx context.Context, cfg config.Configs) context.Context {
	return context.WithValue(ctx, configsKey{}, cfg)
}

func Configs(ctx context.Context) config.Configs {
	return ctx.Value(configsKey{}).(config.Configs)
}

func WithLogger(ctx context.Context, l logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func Logger(ctx context.Context) logger.Logger {
	return ctx.Value(loggerKey{}).(logger.Logger)
}

func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

// DB returns the current database handler. If the context carries an
// unfinished transaction, the transaction is returned instead.
func DB(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(dbTransactionKey{}).(*dbTransaction); ok && !tx.finished {
		return tx.tx
	}

	return ctx.Value(dbKey{}).(*gorm.DB)
}

type dbTransaction struct {
	tx       *gorm.DB
	finished bool
}

// WithDBTransaction begins a transaction on the current database handler.
// Until the transaction is committed or rolled back, DB returns the
// transaction for every context derived from the returned one.
func WithDBTransaction(ctx context.Context) context.Context {
	return context.WithValue(ctx, dbTransactionKey{}, &dbTransaction{tx: DB(ctx).Begin()})
}

// WithCommitDBTransaction commits the current transaction. It is a no-op
// if the context has no transaction or the transaction already finished.
func WithCommitDBTransaction(ctx context.Context) context.Context {
	if tx, ok := ctx.Value(dbTransactionKey{}).(*dbTransaction); ok && !tx.finished {
		tx.tx.Commit()
		tx.finished = true
	}

	return ctx
}

// WithRollbackDBTransaction rollbacks the current transaction. It is a no-op
// if the context has no transaction or the transaction already finished, so
// it can be deferred right after WithDBTransaction.
func WithRollbackDBTransaction(ctx context.Context) context.Context {
	if tx, ok := ctx.Value(dbTransactionKey{}).(*dbTransaction); ok && !tx.finished {
		tx.tx.Rollback()
		tx.finished = true
	}

	return ctx
}

func WithTokenEngine(ctx context.Context, engine authenticator.TokenEngine) context.Context {
	return context.WithValue(ctx, tokenEngineKey{}, engine)
}

func TokenEngine(ctx context.Context) authenticator.TokenEngine {
	return ctx.Value(tokenEngineKey{}).(authenticator.TokenEngine)
}

func WithSessionStore(ctx context.Context, store sessions.Store) context.Context {
	return context.WithValue(ctx, sessionStoreKey{}, store)
}

func SessionStore(ctx context.Context) sessions.Store {
	return ctx.Value(sessionStoreKey{}).(sessions.Store)
}

func WithSnowFlake(ctx context.Context, node *snowflake.Node) context.Context {
	return context.WithValue(ctx, snowflakeKey{}, node)
}

func SnowFlake(ctx context.Context) *snowflake.Node {
	return ctx.Value(snowflakeKey{}).(*snowflake.Node)
}

func WithWSClient(ctx context.Context, client *ws.Client) context.Context {
	return context.WithValue(ctx, wsClientKey{}, client)
}

func WSClient(ctx context.Context) *ws.Client {
	return ctx.Value(wsClientKey{}).(*ws.Client)
}

func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startTimeKey{}, t)
}

func StartTime(ctx context.Context) time.Time {
	if t, ok := ctx.Value(startTimeKey{}).(time.Time); ok {
		return t
	}

	return time.Time{}
}
