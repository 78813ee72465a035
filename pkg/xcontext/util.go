package xcontext

import "context"

type (
	requestUserIDKey struct{}
	responseKey      struct{}
	errorKey         struct{}
)

type responseHolder struct {
	value any
}

type errorHolder struct {
	value error
}

// SetError records the handler error into the context. The context must be
// prepared by WithHTTPRequest in advance, otherwise this is a no-op.
func SetError(ctx context.Context, err error) {
	if holder, ok := ctx.Value(errorKey{}).(*errorHolder); ok {
		holder.value = err
	}
}

// Error returns the error recorded by SetError, or nil.
func Error(ctx context.Context) error {
	if holder, ok := ctx.Value(errorKey{}).(*errorHolder); ok {
		return holder.value
	}

	return nil
}

// SetResponse records the handler response into the context. The context
// must be prepared by WithHTTPRequest in advance, otherwise this is a no-op.
func SetResponse(ctx context.Context, resp any) {
	if holder, ok := ctx.Value(responseKey{}).(*responseHolder); ok {
		holder.value = resp
	}
}

// GetResponse returns the response recorded by SetResponse, or nil.
func GetResponse(ctx context.Context) any {
	if holder, ok := ctx.Value(responseKey{}).(*responseHolder); ok {
		return holder.value
	}

	return nil
}

func WithRequestUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestUserIDKey{}, id)
}

// RequestUserID returns the id of the authenticated user, or an empty string
// if the request is anonymous.
func RequestUserID(ctx context.Context) string {
	if id, ok := ctx.Value(requestUserIDKey{}).(string); ok {
		return id
	}

	return ""
}
