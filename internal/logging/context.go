package logging

import "context"

const requestIDField = "request_id"

type requestIDKey struct{}

// WithRequestID кладет идентификатор запроса в контекст; Handler добавляет его в каждую запись.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID возвращает идентификатор запроса или пустую строку.
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
