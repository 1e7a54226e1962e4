package middleware

import "context"

type contextKey struct{ name string }

var subjectKey = contextKey{"subject"}

// WithSubject returns a context with the authenticated subject set.
// Handlers downstream of the auth middleware can read it via GetSubject.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey, subject)
}

// GetSubject returns the subject from context and true if set; otherwise "", false.
func GetSubject(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(subjectKey).(string)
	return v, ok
}
