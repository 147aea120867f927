package middleware

type ctxKey string

const (
	ctxKeyUser    ctxKey = "user"
	ctxKeySession ctxKey = "session"
)
