package httpserver

const (
	ErrMissingToken = "missing bearer token"
	ErrBadToken     = "invalid bearer token"
	ErrDispatch     = "dispatch run failed"
)
