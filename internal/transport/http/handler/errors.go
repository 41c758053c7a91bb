package handler

const (
	errInternalServer = "Internal server error"
	errMalformedToken = "Token is malformed"
	errTokenNotFound  = "Token not found"
	errUnauthorized   = "Unauthorized"
)
