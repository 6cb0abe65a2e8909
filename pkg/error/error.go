package error

// GenericError is implemented by all typed errors in this package so the
// recovery middleware can map them to an HTTP status and a stable code.
type GenericError interface {
	error
	ErrCode() string
	StatusCode() int
}

func ValidationError(message string) ValidationErr {
	return ValidationErr(message)
}

func InternalServerError(message string) InternalServerErr {
	return InternalServerErr(message)
}

func UnauthorizedError(message string) UnauthorizedErr {
	return UnauthorizedErr(message)
}

func ForwardError(message string) ForwardErr {
	return ForwardErr(message)
}
