package error

import "net/http"

// ForwardErr covers failures delivering a normalized message to the internal
// ingestion endpoint. It never surfaces as an HTTP status on the webhook
// route; the status code only matters for admin routes reusing the type.
type ForwardErr string

func (err ForwardErr) Error() string {
	return string(err)
}

func (err ForwardErr) ErrCode() string {
	return "FORWARD_ERROR"
}

func (err ForwardErr) StatusCode() int {
	return http.StatusBadGateway
}
