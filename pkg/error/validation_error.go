package error

import "net/http"

type ValidationErr string

func (err ValidationErr) Error() string {
	return string(err)
}

func (err ValidationErr) ErrCode() string {
	return "VALIDATION_ERROR"
}

func (err ValidationErr) StatusCode() int {
	return http.StatusBadRequest
}
