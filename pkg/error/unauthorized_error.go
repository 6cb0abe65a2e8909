package error

import "net/http"

type UnauthorizedErr string

func (err UnauthorizedErr) Error() string {
	return string(err)
}

func (err UnauthorizedErr) ErrCode() string {
	return "UNAUTHORIZED_ERROR"
}

func (err UnauthorizedErr) StatusCode() int {
	return http.StatusUnauthorized
}
