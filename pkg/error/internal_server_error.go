package error

import "net/http"

type InternalServerErr string

func (err InternalServerErr) Error() string {
	return string(err)
}

func (err InternalServerErr) ErrCode() string {
	return "INTERNAL_SERVER_ERROR"
}

func (err InternalServerErr) StatusCode() int {
	return http.StatusInternalServerError
}
