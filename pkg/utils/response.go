package utils

type ResponseData struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Results any    `json:"results,omitempty"`
}

// PanicIfNeeded panics with the given error so the recovery middleware can
// translate it into the proper HTTP response. Only used on admin routes;
// the webhook route never panics by contract.
func PanicIfNeeded(err error) {
	if err != nil {
		panic(err)
	}
}
