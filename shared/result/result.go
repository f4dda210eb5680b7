package result

import (
	"github.com/changzer/choppy/shared/errcode"
	"github.com/gin-gonic/gin"
)

// Result is the envelope every endpoint answers with, on success and failure.
type Result struct {
	Code    int    `json:"code"`
	Data    any    `json:"data"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

func Ok(data any) Result {
	return Result{Code: errcode.Success.Code, Data: data, Message: errcode.Success.Msg}
}

func Fail(code int, message string) Result {
	return Result{Code: code, Message: message}
}

func FromCode(ec errcode.Code) Result {
	return Fail(ec.Code, ec.Msg)
}

// IsSuccess reports whether the envelope carries the success code.
func (r Result) IsSuccess() bool {
	return r.Code == errcode.Success.Code
}

// Write sends r with the given HTTP status, stamping the request path.
func Write(c *gin.Context, status int, r Result) {
	r.Path = c.Request.URL.RequestURI()
	c.JSON(status, r)
}

func Success(c *gin.Context, status int, data any) {
	Write(c, status, Ok(data))
}

// Abort writes r and stops the handler chain.
func Abort(c *gin.Context, ec errcode.Code) {
	Write(c, ec.Status, FromCode(ec))
	c.Abort()
}
