package middleware

import (
	"net/http"

	"github.com/changzer/choppy/shared/errcode"
	"github.com/changzer/choppy/shared/exception"
	"github.com/changzer/choppy/shared/result"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Fail records err on the context and stops the chain. ErrorHandler writes
// the response.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// WriteError translates err and answers with the failure envelope.
func WriteError(c *gin.Context, logger *zap.Logger, err error) {
	t := exception.Translate(err)
	logger.Warn(t.Kind,
		zap.Error(err),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int("code", t.Code),
	)
	result.Write(c, t.Status, result.Fail(t.Code, t.Message))
}

// ErrorHandler converts the last error a handler attached with c.Error into
// the envelope. Handlers that already wrote a response are left alone.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		WriteError(c, logger, c.Errors.Last().Err)
	}
}

func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return ginzap.CustomRecoveryWithZap(logger, true, func(c *gin.Context, rec any) {
		WriteError(c, logger, exception.FromPanic(rec))
		c.Abort()
	})
}

func NoRoute(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		WriteError(c, logger, exception.NewBiz(errcode.NotFound, ""))
	}
}

func NoMethod(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		WriteError(c, logger, exception.ErrMethodNotAllowed)
	}
}

// RequireJSON rejects bodies that are not application/json.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}
		if c.ContentType() != gin.MIMEJSON {
			Fail(c, &exception.MediaTypeError{ContentType: c.ContentType()})
			return
		}
		c.Next()
	}
}
