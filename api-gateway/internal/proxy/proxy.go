// Package proxy forwards gateway requests to the backend services.
package proxy

import (
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/changzer/choppy/shared/errcode"
	"github.com/changzer/choppy/shared/middleware"
	"github.com/changzer/choppy/shared/result"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Headers that describe a single connection and must not be forwarded.
var hopHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate", "Proxy-Authorization",
	"Te", "Trailer", "Transfer-Encoding", "Upgrade",
}

// Forwarder relays requests to one backend base URL.
type Forwarder struct {
	client *http.Client
	logger *zap.Logger
}

func NewForwarder(client *http.Client, logger *zap.Logger) *Forwarder {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Forwarder{client: client, logger: logger}
}

// To returns a handler that replays the request against serviceURL with the
// same path and query.
func (f *Forwarder) To(serviceURL string) gin.HandlerFunc {
	serviceURL = strings.TrimSuffix(serviceURL, "/")
	return func(c *gin.Context) {
		targetURL := serviceURL + c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			targetURL += "?" + c.Request.URL.RawQuery
		}

		req, err := http.NewRequestWithContext(c.Request.Context(), c.Request.Method, targetURL, c.Request.Body)
		if err != nil {
			middleware.Fail(c, err)
			return
		}
		req.ContentLength = c.Request.ContentLength
		req.Header = c.Request.Header.Clone()
		for _, h := range hopHeaders {
			req.Header.Del(h)
		}
		req.Header.Set("X-Forwarded-For", c.ClientIP())
		req.Header.Set("X-Forwarded-Host", c.Request.Host)
		if userID, ok := middleware.GetUserID(c); ok {
			req.Header.Set("X-User-Id", strconv.FormatInt(userID, 10))
		}

		resp, err := f.client.Do(req)
		if err != nil {
			f.logger.Warn("upstream request failed",
				zap.String("target", serviceURL),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
			ec := errcode.BadGateway
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				ec = errcode.GatewayTimeout
			}
			result.Abort(c, ec)
			return
		}
		defer resp.Body.Close()

		for key, values := range resp.Header {
			c.Writer.Header()[key] = values
		}
		for _, h := range hopHeaders {
			c.Writer.Header().Del(h)
		}
		c.Status(resp.StatusCode)
		if _, err := io.Copy(c.Writer, resp.Body); err != nil {
			f.logger.Warn("failed to relay upstream response", zap.String("target", serviceURL), zap.Error(err))
		}
	}
}
