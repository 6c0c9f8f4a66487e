package http

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"yatube/internal/cache"
)

const (
	requestIDHeader = "X-Request-ID"
	logEntryKey     = "yatube.log"
)

// requestLogger logs one line per request tagged with a request id.
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Writer.Header().Set(requestIDHeader, requestID)

		entry := logger.WithField("request_id", requestID)
		c.Set(logEntryKey, entry)

		c.Next()

		status := c.Writer.Status()
		fields := entry.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": time.Since(start).String(),
		})
		switch {
		case status >= http.StatusInternalServerError:
			fields.Error("request")
		case status >= http.StatusBadRequest:
			fields.Warn("request")
		default:
			fields.Info("request")
		}
	}
}

func logEntry(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(logEntryKey); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// bodyWriter copies the response body so it can be cached.
type bodyWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// cachePage serves GET responses from store and stores successful ones.
// Entries only leave the cache by expiry or an explicit clear.
func cachePage(store cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		var viewer string
		if user := currentUser(c); user != nil {
			viewer = strconv.FormatInt(user.ID, 10)
		}
		key := cache.PageKey(viewer, c.Request.URL.RequestURI())
		ctx := c.Request.Context()

		body, ok, err := store.Get(ctx, key)
		if err != nil {
			logEntry(c).WithError(err).Warn("page cache read failed")
		}
		if ok {
			c.Data(http.StatusOK, htmlContentType, body)
			c.Abort()
			return
		}

		w := &bodyWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		if w.Status() != http.StatusOK {
			return
		}
		if err := store.Set(ctx, key, w.body.Bytes()); err != nil {
			logEntry(c).WithError(err).Warn("page cache write failed")
		}
	}
}
