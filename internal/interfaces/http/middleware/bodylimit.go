package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stockledger/backend/internal/interfaces/http/dto"
)

// DefaultBodyLimit bounds JSON request bodies. Catalog and adjustment
// payloads are a few hundred bytes.
const DefaultBodyLimit int64 = 1 << 20

// BodyLimit rejects requests whose declared length exceeds maxBytes with 413
// and caps the reader of the rest, so a body streamed without a length
// fails while binding.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abortTooLarge(c, maxBytes)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func abortTooLarge(c *gin.Context, limit int64) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeRequestTooLarge,
		fmt.Sprintf("Request body exceeds %d bytes", limit),
		GetRequestID(c),
	))
}

// tooLarge reports whether a binding error came from the BodyLimit reader.
func tooLarge(err error) (int64, bool) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return maxErr.Limit, true
	}
	return 0, false
}
