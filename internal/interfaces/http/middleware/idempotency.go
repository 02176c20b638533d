package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yunmao/backend/internal/domain/shared"
	"github.com/yunmao/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// HeaderIdempotencyReplayed is set on responses rejected as a repeat
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

const maxIdempotencyKeyLength = 255

// IdempotencyConfig holds configuration for the Idempotency-Key middleware
type IdempotencyConfig struct {
	Store  shared.IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

// Idempotency guards POST requests that carry an Idempotency-Key header.
//
// The first request with a key claims it for TTL. A repeat of the same
// request (same method, path and body) is answered 409 without reaching the
// handler. Reusing the key for a different request is answered 422. A claim
// is released when the handler fails with 5xx so the client can retry.
// Requests without the header pass through untouched.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	if cfg.Store == nil {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.TTL <= 0 {
		cfg.TTL = shared.DefaultIdempotencyConfig().TTL
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if c.Request.Method != http.MethodPost || key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			abortIdempotency(c, http.StatusBadRequest, dto.ErrCodeBadRequest,
				"Idempotency-Key must be at most 255 characters")
			return
		}

		fingerprint, err := requestFingerprint(c)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				abortIdempotency(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
					"Request body exceeds maximum allowed size")
				return
			}
			abortIdempotency(c, http.StatusBadRequest, dto.ErrCodeBadRequest, "Request body could not be read")
			return
		}

		ctx := c.Request.Context()
		scope := "idem:" + GetTenantUUID(c).String() + ":" + key
		requestKey := scope + ":" + fingerprint

		fresh, err := cfg.Store.MarkProcessed(ctx, requestKey, cfg.TTL)
		if err != nil {
			// The store is an optimisation over at-least-once clients; keep serving.
			log.Warn("Idempotency store unavailable", zap.String("idempotency_key", key), zap.Error(err))
			c.Next()
			return
		}
		if !fresh {
			c.Header(HeaderIdempotencyReplayed, "true")
			abortIdempotency(c, http.StatusConflict, dto.ErrCodeIdempotencyInFlight,
				"A request with this Idempotency-Key is in progress or already completed")
			return
		}

		owned, err := cfg.Store.MarkProcessed(ctx, scope, cfg.TTL)
		if err != nil {
			log.Warn("Idempotency store unavailable", zap.String("idempotency_key", key), zap.Error(err))
			owned = true
		}
		if !owned {
			_ = cfg.Store.Release(ctx, requestKey)
			abortIdempotency(c, http.StatusUnprocessableEntity, dto.ErrCodeIdempotencyMismatch,
				"Idempotency-Key was already used for a different request")
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			for _, k := range []string{requestKey, scope} {
				if err := cfg.Store.Release(ctx, k); err != nil {
					log.Warn("Failed to release idempotency key", zap.String("idempotency_key", key), zap.Error(err))
				}
			}
		}
	}
}

// requestFingerprint hashes method, route path and body. The body is
// restored for the handler.
func requestFingerprint(c *gin.Context) (string, error) {
	var body []byte
	if c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(c.Request.Body)
		if err != nil {
			return "", err
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	h := sha256.New()
	h.Write([]byte(c.Request.Method))
	h.Write([]byte{0})
	h.Write([]byte(c.Request.URL.Path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil)), nil
}

func abortIdempotency(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
