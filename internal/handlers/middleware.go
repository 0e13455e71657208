package handlers

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-checkout-orderflow/internal/apperr"
	"github.com/imrishuroy/go-checkout-orderflow/internal/auth"
	"github.com/imrishuroy/go-checkout-orderflow/internal/idempotency"
	"github.com/imrishuroy/go-checkout-orderflow/internal/logger"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	ReplayedHeader       = "Idempotent-Replayed"

	callerKey         = "caller"
	maxIdempotencyKey = 255
)

// authenticate requires a valid bearer token when auth is configured.
func (h *handler) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !h.cfg.Auth.Enabled() {
			c.Next()
			return
		}
		caller, err := h.cfg.Auth.ParseHeader(c.GetHeader("Authorization"))
		if err != nil {
			h.fail(c, apperr.Unauthorized(err.Error()))
			return
		}
		c.Set(callerKey, caller)
		c.Next()
	}
}

// authorizeUser allows the request when auth is off, the caller is an admin,
// or the caller is userID.
func authorizeUser(c *gin.Context, userID int64) error {
	v, exists := c.Get(callerKey)
	if !exists {
		return nil
	}
	if caller, _ := v.(auth.Caller); caller.CanActFor(userID) {
		return nil
	}
	return apperr.Forbidden("not allowed to act for this user")
}

// idempotent wraps a create operation with Idempotency-Key handling. Without
// the header (or without a store) op simply runs.
func (h *handler) idempotent(scope string, op func(c *gin.Context) (result, error)) gin.HandlerFunc {
	plain := h.run(op)
	return func(c *gin.Context) {
		scope := scope
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" || h.cfg.Idempotency == nil {
			plain(c)
			return
		}
		if len(key) > maxIdempotencyKey {
			h.fail(c, apperr.Validation("%s must be at most %d characters", IdempotencyKeyHeader, maxIdempotencyKey))
			return
		}

		raw, err := c.GetRawData()
		if err != nil {
			h.fail(c, apperr.Validation("invalid request body"))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(raw))
		sum := sha256.Sum256(raw)
		hash := hex.EncodeToString(sum[:])

		// Keys are namespaced per caller so one user's key never replays
		// another user's response.
		if v, exists := c.Get(callerKey); exists {
			if caller, ok := v.(auth.Caller); ok {
				scope += "#" + strconv.FormatInt(caller.UserID, 10)
			}
		}

		ctx := c.Request.Context()
		log := logger.For(c, h.log).With(zap.String("scope", scope), zap.String("idempotency_key", key))

		existing, claimed, err := h.cfg.Idempotency.Claim(ctx, scope, key, hash)
		if err != nil {
			h.fail(c, err)
			return
		}
		if !claimed {
			switch {
			case existing.RequestHash != hash:
				h.fail(c, apperr.Validation("%s was already used with a different request", IdempotencyKeyHeader))
			case existing.Status == idempotency.StatusDone:
				log.Info("replaying stored response", zap.String("resource_id", existing.ResourceID))
				c.Header(ReplayedHeader, "true")
				c.Data(existing.ResponseStatus, jsonContentType, replayBody(c, existing.ResponseBody))
			default:
				h.fail(c, apperr.Conflict("a request with this %s is still in progress", IdempotencyKeyHeader))
			}
			return
		}

		res, err := op(c)
		if err != nil {
			if markErr := h.cfg.Idempotency.MarkFailed(ctx, scope, key, err.Error()); markErr != nil {
				log.Warn("mark idempotency failed", zap.Error(markErr))
			}
			h.fail(c, err)
			return
		}
		body := h.write(c, res)
		if err := h.cfg.Idempotency.MarkDone(ctx, scope, key, res.resourceID, string(body), res.status); err != nil {
			log.Warn("mark idempotency done", zap.Error(err))
		}
	}
}

func pathID(c *gin.Context, name string) (int64, error) {
	return parseID(name, c.Param(name))
}

func parseID(name, raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.Validation("%s must be a positive integer", name)
	}
	return id, nil
}
