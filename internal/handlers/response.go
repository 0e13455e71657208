package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/go-checkout-orderflow/internal/apperr"
	"github.com/imrishuroy/go-checkout-orderflow/internal/logger"
	"github.com/imrishuroy/go-checkout-orderflow/internal/validation"
)

const jsonContentType = "application/json; charset=utf-8"

// Envelope is the body of every response.
type Envelope struct {
	Status string                 `json:"status"`
	Data   interface{}            `json:"data"`
	Error  *ErrorBody             `json:"error"`
	Meta   map[string]interface{} `json:"meta"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// result is what an operation hands back for rendering.
type result struct {
	status     int
	data       interface{}
	meta       map[string]interface{}
	resourceID string
}

type handler struct {
	cfg HandlerConfig
	v   *validatorv10.Validate
	log *zap.Logger
}

func newHandler(cfg HandlerConfig) *handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &handler{cfg: cfg, v: validation.New(), log: log}
}

func meta(c *gin.Context, extra map[string]interface{}) map[string]interface{} {
	m := map[string]interface{}{}
	if rid := c.GetString(logger.RequestIDKey); rid != "" {
		m["request_id"] = rid
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

// write renders a success envelope and returns the exact bytes sent.
func (h *handler) write(c *gin.Context, res result) []byte {
	body, err := json.Marshal(Envelope{Status: "success", Data: res.data, Meta: meta(c, res.meta)})
	if err != nil {
		h.fail(c, err)
		return nil
	}
	c.Data(res.status, jsonContentType, body)
	return body
}

// replayBody returns a stored envelope with its meta rebuilt for the current
// request. A body that does not parse is returned as stored.
func replayBody(c *gin.Context, stored string) []byte {
	var env struct {
		Status string                 `json:"status"`
		Data   json.RawMessage        `json:"data"`
		Error  *ErrorBody             `json:"error"`
		Meta   map[string]interface{} `json:"meta"`
	}
	if err := json.Unmarshal([]byte(stored), &env); err != nil {
		return []byte(stored)
	}
	delete(env.Meta, "request_id")
	body, err := json.Marshal(Envelope{Status: env.Status, Data: env.Data, Error: env.Error, Meta: meta(c, env.Meta)})
	if err != nil {
		return []byte(stored)
	}
	return body
}

func (h *handler) fail(c *gin.Context, err error) {
	h.failWithStatus(c, apperr.HTTPStatus(err), err)
}

// failWithStatus renders err with an explicit status. Internal detail is
// logged; only the public message reaches the client.
func (h *handler) failWithStatus(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	kind := apperr.KindOf(err)
	if kind == apperr.KindPersistence || kind == apperr.KindInternal {
		logger.For(c, h.log).Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("code", string(kind)),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(status, Envelope{
		Status: "error",
		Error:  &ErrorBody{Code: string(kind), Message: apperr.PublicMessage(err)},
		Meta:   meta(c, nil),
	})
}

// run executes op without idempotency handling.
func (h *handler) run(op func(c *gin.Context) (result, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := op(c)
		if err != nil {
			h.fail(c, err)
			return
		}
		h.write(c, res)
	}
}

func created(data interface{}, resourceID string) result {
	return result{status: http.StatusCreated, data: data, resourceID: resourceID}
}

func ok(data interface{}) result {
	return result{status: http.StatusOK, data: data}
}

func list(data interface{}, n int) result {
	return result{status: http.StatusOK, data: data, meta: map[string]interface{}{"count": n}}
}
