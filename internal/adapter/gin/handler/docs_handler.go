package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	pkgerrors "user-registration-service/pkg/errors"
)

// DocsHandler serves the OpenAPI document.
type DocsHandler struct {
	doc        []byte
	production bool
	log        *zap.Logger
}

// NewDocsHandler creates a DocsHandler for a pre-rendered JSON document.
func NewDocsHandler(doc []byte, production bool, log *zap.Logger) *DocsHandler {
	return &DocsHandler{
		doc:        doc,
		production: production,
		log:        log,
	}
}

// Docs handles GET /api/docs. In production only local hosts may read it.
func (h *DocsHandler) Docs(c *gin.Context) {
	if h.production && !isLocalHost(c.Request.Host) {
		h.log.Debug("api docs denied", zap.String("host", c.Request.Host))
		c.String(pkgerrors.HTTPStatus(pkgerrors.ErrNotFound), pkgerrors.PublicMessage(pkgerrors.ErrNotFound))
		return
	}

	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET")
	c.Data(http.StatusOK, "application/json", h.doc)
}

func isLocalHost(host string) bool {
	return strings.Contains(host, "localhost") || strings.Contains(host, "127.0.0.1")
}
