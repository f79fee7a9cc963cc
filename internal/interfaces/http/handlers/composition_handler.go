package handlers

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appcomp "github.com/turtacn/perovskite-json/internal/application/composition"
	"github.com/turtacn/perovskite-json/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/perovskite-json/internal/interfaces/http/middleware"
	"github.com/turtacn/perovskite-json/pkg/errors"
	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// CompositionHandler exposes the composition form over HTTP.
type CompositionHandler struct {
	svc    appcomp.Service
	logger logging.Logger
}

// NewCompositionHandler creates a CompositionHandler.
func NewCompositionHandler(svc appcomp.Service, logger logging.Logger) *CompositionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CompositionHandler{svc: svc, logger: logger.Named("handler")}
}

// RegisterRoutes mounts the composition endpoints on an /api/v1 group.
func (h *CompositionHandler) RegisterRoutes(r gin.IRoutes) {
	r.POST("/compositions", h.Create)
	r.GET("/ions/:site", h.ListIons)
	r.GET("/dimensionalities", h.Dimensionalities)
	r.GET("/schema", h.Schema)
}

// Create handles POST /compositions.  With ?dry_run=true the document is
// built and returned without being written.
func (h *CompositionHandler) Create(c *gin.Context) {
	var form appcomp.FormInput
	if err := c.ShouldBindJSON(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Code:    string(errors.ErrCodeBadRequest),
				Message: "request body too large",
			})
			return
		}
		writeBadRequest(c, err)
		return
	}

	req, dest, err := form.Clean()
	if err != nil {
		writeAppError(c, err)
		return
	}

	dryRun, _ := strconv.ParseBool(c.Query("dry_run"))
	if dryRun {
		res, err := h.svc.Render(c.Request.Context(), req)
		if err != nil {
			writeAppError(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}

	res, err := h.svc.Compose(c.Request.Context(), &appcomp.ComposeInput{Request: req, Destination: dest})
	if err != nil {
		h.logger.Warn("composition request failed",
			logging.String("request_id", middleware.GetRequestID(c)),
			logging.String("code", string(errors.GetCode(err))),
			logging.Err(err))
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// IonsResponse lists selectable ions of one site.
type IonsResponse struct {
	Site string   `json:"site"`
	Ions []string `json:"ions"`
}

// ListIons handles GET /ions/:site.
func (h *CompositionHandler) ListIons(c *gin.Context) {
	site, ok := ptypes.ParseSite(c.Param("site"))
	if !ok {
		writeAppError(c, errors.Newf(errors.ErrCodeInvalidSite, "unknown ion site %q", c.Param("site")))
		return
	}
	ions, err := h.svc.ListIons(c.Request.Context(), site)
	if err != nil {
		writeAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, IonsResponse{Site: string(site), Ions: ions})
}

// Dimensionalities handles GET /dimensionalities.
func (h *CompositionHandler) Dimensionalities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"dimensionalities": h.svc.Dimensionalities()})
}

// Schema handles GET /schema.
func (h *CompositionHandler) Schema(c *gin.Context) {
	c.Data(http.StatusOK, "application/schema+json", appcomp.DocumentSchema())
}
