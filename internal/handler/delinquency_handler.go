package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-finance-api/internal/dto"
	"github.com/noah-isme/sma-finance-api/internal/middleware"
	"github.com/noah-isme/sma-finance-api/pkg/response"
)

type delinquencyService interface {
	ListDelinquents(ctx context.Context) ([]dto.DelinquentStudent, error)
	ExportDelinquentsCSV(ctx context.Context) ([]byte, error)
}

// DelinquencyHandler lists students with overdue tuition.
type DelinquencyHandler struct {
	service delinquencyService
}

// NewDelinquencyHandler constructs DelinquencyHandler.
func NewDelinquencyHandler(service delinquencyService) *DelinquencyHandler {
	return &DelinquencyHandler{service: service}
}

// List godoc
// @Summary List delinquent students
// @Tags Delinquency
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /delinquents [get]
func (h *DelinquencyHandler) List(c *gin.Context) {
	students, err := h.service.ListDelinquents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, "total", len(students))
	response.JSON(c, http.StatusOK, students, nil, middleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export delinquent students as CSV
// @Tags Delinquency
// @Produce text/csv
// @Success 200 {file} file
// @Router /delinquents/export [get]
func (h *DelinquencyHandler) Export(c *gin.Context) {
	body, err := h.service.ExportDelinquentsCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("delinquents-%s.csv", time.Now().UTC().Format(dateLayout))
	response.Attachment(c, filename, "text/csv; charset=utf-8", body)
}
