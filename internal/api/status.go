package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"dailyledger/internal/store"
	"dailyledger/internal/workbook"
)

// StatusResponse 系统状态
type StatusResponse struct {
	Initialized   bool              `json:"initialized"` // 工作簿存在且结构正确
	Workbook      string            `json:"workbook"`
	Sheet         string            `json:"sheet"`
	NextRow       int               `json:"nextRow,omitempty"`
	LastDate      string            `json:"lastDate,omitempty"`
	LastRow       int               `json:"lastRow,omitempty"`
	Months        []store.MonthStat `json:"months"`
	WorkbookError string            `json:"workbookError,omitempty"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{
		Workbook: h.ledger.Path(),
		Sheet:    h.ledger.Sheet(),
		Months:   []store.MonthStat{},
	}

	next, err := h.ledger.NextRow()
	switch {
	case err == nil:
		resp.Initialized = true
		resp.NextRow = int(next)
	case errors.Is(err, workbook.ErrFileMissing), errors.Is(err, workbook.ErrCorruptWorkbook):
		resp.WorkbookError = err.Error()
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if date, row, ok, err := h.journal.LastSuccess(); err == nil && ok {
		resp.LastDate = date
		resp.LastRow = row
	}
	if months, err := h.journal.ListMonthStats(); err == nil {
		resp.Months = months
	}
	c.JSON(http.StatusOK, resp)
}
