package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dailyledger/internal/store"
)

// ListIngestions 最近的导入记录
// GET /api/ingestions?limit=50
func (h *Handler) ListIngestions(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 500 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit 取值范围 1-500"})
		return
	}

	items, err := h.journal.ListIngestions(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// GetIngestion 单次导入记录
// GET /api/ingestions/:id
func (h *Handler) GetIngestion(c *gin.Context) {
	it, err := h.journal.GetIngestion(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "记录不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, it)
}

// ListBackups 工作簿的备份文件（新的在前）
// GET /api/backups
func (h *Handler) ListBackups(c *gin.Context) {
	items, err := h.backups.List(h.ledger.Path())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if items == nil {
		items = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
