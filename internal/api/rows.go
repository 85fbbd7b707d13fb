package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dailyledger/internal/model"
)

// ListRows 全部数据行；view=values 时返回计算后的合计
// GET /api/rows
func (h *Handler) ListRows(c *gin.Context) {
	if c.Query("view") == "values" {
		view, err := h.ledger.OpenValueView()
		if err != nil {
			c.JSON(storeStatus(err), gin.H{"error": err.Error()})
			return
		}
		defer view.Close()

		rows, err := view.Rows()
		if err != nil {
			c.JSON(storeStatus(err), gin.H{"error": err.Error()})
			return
		}
		items := make([]rowDTO, 0, len(rows))
		for _, r := range rows {
			items = append(items, newEvaluatedRowDTO(r))
		}
		c.JSON(http.StatusOK, gin.H{"view": "values", "items": items})
		return
	}

	rows, err := h.ledger.Rows()
	if err != nil {
		c.JSON(storeStatus(err), gin.H{"error": err.Error()})
		return
	}
	items := make([]rowDTO, 0, len(rows))
	for _, r := range rows {
		items = append(items, newRowDTO(r))
	}
	c.JSON(http.StatusOK, gin.H{"view": "formulas", "items": items})
}

// GetRowByDate 按日期查询第一行
// GET /api/rows/:date
func (h *Handler) GetRowByDate(c *gin.Context) {
	date, err := model.ParseDate(c.Param("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "日期格式应为 MM-DD"})
		return
	}

	row, found, err := h.ledger.FindByDate(date)
	if err != nil {
		c.JSON(storeStatus(err), gin.H{"error": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "该日期没有数据"})
		return
	}

	r, err := h.ledger.ReadRow(row)
	if err != nil {
		c.JSON(storeStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newRowDTO(r))
}
