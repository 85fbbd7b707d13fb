package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dailyledger/internal/importer"
	"dailyledger/internal/parser"
	"dailyledger/internal/workbook"
)

// ReportRequest 提交日报
type ReportRequest struct {
	Text        string `json:"text"`
	OnDuplicate string `json:"onDuplicate"` // abort / append，空则使用配置
	Source      string `json:"source"`
}

func (h *Handler) bindReport(c *gin.Context) (ReportRequest, workbook.DuplicatePolicy, bool) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return req, 0, false
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "日报内容为空"})
		return req, 0, false
	}
	policy := h.defaultPolicy
	if req.OnDuplicate != "" {
		p, err := workbook.ParseDuplicatePolicy(req.OnDuplicate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return req, 0, false
		}
		policy = p
	}
	return req, policy, true
}

// statusFor 导入结果对应的 HTTP 状态码
func statusFor(o *importer.Outcome) int {
	switch o.Kind {
	case importer.OutcomeSuccess:
		return http.StatusCreated
	case importer.OutcomeDuplicate:
		return http.StatusConflict
	case importer.OutcomeParseFailure, importer.OutcomeValidationFailure:
		return http.StatusUnprocessableEntity
	case importer.OutcomeStoreFailure:
		switch o.StoreError.Kind {
		case workbook.KindFileLocked:
			return http.StatusLocked
		case workbook.KindFileMissing:
			return http.StatusNotFound
		}
	}
	return http.StatusInternalServerError
}

// SubmitReport 导入日报
// POST /api/reports
func (h *Handler) SubmitReport(c *gin.Context) {
	req, policy, ok := h.bindReport(c)
	if !ok {
		return
	}

	outcome, err := h.pipeline.Ingest(req.Text, policy, importer.Source{Kind: "http", Name: req.Source})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(statusFor(outcome), newOutcomeResponse(outcome))
}

// PreviewReport 试运行，不写入
// POST /api/reports/preview
func (h *Handler) PreviewReport(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	res, err := h.pipeline.Preview(req.Text)
	if err != nil {
		var perr *parser.ParseError
		if errors.As(err, &perr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      perr.Error(),
				"parseError": parseErrorDTO{Kind: perr.Kind.String(), Line: perr.Line, Label: perr.Label, Message: perr.Error()},
			})
			return
		}
		c.JSON(storeStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newPreviewResponse(res))
}

// SubmitReportStream 导入日报 (SSE 流式响应)
// POST /api/reports/stream
func (h *Handler) SubmitReportStream(c *gin.Context) {
	req, policy, ok := h.bindReport(c)
	if !ok {
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "不支持流式响应"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	for event := range h.pipeline.IngestStream(req.Text, policy, importer.Source{Kind: "http", Name: req.Source}) {
		if outcome, ok := event.Data.(*importer.Outcome); ok {
			event.Data = newOutcomeResponse(outcome)
		}
		eventData, err := json.Marshal(event)
		if err != nil {
			continue
		}
		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// storeStatus 工作簿错误对应的状态码
func storeStatus(err error) int {
	switch {
	case errors.Is(err, workbook.ErrFileMissing):
		return http.StatusNotFound
	case errors.Is(err, workbook.ErrFileLocked):
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}
