package api

import (
	"github.com/gin-gonic/gin"

	"dailyledger/internal/backup"
	"dailyledger/internal/importer"
	"dailyledger/internal/store"
	"dailyledger/internal/workbook"
)

// Handler API 处理器
type Handler struct {
	pipeline      *importer.Pipeline
	ledger        *workbook.Store
	journal       *store.Store
	backups       *backup.Manager
	defaultPolicy workbook.DuplicatePolicy
}

// NewHandler 创建 API 处理器；defaultPolicy 用于请求未指定 onDuplicate 的情况
func NewHandler(pipeline *importer.Pipeline, ledger *workbook.Store, journal *store.Store, backups *backup.Manager, defaultPolicy workbook.DuplicatePolicy) *Handler {
	if !defaultPolicy.Valid() {
		defaultPolicy = workbook.DuplicateAbort
	}
	return &Handler{
		pipeline:      pipeline,
		ledger:        ledger,
		journal:       journal,
		backups:       backups,
		defaultPolicy: defaultPolicy,
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 日报导入
	router.POST("/reports", h.SubmitReport)
	router.POST("/reports/preview", h.PreviewReport)
	router.POST("/reports/stream", h.SubmitReportStream)

	// 工作簿查询
	router.GET("/rows", h.ListRows)
	router.GET("/rows/:date", h.GetRowByDate)

	// 导入记录与备份
	router.GET("/ingestions", h.ListIngestions)
	router.GET("/ingestions/:id", h.GetIngestion)
	router.GET("/backups", h.ListBackups)
}
