package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yoona333/TelephoneSystem/services"
	"github.com/yoona333/TelephoneSystem/services/container"
)

// InterfaceRecordController 定义通话记录控制器接口
type InterfaceRecordController interface {
	GetCallRecords()
	GetMergedCallRecords()
	SyncRecords()
	ClearHistory()
}

// RecordController 通话记录控制器实现
type RecordController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewRecordController 创建一个新的通话记录控制器
func NewRecordController(ctx *gin.Context, container *container.ServiceContainer) InterfaceRecordController {
	return &RecordController{
		Ctx:       ctx,
		Container: container,
	}
}

// SyncRecordsRequest 客户端记录同步请求
// 旧版客户端用 phoneRecords 字段上报，保持兼容
type SyncRecordsRequest struct {
	Records      []services.ClientRecord `json:"records"`
	PhoneRecords []services.ClientRecord `json:"phoneRecords"`
}

// HandleRecordFunc 返回一个处理记录请求的Gin处理函数
func HandleRecordFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewRecordController(ctx, container)

		switch method {
		case "getCallRecords":
			controller.GetCallRecords()
		case "getMergedCallRecords":
			controller.GetMergedCallRecords()
		case "syncRecords":
			controller.SyncRecords()
		case "clearHistory":
			controller.ClearHistory()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的方法"})
		}
	}
}

// GetCallRecords 获取完整通话记录日志
// @Summary      Get call records
// @Description  完整记录日志，新记录在前
// @Tags         Record
// @Produce      json
// @Success      200  {array}  models.CallRecord
// @Router       /call-records [get]
func (c *RecordController) GetCallRecords() {
	recordStore := c.Container.GetService("record_store").(services.InterfaceRecordStoreService)
	c.Ctx.JSON(http.StatusOK, recordStore.GetAll())
}

// GetMergedCallRecords 获取合并视图
// @Summary      Get merged call records
// @Description  每个号码只保留最新一条的去重视图
// @Tags         Record
// @Produce      json
// @Success      200  {object}  services.MergedRecordsPayload
// @Router       /merged-call-records [get]
func (c *RecordController) GetMergedCallRecords() {
	recordStore := c.Container.GetService("record_store").(services.InterfaceRecordStoreService)

	c.Ctx.JSON(http.StatusOK, services.MergedRecordsPayload{
		Records:  recordStore.GetMerged(),
		SyncTime: time.Now().UnixMilli(),
	})
}

// SyncRecords 合并客户端上报的记录批次
// @Summary      Sync client records
// @Description  合并客户端本地缓存的记录，返回去重后的完整记录集作为权威状态
// @Tags         Record
// @Accept       json
// @Produce      json
// @Param        request body SyncRecordsRequest true "客户端记录批次"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /sync-records [post]
func (c *RecordController) SyncRecords() {
	var req SyncRecordsRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误"})
		return
	}

	batch := req.Records
	if len(batch) == 0 {
		batch = req.PhoneRecords
	}

	syncService := c.Container.GetService("sync").(services.InterfaceSyncService)
	records := syncService.Reconcile(batch)

	c.Ctx.JSON(http.StatusOK, gin.H{
		"success":     true,
		"recordCount": len(records),
		"records":     records,
	})
}

// ClearHistory 清空记录日志和活跃通话
// @Summary      Clear history
// @Tags         Record
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /clear-history [post]
func (c *RecordController) ClearHistory() {
	callService := c.Container.GetService("call").(services.InterfaceCallService)
	recordStore := c.Container.GetService("record_store").(services.InterfaceRecordStoreService)

	callService.ClearActive()
	recordStore.Clear()

	c.Ctx.JSON(http.StatusOK, gin.H{"success": true})
}
