package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yoona333/TelephoneSystem/models"
	"github.com/yoona333/TelephoneSystem/services"
	"github.com/yoona333/TelephoneSystem/services/container"
)

// InterfaceCallController 定义通话控制器接口
type InterfaceCallController interface {
	GetStatus()
	GetCalls()
	StartCall()
	Answer()
	Hangup()
}

// CallController 通话控制器实现
type CallController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewCallController 创建一个新的通话控制器
func NewCallController(ctx *gin.Context, container *container.ServiceContainer) InterfaceCallController {
	return &CallController{
		Ctx:       ctx,
		Container: container,
	}
}

// 请求结构体定义
type (
	// StartCallRequest 发起通话请求
	StartCallRequest struct {
		PhoneNumber string `json:"phoneNumber" binding:"required"`
	}

	// CallActionRequest 接听/挂断请求
	CallActionRequest struct {
		CallID     string `json:"callId" binding:"required"`
		UpdateOnly bool   `json:"updateOnly"` // 为真时记录只原地更新，不追加新行
	}
)

// HandleCallFunc 返回一个处理通话请求的Gin处理函数
func HandleCallFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewCallController(ctx, container)

		switch method {
		case "getStatus":
			controller.GetStatus()
		case "getCalls":
			controller.GetCalls()
		case "startCall":
			controller.StartCall()
		case "answer":
			controller.Answer()
		case "hangup":
			controller.Hangup()
		default:
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "无效的方法"})
		}
	}
}

// GetStatus 服务器状态
// @Summary      Server status
// @Description  运行状态、在线连接数和活跃通话数，供客户端探活
// @Tags         Call
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /status [get]
func (c *CallController) GetStatus() {
	wsService := c.Container.GetService("ws").(*services.WebSocketService)
	callService := c.Container.GetService("call").(services.InterfaceCallService)

	c.Ctx.JSON(http.StatusOK, gin.H{
		"status":      "running",
		"uptime":      int64(time.Since(c.Container.StartTime()).Seconds()),
		"serverTime":  time.Now().UnixMilli(),
		"connections": wsService.Count(),
		"activeCalls": callService.ActiveCount(),
	})
}

// GetCalls 活跃通话列表
// @Summary      List active calls
// @Tags         Call
// @Produce      json
// @Success      200  {array}  map[string]interface{}
// @Router       /calls [get]
func (c *CallController) GetCalls() {
	callService := c.Container.GetService("call").(services.InterfaceCallService)

	calls := callService.ListActive()
	out := make([]gin.H, 0, len(calls))
	for _, call := range calls {
		var answerTime int64
		elapsed := 0
		if !call.AnswerTime.IsZero() {
			answerTime = call.AnswerTime.UnixMilli()
			elapsed = int(time.Since(call.AnswerTime).Seconds())
		}
		out = append(out, gin.H{
			"callId":      call.CallID,
			"phoneNumber": call.PhoneNumber,
			"status":      call.Status,
			"startTime":   call.StartTime.UnixMilli(),
			"answerTime":  answerTime,
			"duration":    elapsed,
			"isActive":    call.Status == models.CallStatusActive,
		})
	}

	c.Ctx.JSON(http.StatusOK, out)
}

// StartCall 发起通话
// @Summary      Start a call
// @Tags         Call
// @Accept       json
// @Produce      json
// @Param        request body StartCallRequest true "呼叫号码"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Router       /call [post]
func (c *CallController) StartCall() {
	var req StartCallRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少电话号码"})
		return
	}

	callService := c.Container.GetService("call").(services.InterfaceCallService)
	call, _, err := callService.StartCall(req.PhoneNumber)
	if err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{"callId": call.CallID})
}

// Answer 接听通话
// @Summary      Answer a ringing call
// @Tags         Call
// @Accept       json
// @Produce      json
// @Param        request body CallActionRequest true "通话ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]interface{}
// @Router       /answer [post]
func (c *CallController) Answer() {
	var req CallActionRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少通话ID"})
		return
	}

	callService := c.Container.GetService("call").(services.InterfaceCallService)
	if err := callService.Answer(req.CallID, req.UpdateOnly); err != nil {
		if errors.Is(err, models.ErrCallNotFound) {
			c.Ctx.JSON(http.StatusNotFound, gin.H{"error": "通话不存在"})
			return
		}
		c.Ctx.JSON(http.StatusBadRequest, gin.H{"error": "通话状态错误"})
		return
	}

	c.Ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// Hangup 挂断通话
// 对未知callId保持宽容，丢失挂断会让通话永远卡住，宁可多成功
// @Summary      Hang up a call
// @Tags         Call
// @Accept       json
// @Produce      json
// @Param        request body CallActionRequest true "通话ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /hangup [post]
func (c *CallController) Hangup() {
	var req CallActionRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		c.Ctx.JSON(http.StatusBadRequest, gin.H{"error": "缺少通话ID"})
		return
	}

	callService := c.Container.GetService("call").(services.InterfaceCallService)
	callService.Hangup(req.CallID, req.UpdateOnly)

	c.Ctx.JSON(http.StatusOK, gin.H{"success": true})
}
