package services

import (
	"errors"
	"time"

	"github.com/yoona333/TelephoneSystem/config"
	"github.com/yoona333/TelephoneSystem/models"
)

// 同号码在此窗口内的重复拨号请求复用已有通话
const startRetryWindow = 5 * time.Second

// InterfaceCallService 定义通话生命周期服务接口
type InterfaceCallService interface {
	StartCall(phoneNumber string) (*models.Call, bool, error)
	Answer(callID string, updateOnly bool) error
	Hangup(callID string, updateOnly bool)
	ListActive() []*models.Call
	ActiveCount() int
	ClearActive()
}

// CallService 编排通话注册表、记录存储和广播
type CallService struct {
	Manager     *models.CallManager
	Records     InterfaceRecordStoreService
	Broadcaster InterfaceBroadcastService
}

// NewCallService 创建通话服务
func NewCallService(records InterfaceRecordStoreService, broadcaster InterfaceBroadcastService) InterfaceCallService {
	return &CallService{
		Manager:     models.NewCallManager(),
		Records:     records,
		Broadcaster: broadcaster,
	}
}

// StartCall 发起通话
// 5秒内同号码的未结束通话直接复用（客户端重试保护），此时不追加记录也不重复广播
func (s *CallService) StartCall(phoneNumber string) (*models.Call, bool, error) {
	if phoneNumber == "" {
		return nil, false, errors.New("缺少电话号码")
	}

	if existing := s.Manager.FindRecentByNumber(phoneNumber, startRetryWindow); existing != nil {
		config.Info("[Call] 复用已有通话: %s 号码=%s", existing.CallID, phoneNumber)
		return existing, false, nil
	}

	call := s.Manager.CreateCall(phoneNumber)
	config.Info("[Call] 发起通话: %s 号码=%s", call.CallID, phoneNumber)

	s.Records.AddOrUpdate(call.CallID, phoneNumber, models.RecordStatusInitiated, 0, false)
	s.Broadcaster.Emit(EventCallStatus, CallStatusPayload{
		CallID:      call.CallID,
		PhoneNumber: phoneNumber,
		Status:      string(models.CallStatusRinging),
		Command:     "ring",
	})

	return call, true, nil
}

// Answer 接听通话
// 记录优先原地更新最近的已发起记录；没有可更新的记录且调用方未强制
// updateOnly 时才追加新记录，避免重试接听产生重复行
func (s *CallService) Answer(callID string, updateOnly bool) error {
	call, err := s.Manager.AnswerCall(callID)
	if err != nil {
		return err
	}
	config.Info("[Call] 接听通话: %s", callID)

	if rec := s.Records.AddOrUpdate(callID, call.PhoneNumber, models.RecordStatusAnswered, 0, true); rec == nil && !updateOnly {
		s.Records.AddOrUpdate(callID, call.PhoneNumber, models.RecordStatusAnswered, 0, false)
	}

	s.Broadcaster.Emit(EventCallStatus, CallStatusPayload{
		CallID:      callID,
		PhoneNumber: call.PhoneNumber,
		Status:      string(models.CallStatusActive),
		Command:     "answer",
	})
	return nil
}

// Hangup 挂断通话，始终成功
// 注册表中找不到时退回历史记录，保证客户端总能收到挂断广播；
// 丢失挂断信号会让通话永远卡在接通状态，宁可过度容错也要干净终止
func (s *CallService) Hangup(callID string, updateOnly bool) {
	payload := CallStatusPayload{
		CallID:  callID,
		Status:  string(models.CallStatusEnded),
		Command: "hangup",
	}

	call, err := s.Manager.EndCall(callID)
	if err == nil {
		payload.PhoneNumber = call.PhoneNumber
		payload.Duration = call.Duration
		config.Info("[Call] 挂断通话: %s 时长=%d秒", callID, call.Duration)
		s.Records.AddOrUpdate(callID, call.PhoneNumber, models.RecordStatusEnded, call.Duration, updateOnly)
	} else if rec := s.Records.FindByCallID(callID); rec != nil {
		payload.PhoneNumber = rec.PhoneNumber
		payload.Duration = rec.Duration
		config.Warning("[Call] 挂断未注册的通话 %s，按历史记录回退", callID)
		s.Records.AddOrUpdate(callID, rec.PhoneNumber, models.RecordStatusEnded, rec.Duration, updateOnly)
	} else {
		config.Warning("[Call] 挂断未知通话 %s，仅广播", callID)
	}

	s.Broadcaster.Emit(EventCallStatus, payload)
}

// ListActive 返回所有未结束通话的快照
func (s *CallService) ListActive() []*models.Call {
	return s.Manager.ListActive()
}

// ActiveCount 返回活跃通话数量
func (s *CallService) ActiveCount() int {
	return s.Manager.Count()
}

// ClearActive 清空活跃通话（随记录一起清除）
func (s *CallService) ClearActive() {
	s.Manager.Clear()
}
