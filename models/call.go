package models

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	// ErrCallNotFound 指定的通话不在活跃注册表中
	ErrCallNotFound = errors.New("通话不存在")
	// ErrCallState 通话当前状态不允许该操作
	ErrCallState = errors.New("通话状态错误")
)

// CallStatus 表示通话状态
type CallStatus string

const (
	CallStatusRinging CallStatus = "ringing"
	CallStatusActive  CallStatus = "active"
	CallStatusEnded   CallStatus = "ended"
)

// Call 表示一次模拟通话会话
type Call struct {
	CallID      string     // 通话唯一标识
	PhoneNumber string     // 对端号码
	Status      CallStatus // 状态: ringing, active, ended
	StartTime   time.Time  // 发起时间
	AnswerTime  time.Time  // 接通时间（零值表示未接通）
	EndTime     time.Time  // 结束时间
	Duration    int        // 通话时长（秒），挂断时计算
}

// callSeq 保证同一毫秒内并发创建的通话ID仍然可区分
var callSeq uint64

// NewCallID 生成基于时间的通话ID
func NewCallID() string {
	seq := atomic.AddUint64(&callSeq, 1)
	return fmt.Sprintf("%d-%d", time.Now().UnixMilli(), seq)
}

// CallManager 管理所有活跃通话
// 对外只返回锁内拷贝，调用方读到的快照不会被后续状态流转改写
type CallManager struct {
	calls map[string]*Call // 以callID为键的通话映射
	mu    sync.RWMutex     // 读写锁保护通话映射
}

// NewCallManager 创建一个新的通话管理器
func NewCallManager() *CallManager {
	return &CallManager{
		calls: make(map[string]*Call),
	}
}

// CreateCall 创建一个新的振铃中通话
func (m *CallManager) CreateCall(phoneNumber string) *Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := &Call{
		CallID:      NewCallID(),
		PhoneNumber: phoneNumber,
		Status:      CallStatusRinging,
		StartTime:   time.Now(),
	}
	m.calls[call.CallID] = call
	snapshot := *call
	return &snapshot
}

// FindRecentByNumber 查找同号码在指定时间窗口内创建的未结束通话
// 用于吸收客户端的重试请求，避免同一次拨号产生多个会话
func (m *CallManager) FindRecentByNumber(phoneNumber string, within time.Duration) *Call {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cutoff := time.Now().Add(-within)
	for _, call := range m.calls {
		if call.PhoneNumber == phoneNumber && call.Status != CallStatusEnded && call.StartTime.After(cutoff) {
			snapshot := *call
			return &snapshot
		}
	}
	return nil
}

// GetCall 获取指定通话
func (m *CallManager) GetCall(callID string) (*Call, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	call, exists := m.calls[callID]
	if !exists {
		return nil, false
	}
	snapshot := *call
	return &snapshot, true
}

// AnswerCall 将振铃中的通话转为接通状态
func (m *CallManager) AnswerCall(callID string) (*Call, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call, exists := m.calls[callID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCallNotFound, callID)
	}
	if call.Status != CallStatusRinging {
		return nil, fmt.Errorf("%w: %s", ErrCallState, call.Status)
	}

	call.Status = CallStatusActive
	call.AnswerTime = time.Now()
	snapshot := *call
	return &snapshot, nil
}

// EndCall 结束通话并从活跃集合中移除
// 时长从接通时间起算，未接通则从发起时间起算
func (m *CallManager) EndCall(callID string) (*Call, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call, exists := m.calls[callID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCallNotFound, callID)
	}

	call.Status = CallStatusEnded
	call.EndTime = time.Now()
	base := call.StartTime
	if !call.AnswerTime.IsZero() {
		base = call.AnswerTime
	}
	call.Duration = int(call.EndTime.Sub(base).Seconds())

	delete(m.calls, callID)
	snapshot := *call
	return &snapshot, nil
}

// ListActive 获取所有未结束通话的快照
func (m *CallManager) ListActive() []*Call {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make([]*Call, 0, len(m.calls))
	for _, call := range m.calls {
		snapshot := *call
		calls = append(calls, &snapshot)
	}
	return calls
}

// Count 返回活跃通话数量
func (m *CallManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

// Clear 清空所有活跃通话（清除历史时与记录一起清理）
func (m *CallManager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]*Call)
}
