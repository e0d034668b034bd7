package services

import (
	"sync"
	"time"

	"github.com/yoona333/TelephoneSystem/config"
)

// 推送事件类型
const (
	EventCallStatus     = "call_status"
	EventRecordUpdate   = "call_record_update"
	EventMergedRecords  = "merged_records_update"
	EventRecordsUpdated = "records_updated"
	EventRecordsCleared = "records_cleared"
	EventWelcome        = "welcome"
)

const (
	// 相同 (callId, status) 事件在此窗口内只发送一次
	eventDedupWindow = 3 * time.Second
	// 去重键的保留时间，到期自动清理
	eventKeyTTL = 5 * time.Second
	// 每个订阅者的事件缓冲区大小
	subscriberBuffer = 64
)

// Event 统一的推送事件信封
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp int64       `json:"timestamp"`
}

// CallStatusPayload call_status 事件负载
// Command 是给客户端的动作判别字段: ring / answer / hangup
type CallStatusPayload struct {
	CallID      string `json:"callId"`
	PhoneNumber string `json:"phoneNumber"`
	Status      string `json:"status"`
	Command     string `json:"command"`
	Duration    int    `json:"duration,omitempty"`
}

// InterfaceBroadcastService 定义广播服务接口
type InterfaceBroadcastService interface {
	Subscribe(handler func(Event)) int
	Unsubscribe(token int)
	Emit(eventType string, payload interface{})
}

// BroadcastService 把事件扇出给所有订阅者，并对短时间内的重复事件做抑制
// HTTP处理器和内部状态流转可能各自触发同一逻辑事件，不抑制会导致客户端闪烁
type BroadcastService struct {
	mu          sync.RWMutex
	subscribers map[int]chan Event
	nextToken   int

	dedupMu    sync.Mutex
	recentKeys map[string]time.Time
}

// NewBroadcastService 创建一个新的广播服务
func NewBroadcastService() InterfaceBroadcastService {
	return &BroadcastService{
		subscribers: make(map[int]chan Event),
		recentKeys:  make(map[string]time.Time),
	}
}

// Subscribe 注册事件处理函数，返回用于退订的令牌
// 每个订阅者独享一条带缓冲的通道，保证事件按发出顺序送达且互不阻塞
func (s *BroadcastService) Subscribe(handler func(Event)) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextToken++
	token := s.nextToken
	ch := make(chan Event, subscriberBuffer)
	s.subscribers[token] = ch

	go func() {
		for evt := range ch {
			handler(evt)
		}
	}()

	return token
}

// Unsubscribe 移除订阅者
func (s *BroadcastService) Unsubscribe(token int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ch, ok := s.subscribers[token]; ok {
		close(ch)
		delete(s.subscribers, token)
	}
}

// Emit 广播事件；带 callId+status 的事件在去重窗口内重复时被丢弃
func (s *BroadcastService) Emit(eventType string, payload interface{}) {
	if key := dedupKey(payload); key != "" {
		if s.suppressed(key) {
			config.Info("[Broadcast] 忽略重复事件: %s", key)
			return
		}
	}

	evt := Event{
		Type:      eventType,
		Data:      payload,
		Timestamp: time.Now().UnixMilli(),
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for token, ch := range s.subscribers {
		select {
		case ch <- evt:
		default:
			// 订阅者积压过多时丢弃，推送通道不保证必达，客户端靠重拉兜底
			config.Warning("[Broadcast] 订阅者 %d 缓冲已满，丢弃事件 %s", token, eventType)
		}
	}
}

// suppressed 检查并登记去重键，键在eventKeyTTL后自动过期
func (s *BroadcastService) suppressed(key string) bool {
	s.dedupMu.Lock()
	defer s.dedupMu.Unlock()

	if emittedAt, ok := s.recentKeys[key]; ok && time.Since(emittedAt) < eventDedupWindow {
		return true
	}
	s.recentKeys[key] = time.Now()

	time.AfterFunc(eventKeyTTL, func() {
		s.dedupMu.Lock()
		defer s.dedupMu.Unlock()
		if emittedAt, ok := s.recentKeys[key]; ok && time.Since(emittedAt) >= eventKeyTTL {
			delete(s.recentKeys, key)
		}
	})
	return false
}

// dedupKey 从负载提取 (callId, status) 去重键，非通话状态类负载返回空串
func dedupKey(payload interface{}) string {
	switch p := payload.(type) {
	case CallStatusPayload:
		return p.CallID + "|" + p.Status
	case *CallStatusPayload:
		return p.CallID + "|" + p.Status
	default:
		return ""
	}
}
