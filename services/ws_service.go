package services

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yoona333/TelephoneSystem/config"
)

const (
	// 读超时放得很宽，宿主可能休眠或高延迟，丢几次心跳不断连
	wsReadDeadline = 180 * time.Second
	// 写超时防止单个慢客户端阻塞广播
	wsWriteTimeout = 10 * time.Second
	// 服务端心跳间隔
	wsPingInterval = 30 * time.Second
	// 单条入站消息上限 4KB，客户端只会发心跳应答
	wsReadLimit = int64(4 << 10)
)

// wsConnection 单个推送通道连接
type wsConnection struct {
	ID      string
	conn    *websocket.Conn
	writeMu sync.Mutex // 串行化该连接上的并发写
	done    chan struct{}
}

func (c *wsConnection) writeJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteJSON(v)
}

// clientMessage 客户端入站消息，目前只有心跳应答
type clientMessage struct {
	Type string `json:"type"`
}

// WebSocketService 管理推送通道连接并把广播事件转发给所有客户端
type WebSocketService struct {
	mu       sync.RWMutex
	conns    map[string]*wsConnection
	upgrader websocket.Upgrader
}

// NewWebSocketService 创建连接管理服务并订阅广播事件
func NewWebSocketService(broadcaster InterfaceBroadcastService) *WebSocketService {
	s := &WebSocketService{
		conns: make(map[string]*wsConnection),
		upgrader: websocket.Upgrader{
			// 演示服务，不校验 Origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	broadcaster.Subscribe(s.broadcast)
	return s
}

// HandleConnection 提供给 Gin 的握手路由函数
func (s *WebSocketService) HandleConnection(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		config.Error("[WS] 升级WebSocket失败: %v", err)
		return
	}

	wc := &wsConnection{
		ID:   uuid.New().String(),
		conn: conn,
		done: make(chan struct{}),
	}

	s.mu.Lock()
	s.conns[wc.ID] = wc
	s.mu.Unlock()
	config.Info("[WS] 客户端已连接: %s，当前在线: %d", wc.ID, s.Count())

	// 欢迎消息带上连接ID和服务器时间，客户端据此校准本地时钟
	welcome := Event{
		Type: EventWelcome,
		Data: map[string]interface{}{
			"connectionId": wc.ID,
			"serverTime":   time.Now().UnixMilli(),
		},
		Timestamp: time.Now().UnixMilli(),
	}
	if err := wc.writeJSON(welcome); err != nil {
		config.Warning("[WS] 发送欢迎消息失败: %v", err)
		s.remove(wc.ID)
		return
	}

	go s.pingLoop(wc)
	go s.readLoop(wc)
}

// readLoop 读取客户端消息；Pong（协议层或JSON层）都会刷新读超时
func (s *WebSocketService) readLoop(wc *wsConnection) {
	defer func() {
		close(wc.done)
		s.remove(wc.ID)
		config.Info("[WS] 客户端连接关闭: %s", wc.ID)
	}()

	wc.conn.SetReadLimit(wsReadLimit)
	_ = wc.conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	wc.conn.SetPongHandler(func(string) error {
		return wc.conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	})

	for {
		_, data, err := wc.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "pong":
			_ = wc.conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		case "ping":
			if err := wc.writeJSON(map[string]string{"type": "pong"}); err != nil {
				return
			}
		}
	}
}

// pingLoop 周期性发送心跳；客户端错过心跳不强制断连，交给读超时兜底
func (s *WebSocketService) pingLoop(wc *wsConnection) {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wc.done:
			return
		case <-ticker.C:
			if !s.pingConn(wc) {
				return
			}
		}
	}
}

// pingConn 发送一次心跳，写失败说明连接已死，立即注销
func (s *WebSocketService) pingConn(wc *wsConnection) bool {
	wc.writeMu.Lock()
	err := wc.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout))
	wc.writeMu.Unlock()
	if err != nil {
		config.Warning("[WS] 发送心跳失败 %s: %v", wc.ID, err)
		s.remove(wc.ID)
		return false
	}
	return true
}

// broadcast 把事件写给所有连接，单个连接写失败只影响它自己
func (s *WebSocketService) broadcast(evt Event) {
	s.mu.RLock()
	targets := make([]*wsConnection, 0, len(s.conns))
	for _, wc := range s.conns {
		targets = append(targets, wc)
	}
	s.mu.RUnlock()

	for _, wc := range targets {
		if err := wc.writeJSON(evt); err != nil {
			config.Warning("[WS] 推送事件失败 %s: %v", wc.ID, err)
			s.remove(wc.ID)
		}
	}
}

// remove 注销并关闭连接
func (s *WebSocketService) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if wc, ok := s.conns[id]; ok {
		_ = wc.conn.Close()
		delete(s.conns, id)
	}
}

// Count 返回当前连接数
func (s *WebSocketService) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.conns)
}
