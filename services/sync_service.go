package services

import (
	"fmt"
	"strconv"
	"time"

	"github.com/yoona333/TelephoneSystem/config"
	"github.com/yoona333/TelephoneSystem/models"
)

// ClientRecord 客户端本地缓存的通话记录
// 客户端字段不稳定：号码可能叫 number 或 phoneNumber，时间可能是
// date（毫秒数或日期字符串）或 timestamp，这里全部兼容
type ClientRecord struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name,omitempty"`
	Number      string      `json:"number,omitempty"`
	PhoneNumber string      `json:"phoneNumber,omitempty"`
	Date        interface{} `json:"date,omitempty"`
	Timestamp   int64       `json:"timestamp,omitempty"`
	Type        string      `json:"type"`
	Duration    int         `json:"duration,omitempty"`
}

// InterfaceSyncService defines the sync reconciler interface
type InterfaceSyncService interface {
	Reconcile(clientRecords []ClientRecord) []models.CallRecord
}

// SyncService 把客户端上报的记录批次合并进服务端日志
type SyncService struct {
	Records     InterfaceRecordStoreService
	Broadcaster InterfaceBroadcastService
}

// NewSyncService 创建同步服务
func NewSyncService(records InterfaceRecordStoreService, broadcaster InterfaceBroadcastService) InterfaceSyncService {
	return &SyncService{
		Records:     records,
		Broadcaster: broadcaster,
	}
}

// Reconcile 合并客户端记录并返回去重后的完整记录集
// 返回值是权威替换状态，调用方可以用它整体覆盖本地缓存；
// 同一批次重复提交不会增加存储的记录数
func (s *SyncService) Reconcile(clientRecords []ClientRecord) []models.CallRecord {
	incoming := make([]models.CallRecord, 0, len(clientRecords))
	for _, cr := range clientRecords {
		number := cr.PhoneNumber
		if number == "" {
			number = cr.Number
		}
		if number == "" {
			continue
		}

		incoming = append(incoming, models.CallRecord{
			ID:          cr.ID,
			Name:        cr.Name,
			PhoneNumber: number,
			Status:      mapClientType(cr.Type),
			Timestamp:   clientTimestamp(cr),
			Duration:    cr.Duration,
		})
	}

	added, all := s.Records.MergeExternal(incoming)
	config.Info("[Sync] 收到 %d 条客户端记录，新增 %d 条，当前共 %d 条", len(clientRecords), added, len(all))

	s.Broadcaster.Emit(EventRecordsUpdated, map[string]interface{}{
		"recordCount": len(all),
		"timestamp":   time.Now().UnixMilli(),
	})

	return dedupRecords(all)
}

// mapClientType 按客户端观察到的呼叫方向映射记录状态
func mapClientType(callType string) string {
	switch callType {
	case "outgoing":
		return models.RecordStatusDialed
	case "incoming":
		return models.RecordStatusPickedUp
	case "missed":
		return models.RecordStatusMissed
	default:
		config.Warning("[Sync] 未知的通话类型 %q，按呼出处理", callType)
		return models.RecordStatusDialed
	}
}

// 客户端日期字符串的候选格式
var clientDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

// clientTimestamp 解析客户端时间，统一成epoch毫秒
func clientTimestamp(cr ClientRecord) int64 {
	if cr.Timestamp > 0 {
		return cr.Timestamp
	}

	switch v := cr.Date.(type) {
	case float64:
		return int64(v)
	case string:
		if millis, err := strconv.ParseInt(v, 10, 64); err == nil {
			return millis
		}
		for _, layout := range clientDateLayouts {
			if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
				return t.UnixMilli()
			}
		}
	}

	config.Warning("[Sync] 无法解析客户端时间 %v，使用当前时间", cr.Date)
	return time.Now().UnixMilli()
}

// dedupRecords 按ID（或号码+时间戳）去重，保持原有顺序
func dedupRecords(records []models.CallRecord) []models.CallRecord {
	seen := make(map[string]bool, len(records))
	out := make([]models.CallRecord, 0, len(records))
	for _, r := range records {
		key := r.ID
		if key == "" {
			key = fmt.Sprintf("%s-%d", r.PhoneNumber, r.Timestamp)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}
