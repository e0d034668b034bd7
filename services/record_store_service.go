package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/yoona333/TelephoneSystem/config"
	"github.com/yoona333/TelephoneSystem/models"
)

const (
	// 同号码记录在此窗口内原地更新，把一次通话的生命周期折叠成一行
	recordUpdateWindow = 2 * time.Minute
	// 同号码同类状态在此窗口内的重复提交被抑制
	duplicateGuardWindow = 30 * time.Second
	// 记录日志上限，超出后淘汰最旧记录
	maxRecords = 1000
)

// MergedRecordsPayload merged_records_update 事件及接口响应负载
type MergedRecordsPayload struct {
	Records  []models.CallRecord `json:"records"`
	SyncTime int64               `json:"syncTime"`
}

// InterfaceRecordStoreService defines the record store service interface
type InterfaceRecordStoreService interface {
	AddOrUpdate(callID, phoneNumber, status string, duration int, updateOnly bool) *models.CallRecord
	MergeExternal(incoming []models.CallRecord) (int, []models.CallRecord)
	GetAll() []models.CallRecord
	GetMerged() []models.CallRecord
	FindByCallID(callID string) *models.CallRecord
	Count() int
	Clear()
}

// RecordStoreService 维护追加为主的通话记录日志
// 所有变更串行通过互斥锁，变更后同步落盘、异步镜像到Redis并广播
type RecordStoreService struct {
	Config      *config.Config
	Broadcaster InterfaceBroadcastService
	Redis       *RedisService

	mu      sync.Mutex
	records []models.CallRecord // 新记录在前
}

// NewRecordStoreService 创建记录存储服务并从磁盘恢复历史记录
func NewRecordStoreService(cfg *config.Config, broadcaster InterfaceBroadcastService, redisService *RedisService) InterfaceRecordStoreService {
	s := &RecordStoreService{
		Config:      cfg,
		Broadcaster: broadcaster,
		Redis:       redisService,
	}
	s.load()
	return s
}

// load 启动时从持久化文件恢复，文件不可用时退回Redis快照
func (s *RecordStoreService) load() {
	path := s.Config.GetRecordsFilePath()
	data, err := os.ReadFile(path)
	if err == nil {
		var records []models.CallRecord
		if jsonErr := json.Unmarshal(data, &records); jsonErr == nil {
			s.records = records
			s.sortLocked()
			s.truncateLocked()
			config.Info("[RecordStore] 从 %s 恢复了 %d 条通话记录", path, len(s.records))
			return
		} else {
			config.Warning("[RecordStore] 记录文件解析失败，尝试Redis快照: %v", jsonErr)
		}
	}

	if s.Redis != nil {
		var records []models.CallRecord
		if err := s.Redis.GetRecordsSnapshot(&records); err == nil {
			s.records = records
			s.sortLocked()
			s.truncateLocked()
			config.Info("[RecordStore] 从Redis快照恢复了 %d 条通话记录", len(s.records))
			return
		}
	}

	config.Info("[RecordStore] 无历史记录，使用空日志启动")
}

// AddOrUpdate 写入一条通话记录
//
// updateOnly 为真时只原地更新2分钟内同号码的最近记录，找不到则返回nil；
// 否则2分钟内有同号码记录且新状态为已挂断时原地更新，
// 再否则经过30秒严格去重检查后头插一条新记录。
// 返回nil表示本次提交被抑制（不是错误）。
func (s *RecordStoreService) AddOrUpdate(callID, phoneNumber, status string, duration int, updateOnly bool) *models.CallRecord {
	s.mu.Lock()

	now := time.Now().UnixMilli()
	idx := s.findRecentIndexLocked(phoneNumber, now, recordUpdateWindow)

	var record models.CallRecord
	switch {
	case updateOnly:
		if idx < 0 {
			s.mu.Unlock()
			return nil
		}
		s.updateInPlaceLocked(idx, callID, status, now, duration)
		record = s.records[idx]

	case idx >= 0 && status == models.RecordStatusEnded:
		s.updateInPlaceLocked(idx, callID, status, now, duration)
		record = s.records[idx]

	default:
		if s.isRecentDuplicateLocked(phoneNumber, status, now) {
			s.mu.Unlock()
			config.Info("[RecordStore] 抑制重复记录: %s %s", phoneNumber, status)
			return nil
		}
		record = models.CallRecord{
			ID:          models.NewRecordID(),
			CallID:      callID,
			PhoneNumber: phoneNumber,
			Status:      status,
			Timestamp:   now,
			Duration:    duration,
		}
		s.records = append([]models.CallRecord{record}, s.records...)
	}

	// 原地更新会刷新时间戳，重排保证新记录在前、淘汰只砍最旧的
	s.sortLocked()
	s.truncateLocked()
	s.persistLocked()
	merged := s.mergedLocked()
	s.mu.Unlock()

	s.Broadcaster.Emit(EventRecordUpdate, record)
	s.Broadcaster.Emit(EventMergedRecords, MergedRecordsPayload{Records: merged, SyncTime: now})
	s.mirrorAsync()

	return &record
}

// MergeExternal 合并客户端上报的记录批次，返回新增条数和合并后的完整日志
//
// 跳过规则：已存在相同客户端ID的记录；同号码已有时间相差60秒以内的记录
// （视为同一次通话）。合并后按时间戳降序并执行淘汰。
func (s *RecordStoreService) MergeExternal(incoming []models.CallRecord) (int, []models.CallRecord) {
	s.mu.Lock()

	added := 0
	for _, in := range incoming {
		if in.PhoneNumber == "" {
			continue
		}
		if in.ID != "" && s.hasIDLocked(in.ID) {
			continue
		}
		if s.hasNearbyLocked(in.PhoneNumber, in.Timestamp) {
			continue
		}
		if in.ID == "" {
			in.ID = models.NewRecordID()
		}
		s.records = append([]models.CallRecord{in}, s.records...)
		added++
	}

	s.sortLocked()
	s.truncateLocked()
	if added > 0 {
		s.persistLocked()
	}
	all := s.copyLocked()
	s.mu.Unlock()

	if added > 0 {
		s.mirrorAsync()
	}
	return added, all
}

// GetAll 返回完整记录日志，新记录在前
func (s *RecordStoreService) GetAll() []models.CallRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// GetMerged 返回每个号码只保留最新一条的合并视图
func (s *RecordStoreService) GetMerged() []models.CallRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mergedLocked()
}

// FindByCallID 按通话ID查找历史记录，用于挂断容错回退
func (s *RecordStoreService) FindByCallID(callID string) *models.CallRecord {
	if callID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].CallID == callID {
			record := s.records[i]
			return &record
		}
	}
	return nil
}

// Count 返回当前记录条数
func (s *RecordStoreService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Clear 清空记录日志并广播
func (s *RecordStoreService) Clear() {
	s.mu.Lock()
	s.records = nil
	s.persistLocked()
	s.mu.Unlock()

	s.Broadcaster.Emit(EventRecordsCleared, map[string]interface{}{
		"timestamp": time.Now().UnixMilli(),
	})
	s.mirrorAsync()
}

// findRecentIndexLocked 返回同号码在窗口内最近一条记录的下标，未找到返回-1
func (s *RecordStoreService) findRecentIndexLocked(phoneNumber string, now int64, window time.Duration) int {
	best := -1
	var bestTs int64
	for i := range s.records {
		r := &s.records[i]
		if r.PhoneNumber != phoneNumber {
			continue
		}
		if now-r.Timestamp > window.Milliseconds() {
			continue
		}
		if best < 0 || r.Timestamp > bestTs {
			best = i
			bestTs = r.Timestamp
		}
	}
	return best
}

// isRecentDuplicateLocked 30秒内同号码同类状态视为重复提交
func (s *RecordStoreService) isRecentDuplicateLocked(phoneNumber, status string, now int64) bool {
	for i := range s.records {
		r := &s.records[i]
		if r.PhoneNumber != phoneNumber {
			continue
		}
		if now-r.Timestamp > duplicateGuardWindow.Milliseconds() {
			continue
		}
		if models.StatusCompatible(r.Status, status) {
			return true
		}
	}
	return false
}

func (s *RecordStoreService) updateInPlaceLocked(idx int, callID, status string, now int64, duration int) {
	r := &s.records[idx]
	r.Status = status
	r.Timestamp = now
	if duration > 0 {
		r.Duration = duration
	}
	if callID != "" {
		r.CallID = callID
	}
}

func (s *RecordStoreService) hasIDLocked(id string) bool {
	for i := range s.records {
		if s.records[i].ID == id {
			return true
		}
	}
	return false
}

// hasNearbyLocked 同号码且时间差不超过60秒的记录视为同一次通话
func (s *RecordStoreService) hasNearbyLocked(phoneNumber string, timestamp int64) bool {
	for i := range s.records {
		r := &s.records[i]
		if r.PhoneNumber != phoneNumber {
			continue
		}
		diff := r.Timestamp - timestamp
		if diff < 0 {
			diff = -diff
		}
		if diff <= (60 * time.Second).Milliseconds() {
			return true
		}
	}
	return false
}

func (s *RecordStoreService) sortLocked() {
	sort.SliceStable(s.records, func(i, j int) bool {
		return s.records[i].Timestamp > s.records[j].Timestamp
	})
}

func (s *RecordStoreService) truncateLocked() {
	if len(s.records) > maxRecords {
		s.records = s.records[:maxRecords]
	}
}

func (s *RecordStoreService) copyLocked() []models.CallRecord {
	out := make([]models.CallRecord, len(s.records))
	copy(out, s.records)
	return out
}

// mergedLocked 每个非空号码保留时间戳最大的一条，按时间戳降序
func (s *RecordStoreService) mergedLocked() []models.CallRecord {
	latest := make(map[string]models.CallRecord)
	for _, r := range s.records {
		if r.PhoneNumber == "" {
			continue
		}
		if cur, ok := latest[r.PhoneNumber]; !ok || r.Timestamp > cur.Timestamp {
			latest[r.PhoneNumber] = r
		}
	}

	merged := make([]models.CallRecord, 0, len(latest))
	for _, r := range latest {
		merged = append(merged, r)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp > merged[j].Timestamp
	})
	return merged
}

// persistLocked 把完整日志同步写入磁盘
// 主路径失败时退回临时目录，两者都失败也只记日志，持久化是尽力而为的
func (s *RecordStoreService) persistLocked() {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		config.Error("[RecordStore] 序列化记录失败: %v", err)
		return
	}

	path := s.Config.GetRecordsFilePath()
	if err := os.WriteFile(path, data, 0644); err == nil {
		return
	} else {
		config.Warning("[RecordStore] 写入 %s 失败: %v，退回临时目录", path, err)
	}

	fallback := filepath.Join(os.TempDir(), filepath.Base(path))
	if err := os.WriteFile(fallback, data, 0644); err != nil {
		config.Error("[RecordStore] 写入临时目录也失败: %v", err)
	}
}

// mirrorAsync 异步把日志和合并视图镜像到Redis，失败只记日志
func (s *RecordStoreService) mirrorAsync() {
	if s.Redis == nil {
		return
	}

	s.mu.Lock()
	records := s.copyLocked()
	merged := s.mergedLocked()
	s.mu.Unlock()

	go func() {
		if err := s.Redis.CacheRecordsSnapshot(records); err != nil {
			config.Warning("[RecordStore] Redis记录快照写入失败: %v", err)
		}
		if err := s.Redis.CacheMergedSnapshot(merged); err != nil {
			config.Warning("[RecordStore] Redis合并快照写入失败: %v", err)
		}
	}()
}
