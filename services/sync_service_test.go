package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoona333/TelephoneSystem/models"
	"github.com/yoona333/TelephoneSystem/services"
)

func newTestSyncService(t *testing.T) (services.InterfaceSyncService, services.InterfaceRecordStoreService, *recordingBroadcaster) {
	t.Helper()
	store, broadcaster := newTestStore(t)
	return services.NewSyncService(store, broadcaster), store, broadcaster
}

func TestReconcileMergesClientRecords(t *testing.T) {
	svc, store, broadcaster := newTestSyncService(t)

	base := time.Now().UnixMilli()
	result := svc.Reconcile([]services.ClientRecord{
		{ID: "c1", Name: "张三", Number: "13800138000", Type: "outgoing", Timestamp: base - 300_000, Duration: 25},
		{ID: "c2", PhoneNumber: "13900139000", Type: "missed", Timestamp: base - 600_000},
	})

	require.Len(t, result, 2)
	assert.Equal(t, 2, store.Count())

	all := store.GetAll()
	assert.Equal(t, models.RecordStatusDialed, all[0].Status)
	assert.Equal(t, "张三", all[0].Name)
	assert.Equal(t, models.RecordStatusMissed, all[1].Status)

	assert.Len(t, broadcaster.eventsOfType(services.EventRecordsUpdated), 1)
}

func TestReconcileIsIdempotent(t *testing.T) {
	svc, store, _ := newTestSyncService(t)

	batch := []services.ClientRecord{
		{ID: "c1", Number: "13800138000", Type: "outgoing", Timestamp: time.Now().UnixMilli() - 300_000},
		{ID: "c2", Number: "13900139000", Type: "incoming", Timestamp: time.Now().UnixMilli() - 600_000},
	}

	svc.Reconcile(batch)
	require.Equal(t, 2, store.Count())

	// 同一批次重复提交不增加记录数
	result := svc.Reconcile(batch)
	assert.Equal(t, 2, store.Count())
	assert.Len(t, result, 2)
}

func TestReconcileCollapsesNearbyTimestamps(t *testing.T) {
	svc, store, _ := newTestSyncService(t)

	base := time.Now().UnixMilli()
	// 同号码相差30秒，视为同一次通话只留一条
	svc.Reconcile([]services.ClientRecord{
		{ID: "c1", Number: "13800138000", Type: "outgoing", Timestamp: base - 300_000},
		{ID: "c2", Number: "13800138000", Type: "outgoing", Timestamp: base - 330_000},
	})

	assert.Equal(t, 1, store.Count())
}

func TestReconcileSkipsRecordsWithoutNumber(t *testing.T) {
	svc, store, _ := newTestSyncService(t)

	result := svc.Reconcile([]services.ClientRecord{
		{ID: "c1", Type: "outgoing", Timestamp: time.Now().UnixMilli()},
	})

	assert.Empty(t, result)
	assert.Equal(t, 0, store.Count())
}

func TestReconcileMapsClientTypes(t *testing.T) {
	svc, store, _ := newTestSyncService(t)

	base := time.Now().UnixMilli()
	svc.Reconcile([]services.ClientRecord{
		{ID: "c1", Number: "201", Type: "outgoing", Timestamp: base - 100_000},
		{ID: "c2", Number: "202", Type: "incoming", Timestamp: base - 200_000},
		{ID: "c3", Number: "203", Type: "missed", Timestamp: base - 300_000},
		{ID: "c4", Number: "204", Type: "videocall", Timestamp: base - 400_000},
	})

	byNumber := make(map[string]string)
	for _, r := range store.GetAll() {
		byNumber[r.PhoneNumber] = r.Status
	}
	assert.Equal(t, models.RecordStatusDialed, byNumber["201"])
	assert.Equal(t, models.RecordStatusPickedUp, byNumber["202"])
	assert.Equal(t, models.RecordStatusMissed, byNumber["203"])
	// 未知类型按呼出兜底
	assert.Equal(t, models.RecordStatusDialed, byNumber["204"])
}

func TestReconcileParsesClientDates(t *testing.T) {
	svc, store, _ := newTestSyncService(t)

	ref := time.Date(2026, 5, 1, 10, 30, 0, 0, time.Local)
	svc.Reconcile([]services.ClientRecord{
		{ID: "c1", Number: "301", Type: "outgoing", Date: "2026-05-01 10:30:00"},
		{ID: "c2", Number: "302", Type: "outgoing", Date: float64(ref.UnixMilli() + 120_000)},
		{ID: "c3", Number: "303", Type: "outgoing", Date: "1777600000000"},
	})

	byNumber := make(map[string]int64)
	for _, r := range store.GetAll() {
		byNumber[r.PhoneNumber] = r.Timestamp
	}
	assert.Equal(t, ref.UnixMilli(), byNumber["301"])
	assert.Equal(t, ref.UnixMilli()+120_000, byNumber["302"])
	assert.Equal(t, int64(1777600000000), byNumber["303"])
}

func TestReconcileReturnsAuthoritativeSet(t *testing.T) {
	svc, store, _ := newTestSyncService(t)

	// 服务端已有的记录也要出现在返回集里，客户端用它整体覆盖本地缓存
	require.NotNil(t, store.AddOrUpdate("c-srv", "13700137000", models.RecordStatusEnded, 12, false))

	result := svc.Reconcile([]services.ClientRecord{
		{ID: "c1", Number: "13800138000", Type: "outgoing", Timestamp: time.Now().UnixMilli() - 300_000},
	})

	require.Len(t, result, 2)
	numbers := []string{result[0].PhoneNumber, result[1].PhoneNumber}
	assert.Contains(t, numbers, "13700137000")
	assert.Contains(t, numbers, "13800138000")
}
