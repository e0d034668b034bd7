package models_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yoona333/TelephoneSystem/models"
)

func TestCreateCallStartsRinging(t *testing.T) {
	m := models.NewCallManager()

	call := m.CreateCall("13800138000")
	require.NotNil(t, call)
	assert.Equal(t, models.CallStatusRinging, call.Status)
	assert.NotEmpty(t, call.CallID)
	assert.False(t, call.StartTime.IsZero())
	assert.True(t, call.AnswerTime.IsZero())
	assert.Equal(t, 1, m.Count())
}

func TestCallIDsUniqueUnderConcurrency(t *testing.T) {
	m := models.NewCallManager()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.CreateCall("13800138000")
		}()
	}
	wg.Wait()

	// ID带单调序号，同毫秒并发创建也不会冲突
	assert.Equal(t, 100, m.Count())
}

func TestAnswerCallTransitions(t *testing.T) {
	m := models.NewCallManager()
	call := m.CreateCall("13800138000")

	answered, err := m.AnswerCall(call.CallID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusActive, answered.Status)
	assert.False(t, answered.AnswerTime.IsZero())

	// 非振铃状态不允许再接听
	_, err = m.AnswerCall(call.CallID)
	assert.True(t, errors.Is(err, models.ErrCallState))

	_, err = m.AnswerCall("missing")
	assert.True(t, errors.Is(err, models.ErrCallNotFound))
}

func TestEndCallRemovesFromRegistry(t *testing.T) {
	m := models.NewCallManager()
	call := m.CreateCall("13800138000")
	_, err := m.AnswerCall(call.CallID)
	require.NoError(t, err)

	ended, err := m.EndCall(call.CallID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusEnded, ended.Status)
	assert.GreaterOrEqual(t, ended.Duration, 0)
	assert.Equal(t, 0, m.Count())

	_, exists := m.GetCall(call.CallID)
	assert.False(t, exists)

	_, err = m.EndCall(call.CallID)
	assert.True(t, errors.Is(err, models.ErrCallNotFound))
}

func TestEndCallWithoutAnswer(t *testing.T) {
	m := models.NewCallManager()
	call := m.CreateCall("13800138000")

	// 未接通直接挂断，时长从发起时间起算
	ended, err := m.EndCall(call.CallID)
	require.NoError(t, err)
	assert.Equal(t, models.CallStatusEnded, ended.Status)
	assert.GreaterOrEqual(t, ended.Duration, 0)
}

func TestFindRecentByNumber(t *testing.T) {
	m := models.NewCallManager()
	call := m.CreateCall("13800138000")

	found := m.FindRecentByNumber("13800138000", 5*time.Second)
	require.NotNil(t, found)
	assert.Equal(t, call.CallID, found.CallID)

	assert.Nil(t, m.FindRecentByNumber("13900139000", 5*time.Second))

	// 已结束的通话不参与复用
	_, err := m.EndCall(call.CallID)
	require.NoError(t, err)
	assert.Nil(t, m.FindRecentByNumber("13800138000", 5*time.Second))
}

func TestListActiveReturnsIsolatedSnapshots(t *testing.T) {
	m := models.NewCallManager()
	call := m.CreateCall("13800138000")

	snapshot := m.ListActive()[0]
	_, err := m.AnswerCall(call.CallID)
	require.NoError(t, err)

	// 取出的是锁内拷贝，后续状态流转不改写它
	assert.Equal(t, models.CallStatusRinging, snapshot.Status)
	assert.True(t, snapshot.AnswerTime.IsZero())

	current, ok := m.GetCall(call.CallID)
	require.True(t, ok)
	assert.Equal(t, models.CallStatusActive, current.Status)
}

func TestConcurrentReadsDuringTransitions(t *testing.T) {
	m := models.NewCallManager()
	ids := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		ids = append(ids, m.CreateCall("13800138000").CallID)
	}

	// 一边读取快照字段一边做状态流转，-race下必须干净
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for _, id := range ids {
			_, _ = m.AnswerCall(id)
			_, _ = m.EndCall(id)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			for _, c := range m.ListActive() {
				_ = c.Status
				_ = c.AnswerTime
			}
		}
	}()
	wg.Wait()

	assert.Equal(t, 0, m.Count())
}

func TestListActiveAndClear(t *testing.T) {
	m := models.NewCallManager()
	m.CreateCall("101")
	m.CreateCall("102")

	assert.Len(t, m.ListActive(), 2)

	m.Clear()
	assert.Equal(t, 0, m.Count())
	assert.Empty(t, m.ListActive())
}

func TestStatusCompatible(t *testing.T) {
	// 服务端状态与客户端同步状态跨类等价
	assert.True(t, models.StatusCompatible(models.RecordStatusInitiated, models.RecordStatusDialed))
	assert.True(t, models.StatusCompatible(models.RecordStatusAnswered, models.RecordStatusPickedUp))
	assert.True(t, models.StatusCompatible(models.RecordStatusEnded, models.RecordStatusEnded))
	assert.False(t, models.StatusCompatible(models.RecordStatusInitiated, models.RecordStatusAnswered))
	assert.False(t, models.StatusCompatible(models.RecordStatusEnded, models.RecordStatusMissed))
}

func TestNewRecordIDFormat(t *testing.T) {
	id := models.NewRecordID()
	// 毫秒时间戳 + 4位随机后缀
	assert.Regexp(t, `^\d{13}-\d{4}$`, id)
}
