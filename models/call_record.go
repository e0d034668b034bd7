package models

import (
	"fmt"
	"time"

	"github.com/yoona333/TelephoneSystem/utils"
)

// 通话记录状态
// 服务端生命周期使用前三个；客户端同步上来的记录使用后三个
const (
	RecordStatusInitiated = "已发起"
	RecordStatusAnswered  = "已接通"
	RecordStatusEnded     = "已挂断"
	RecordStatusDialed    = "已拨打"
	RecordStatusPickedUp  = "已接听"
	RecordStatusMissed    = "未接听"
)

// CallRecord 表示一条持久化的通话记录
type CallRecord struct {
	ID          string `json:"id"`
	CallID      string `json:"callId,omitempty"` // 关联的通话ID，客户端同步的记录没有
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name,omitempty"` // 客户端同步时携带的联系人姓名
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp"`          // epoch毫秒，排序基准
	Duration    int    `json:"duration,omitempty"` // 秒，仅挂断记录有值
}

// NewRecordID 生成时间+随机后缀的记录ID，避免同毫秒冲突
func NewRecordID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), utils.RandomDigits(4))
}

// statusClass 把状态归入等价类，跨类状态不参与去重判断
func statusClass(status string) string {
	switch status {
	case RecordStatusInitiated, RecordStatusDialed:
		return "initiated"
	case RecordStatusAnswered, RecordStatusPickedUp:
		return "answered"
	case RecordStatusEnded:
		return "ended"
	case RecordStatusMissed:
		return "missed"
	default:
		return status
	}
}

// StatusCompatible 判断两个状态是否属于同一等价类
func StatusCompatible(a, b string) bool {
	return statusClass(a) == statusClass(b)
}
