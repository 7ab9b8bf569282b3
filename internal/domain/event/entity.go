package event

import (
	"time"
)

// Event 活动实体(聚合根)
// 设计说明:
// 1. 活动管理(创建/编辑/下架)由运营后台负责,本服务只读
// 2. Price使用int64存储最小货币单位(避免浮点数精度问题)
// 3. 报名窗口[RecruitmentStartAt, RecruitmentFinishAt]是支付和退款的业务边界
type Event struct {
	ID                  uint
	Title               string    // 活动名称
	Price               int64     // 票价(最小货币单位)
	RecruitmentStartAt  time.Time // 报名开始时间
	RecruitmentFinishAt time.Time // 报名结束时间
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsNotRecruitmentPeriod 判断当前时间是否在报名期之外
// 业务规则:只有报名期内才能发起支付
func (e *Event) IsNotRecruitmentPeriod(now time.Time) bool {
	return now.Before(e.RecruitmentStartAt) || now.After(e.RecruitmentFinishAt)
}

// IsFinishedRecruitment 判断报名是否已结束
// 业务规则:报名结束后不允许退款(票务已进入核销阶段)
func (e *Event) IsFinishedRecruitment(now time.Time) bool {
	return now.After(e.RecruitmentFinishAt)
}
