package event

import (
	apperrors "github.com/xiebiao/ticketflow/pkg/errors"
)

// 活动领域错误定义
var (
	// ErrEventNotFound 活动不存在
	ErrEventNotFound = apperrors.New(apperrors.ErrCodeEventNotFound, "活动不存在")

	// ErrNotInRecruitmentPeriod 不在报名期内
	ErrNotInRecruitmentPeriod = apperrors.New(apperrors.ErrCodeNotInRecruitmentPeriod, "当前不在活动报名期内")
)
