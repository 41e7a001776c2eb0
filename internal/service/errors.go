package service

import (
	"CommandCenter/internal/pkg/platform"
	"errors"
	"fmt"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
	BadGateway          = 502
)

var (
	ErrParamInvalid         = errors.New("参数错误")
	ErrContentNotFound      = errors.New("内容不存在")
	ErrInvalidState         = errors.New("当前状态不允许该操作")
	ErrInvalidTime          = errors.New("发布时间必须晚于当前时间")
	ErrAlreadyFiring        = errors.New("内容已开始发布，无法取消")
	ErrContentUnsupported   = errors.New("内容不符合目标平台要求")
	ErrPublishFailed        = errors.New("发布失败")
	ErrNotificationNotFound = errors.New("通知不存在")
	UnauthorizedError       = errors.New("权限不足")
	UnExpectedError         = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:         BadRequest,
	ErrContentNotFound:      NotFound,
	ErrInvalidState:         Conflict,
	ErrInvalidTime:          BadRequest,
	ErrAlreadyFiring:        Conflict,
	ErrContentUnsupported:   BadRequest,
	ErrPublishFailed:        BadGateway,
	ErrNotificationNotFound: NotFound,
	UnauthorizedError:       Forbidden,
	UnExpectedError:         InternalServerError,
}

// PublishFailedError 平台发布失败，携带归类后的原因
type PublishFailedError struct {
	Reason platform.Reason
	Detail string
}

func (e *PublishFailedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrPublishFailed.Error(), e.Reason)
}

func (e *PublishFailedError) Is(target error) bool {
	return target == ErrPublishFailed
}
