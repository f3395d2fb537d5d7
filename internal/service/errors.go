package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	BadGateway          = 502
	InternalServerError = 500
)

var (
	ErrParamInvalid      = errors.New("参数错误")
	ErrUserNotFound      = errors.New("用户不存在")
	ErrUserPhoneNotFound = errors.New("手机号未注册")
	ErrTargetUserInvalid = errors.New("目标用户无效")
	ErrChatNotFound      = errors.New("会话不存在")
	ErrNotParticipant    = errors.New("new row violates row-level security policy")
	ErrNotGroup          = errors.New("不是群聊")
	ErrConversation      = errors.New("会话异常")
	ErrNotAdmin          = errors.New("仅群管理员可操作")
	ErrMessageNotFound   = errors.New("消息不存在")
	ErrNotAuthor         = errors.New("只能删除自己发送的消息")
	ErrMediaRequired     = errors.New("媒体消息缺少文件地址")
	ErrFileNotSupported  = errors.New("不支持的文件类型")
	ErrBucketInvalid     = errors.New("存储桶不存在")
	ErrPathInvalid       = errors.New("文件路径无效")
	ErrAgentNotFound     = errors.New("智能体不存在")
	ErrAgentInactive     = errors.New("智能体未启用")
	ErrAgentKeyInvalid   = errors.New("API Key 校验失败")
	ErrExecutionNotFound = errors.New("执行记录不存在")
	ErrExecutionHandled  = errors.New("执行记录已处理")
	ErrWorkflowFailed    = errors.New("工作流调用失败")
	UnauthorizedError    = errors.New("权限不足")
	UnExpectedError      = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:      BadRequest,
	ErrUserNotFound:      NotFound,
	ErrUserPhoneNotFound: NotFound,
	ErrTargetUserInvalid: BadRequest,
	ErrChatNotFound:      NotFound,
	ErrNotParticipant:    Forbidden,
	ErrNotGroup:          BadRequest,
	ErrConversation:      InternalServerError,
	ErrNotAdmin:          Forbidden,
	ErrMessageNotFound:   NotFound,
	ErrNotAuthor:         Forbidden,
	ErrMediaRequired:     BadRequest,
	ErrFileNotSupported:  BadRequest,
	ErrBucketInvalid:     BadRequest,
	ErrPathInvalid:       BadRequest,
	ErrAgentNotFound:     NotFound,
	ErrAgentInactive:     BadRequest,
	ErrAgentKeyInvalid:   Unauthorized,
	ErrExecutionNotFound: NotFound,
	ErrExecutionHandled:  Conflict,
	ErrWorkflowFailed:    BadGateway,
	UnauthorizedError:    Unauthorized,
	UnExpectedError:      InternalServerError,
}

// CodeOf 查找错误对应的业务码，支持被包装的哨兵错误
func CodeOf(err error) (int, bool) {
	if code, ok := ErrorMap[err]; ok {
		return code, true
	}
	for sentinel, code := range ErrorMap {
		if errors.Is(err, sentinel) {
			return code, true
		}
	}
	return 0, false
}
