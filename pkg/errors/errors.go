package errors

import (
	stderrors "errors"
	"fmt"
)

func (d Definition) Error() string {
	return d.Message
}

// Is 按错误码比较，便于 errors.Is 识别包装后的 Definition
func (d Definition) Is(target error) bool {
	t, ok := target.(Definition)
	return ok && t.Code == d.Code
}

// Definition 表示业务错误码及默认信息。
type Definition struct {
	Code    string
	Message string
}

// 通用错误。
var (
	InvalidRequest = Definition{Code: "INVALID_REQUEST", Message: "Invalid request"}
	Unauthorized   = Definition{Code: "UNAUTHORIZED", Message: "Unauthorized"}
	RateLimited    = Definition{Code: "RATE_LIMITED", Message: "Too many requests"}
	Internal       = Definition{Code: "INTERNAL_ERROR", Message: "Internal error"}
)

// 设置模块错误。
var (
	SettingsInvalid          = Definition{Code: "SETTINGS_INVALID", Message: "Settings invalid"}
	MessagingMethodInvalid   = Definition{Code: "MESSAGING_METHOD_INVALID", Message: "Messaging method must be sms, whatsapp or both"}
	SettingsRescheduleFailed = Definition{Code: "SETTINGS_RESCHEDULE_FAILED", Message: "Settings saved but rescheduling failed"}
)

// 联系人模块错误。
var (
	ContactNotFound     = Definition{Code: "CONTACT_NOT_FOUND", Message: "Contact not found"}
	ContactNameRequired = Definition{Code: "CONTACT_NAME_REQUIRED", Message: "Contact name required"}
	ContactUnreachable  = Definition{Code: "CONTACT_UNREACHABLE", Message: "Contact needs a phone number or an email"}
	ContactEmailInvalid = Definition{Code: "CONTACT_EMAIL_INVALID", Message: "Contact email invalid"}
	ContactPhoneInvalid = Definition{Code: "CONTACT_PHONE_INVALID", Message: "Contact phone invalid"}
)

// 打卡模块错误。
var (
	CheckInDisabled = Definition{Code: "CHECK_IN_DISABLED", Message: "Check-in disabled"}
)

// 通道模块错误。
var (
	ChannelUnavailable = Definition{Code: "CHANNEL_UNAVAILABLE", Message: "Channel unavailable"}
	ChannelRejected    = Definition{Code: "CHANNEL_REJECTED", Message: "Channel rejected the message"}
	BreakerOpen        = Definition{Code: "BREAKER_OPEN", Message: "Gateway circuit breaker open"}
)

// 调度模块错误。
var (
	ScheduleRegisterFailed = Definition{Code: "SCHEDULE_REGISTER_FAILED", Message: "Failed to register periodic task"}
	ScheduleCancelFailed   = Definition{Code: "SCHEDULE_CANCEL_FAILED", Message: "Failed to cancel periodic task"}
	EscalationDuplicate    = Definition{Code: "ESCALATION_DUPLICATE", Message: "Escalation already ran for this period"}
)

// Lookup 提供错误码查询能力。
var Lookup = map[string]Definition{
	InvalidRequest.Code:           InvalidRequest,
	Unauthorized.Code:             Unauthorized,
	RateLimited.Code:              RateLimited,
	Internal.Code:                 Internal,
	SettingsInvalid.Code:          SettingsInvalid,
	MessagingMethodInvalid.Code:   MessagingMethodInvalid,
	SettingsRescheduleFailed.Code: SettingsRescheduleFailed,
	ContactNotFound.Code:          ContactNotFound,
	ContactNameRequired.Code:      ContactNameRequired,
	ContactUnreachable.Code:       ContactUnreachable,
	ContactEmailInvalid.Code:      ContactEmailInvalid,
	ContactPhoneInvalid.Code:      ContactPhoneInvalid,
	CheckInDisabled.Code:          CheckInDisabled,
	ChannelUnavailable.Code:       ChannelUnavailable,
	ChannelRejected.Code:          ChannelRejected,
	BreakerOpen.Code:              BreakerOpen,
	ScheduleRegisterFailed.Code:   ScheduleRegisterFailed,
	ScheduleCancelFailed.Code:     ScheduleCancelFailed,
	EscalationDuplicate.Code:      EscalationDuplicate,
}

// Get 根据错误码返回 Definition，若不存在则返回空 Definition。
func Get(code string) Definition {
	if def, ok := Lookup[code]; ok {
		return def
	}
	return Definition{Code: code, Message: "Unexpected error"}
}

// Wrap 在 Definition 上附加底层原因，errors.Is 仍可匹配 Definition
func Wrap(def Definition, cause error) error {
	if cause == nil {
		return def
	}
	return fmt.Errorf("%w: %w", def, cause)
}

// As 从错误链中取出 Definition
func As(err error) (Definition, bool) {
	var def Definition
	if stderrors.As(err, &def) {
		return def, true
	}
	return Definition{}, false
}

// SkipMessageError 表示消息无需处理（重复投递等），消费端直接 ack
type SkipMessageError struct {
	Reason string
}

func (e *SkipMessageError) Error() string {
	return "skip message: " + e.Reason
}

func IsSkipMessageError(err error) bool {
	var target *SkipMessageError
	return stderrors.As(err, &target)
}

// NonRetryableError 表示服务商明确拒绝（号码非法、模板错误），重试没有意义
type NonRetryableError struct {
	Code    string
	Message string
	Reason  string
}

func NewNonRetryableError(code, message, reason string) *NonRetryableError {
	return &NonRetryableError{Code: code, Message: message, Reason: reason}
}

func (e *NonRetryableError) Error() string {
	return fmt.Sprintf("%s: %s - %s", e.Reason, e.Code, e.Message)
}

func IsNonRetryableError(err error) bool {
	var target *NonRetryableError
	return stderrors.As(err, &target)
}

// token 相关错误
var (
	ErrTokenGeneratorNotInitialized = stderrors.New("token generator not initialized")
	ErrUnexpectedSigningMethod      = stderrors.New("unexpected signing method")
	ErrInvalidToken                 = stderrors.New("invalid token")
	ErrInvalidTokenClaims           = stderrors.New("invalid token claims")
	ErrSubjectNotFound              = stderrors.New("subject not found in token")
)
