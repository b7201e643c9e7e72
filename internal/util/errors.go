package util

import "errors"

var (
	ErrUserNotFound     = errors.New("用户不存在")
	ErrEmailRegistered  = errors.New("该邮箱已被注册")
	ErrPermissionDenied = errors.New("permission denied")

	ErrSessionNotFound  = errors.New("session not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrMediaNotFound    = errors.New("media not found")
	ErrMediaUnavailable = errors.New("media unavailable")
	ErrFeedbackNotFound = errors.New("feedback not found")
	ErrAnalysisTimeout  = errors.New("analysis timed out")
	ErrStoreUnavailable = errors.New("store unavailable")
)
