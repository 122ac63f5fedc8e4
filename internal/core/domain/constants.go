package domain

import "errors"

var (
	ErrSendingReplyFailed   = errors.New("failed to send reply")
	ErrSessionNotFound      = errors.New("session not found")
	ErrQuestionNotFound     = errors.New("question not found")
	ErrGeneratorUnavailable = errors.New("text generator unavailable")
	ErrNoNiches             = errors.New("no niches generated yet")
)
