package model

import "errors"

var (
	ErrMissingCredential     = errors.New("no credential available")
	ErrMissingUsername       = errors.New("username is required")
	ErrConversationNotFound  = errors.New("conversation not found")
	ErrMessageNotFound       = errors.New("message not found")
	ErrMalformedConversation = errors.New("conversation response has no recognizable shape")
	ErrSendQueueFull         = errors.New("send queue is full")
	ErrConnectionDegraded    = errors.New("connection is in degraded mode")
	ErrLoadAlreadyInProgress = errors.New("a page load is already in progress")
)
