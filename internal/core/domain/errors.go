package domain

import "errors"

var (
	ErrInvalidUserID    = errors.New("invalid user id")
	ErrUserNotFound     = errors.New("user not found")
	ErrSelfConversation = errors.New("sender and receiver are the same user")
	ErrEmptyMessage     = errors.New("message needs text or an image")
	ErrUnknownEvent     = errors.New("unknown event type")
)
