package app

import "errors"

var (
	ErrInvalidRequest = errors.New("message or file required")
	ErrInvalidInput   = errors.New("invalid input")
	ErrPersistence    = errors.New("persistence failed")
)
