package httpx

import "errors"

var (
	ErrConnState      = errors.New("httpx: connection not in expected state")
	ErrConnClosed     = errors.New("httpx: connection closed")
	ErrNotDone        = errors.New("httpx: header cycle not finished")
	ErrHeaderTooLarge = errors.New("httpx: header too large")
	ErrServerClosed   = errors.New("httpx: server closed")
)
