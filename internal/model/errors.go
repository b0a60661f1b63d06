package model

import "errors"

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrUsageCapReached   = errors.New("promotion usage cap reached")
)
