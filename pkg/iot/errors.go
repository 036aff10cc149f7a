package iot

import "errors"

var (
	ErrDeviceNotFound        = errors.New("device not found")
	ErrDeviceExists          = errors.New("device already exists")
	ErrDeviceOffline         = errors.New("device is offline")
	ErrStorage               = errors.New("storage unavailable")
	ErrClassifierUnavailable = errors.New("classifier unavailable")
	ErrQueueFull             = errors.New("queue is full")
	ErrInvalidInput          = errors.New("invalid input")
	ErrPipelineClosed        = errors.New("pipeline closed")
)
