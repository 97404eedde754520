package service

import "errors"

// Sentinel errors of the application service.
var (
	ErrNoStorage    = errors.New("no storage configured")
	ErrBackpressure = errors.New("run queue is full")
	ErrRunNotFound  = errors.New("run not found")
	ErrNotStarted   = errors.New("service not started")
	ErrNoEmployees  = errors.New("no employees to score")
	ErrBenchmark    = errors.New("benchmark employee not ranked")
)
