package tracing

import "time"

const (
	timeoutForTest = 2 * time.Second
	tickForTest    = 5 * time.Millisecond
)
