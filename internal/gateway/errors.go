package gateway

import "errors"

// Gateway lifecycle and dispatch errors
var (
	ErrGatewayAlreadyRunning = errors.New("gateway is already running")
	ErrGatewayNotRunning     = errors.New("gateway is not running")
	ErrIntentChannelFull     = errors.New("intent channel is full")
)
