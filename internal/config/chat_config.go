package config

import "time"

const (
	// Room summary
	PreviewMaxLength = 100

	// Session transport
	SendBufferSize = 256
	WriteWait      = 10 * time.Second
	PongWait       = 60 * time.Second
	PingPeriod     = (PongWait * 9) / 10
	MaxMessageSize = 64 * 1024

	// Suspension
	BanKeyPrefix = "ban:"
)

var MessageTypes = map[string]bool{
	"text":    true,
	"image":   true,
	"file":    true,
	"booking": true,
}
