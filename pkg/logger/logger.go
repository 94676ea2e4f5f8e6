package logger

import (
	"log"

	"go.uber.org/zap"
)

// L is the shared application logger. Init must be called before use.
var L *zap.Logger

// Init builds the logger for the given environment. Production gets JSON
// output and Info level, everything else gets the development console config.
func Init(environment string) {
	var (
		logger *zap.Logger
		err    error
	)

	if environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	L = logger
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	if L != nil {
		_ = L.Sync()
	}
}
