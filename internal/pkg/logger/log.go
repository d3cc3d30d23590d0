package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Messages carries encoded log entries to whatever consumer the application
// wires up (console printer, test sink). Entries are JSON documents.
var Messages = make(chan []byte, 128)

const (
	ErrorLvl   = 0
	WarningLvl = 1
	InfoLvl    = 2
	ActionLvl  = 3 // dispatched actions, bank switches
	EventLvl   = 4 // incoming midi messages matched against the index
	UnboundLvl = 5 // incoming midi messages without a binding

	DebugLvl = 99
)

var (
	Error   = zap.Int("level", ErrorLvl)
	Warning = zap.Int("level", WarningLvl)
	Info    = zap.Int("level", InfoLvl)
	Action  = zap.Int("level", ActionLvl)
	Event   = zap.Int("level", EventLvl)
	Unbound = zap.Int("level", UnboundLvl)

	Debug = zap.Int("level", DebugLvl)
)

type chanWriter struct {
	sync.Mutex
}

func (w *chanWriter) Write(p []byte) (n int, err error) {
	w.Lock()
	var entry = make([]byte, len(p))
	copy(entry, p)
	Messages <- entry
	w.Unlock()
	return len(p), nil
}

func (w *chanWriter) Sync() error {
	return nil
}

func GetLogger() *zap.Logger {
	writer := &chanWriter{}
	cfg := zap.NewProductionEncoderConfig()
	cfg.SkipLineEnding = true
	cfg.EncodeTime = zapcore.EpochNanosTimeEncoder
	cfg.LevelKey = ""
	encoder := zapcore.NewJSONEncoder(cfg)

	return zap.New(
		zapcore.NewCore(encoder, zapcore.Lock(writer), zap.DebugLevel),
		zap.AddCaller(),
	)
}
