// Package logging builds the process logger: console output plus one
// append-only file per day under the configured log directory.
package logging

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	filePerm = 0o644
	dirPerm  = 0o755
)

// DailyFilename is the log file that receives entries written on day.
func DailyFilename(day time.Time) string {
	return "server_" + day.Format("2006-01-02") + ".log"
}

// DailyWriter appends to the file of the current day, reopening per write
// so rotation needs no background goroutine.
type DailyWriter struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

func NewDailyWriter(dir string) (*DailyWriter, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, err
	}
	return &DailyWriter{dir: dir, now: time.Now}, nil
}

func (w *DailyWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(filepath.Join(w.dir, DailyFilename(w.now())), os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return 0, err
	}
	n, werr := f.Write(p)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	return n, werr
}

func (w *DailyWriter) Sync() error { return nil }

// New returns a logger writing to stdout and to dir. Development mode logs at
// debug level with colored levels on the console; the file stays plain.
func New(dir string, development bool) (*zap.Logger, error) {
	writer, err := NewDailyWriter(dir)
	if err != nil {
		return nil, err
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	fileEnc := zapcore.NewJSONEncoder(encCfg)

	consoleCfg := encCfg
	if development {
		level.SetLevel(zap.DebugLevel)
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	consoleEnc := zapcore.NewConsoleEncoder(consoleCfg)

	core := zapcore.NewTee(
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(fileEnc, zapcore.AddSync(writer), level),
	)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	_ = zap.RedirectStdLog(logger)
	return logger, nil
}
