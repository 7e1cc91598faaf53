// Package evtx logging uses the phuslu/log library with a sampler for the
// decoder hot path: a corrupt file can raise the same failure for
// thousands of records.

package evtx

import (
	"os"
	"time"

	"github.com/tekert/goevtx/logsampler"
	"github.com/tekert/goevtx/logsampler/adapters/phusluadapter"

	plog "github.com/phuslu/log"
)

// LoggerName defines the name of a logger for configuration.
type LoggerName string

// Available logger names. Use these as keys when configuring log levels.
const (
	DecoderLogger LoggerName = "decoder"
	WalkerLogger  LoggerName = "walker"
	DefaultLogger LoggerName = "default"
)

// SampledLogger is an alias for the reusable phuslu SampledLogger.
type SampledLogger = phusluadapter.SampledLogger

// LoggerManager manages the package loggers.
type LoggerManager struct {
	writer  plog.Writer
	sampler logsampler.Sampler
	loggers map[LoggerName]*plog.Logger

	declog *plog.Logger
	wlklog *plog.Logger
	deflog *plog.Logger
}

// Global logger manager and convenient logger variables
var (
	loggerManager *LoggerManager
	declog        *SampledLogger // decoder hot path
	wlklog        *plog.Logger   // walker operations
	log           *plog.Logger   // everything else
)

func init() {
	loggerManager = NewLoggerManager()
	declog = phusluadapter.NewSampledLogger(
		loggerManager.loggers[DecoderLogger],
		loggerManager.sampler,
	)
	wlklog = loggerManager.wlklog
	log = loggerManager.deflog
}

// NewLoggerManager creates a new logger manager with default settings.
func NewLoggerManager() *LoggerManager {
	writer := &plog.IOWriter{Writer: os.Stderr}

	lm := &LoggerManager{
		writer:  writer,
		loggers: make(map[LoggerName]*plog.Logger),
	}

	lm.loggers[DecoderLogger] = &plog.Logger{
		Level:   plog.WarnLevel, // higher threshold for the hot path
		Writer:  writer,
		Context: plog.NewContext(nil).Str("component", string(DecoderLogger)).Value(),
	}
	lm.loggers[WalkerLogger] = &plog.Logger{
		Level:   plog.InfoLevel,
		Writer:  writer,
		Context: plog.NewContext(nil).Str("component", string(WalkerLogger)).Value(),
	}
	lm.loggers[DefaultLogger] = &plog.Logger{
		Level:   plog.InfoLevel,
		Writer:  writer,
		Context: plog.NewContext(nil).Str("component", string(DefaultLogger)).Value(),
	}

	backoffConfig := logsampler.BackoffConfig{
		InitialInterval: 1 * time.Second,
		MaxInterval:     1 * time.Minute,
		Factor:          2.0,
		ResetInterval:   5 * time.Minute,
	}

	// The sampler reports summaries for keys that went quiet.
	reporter := &phusluadapter.SummaryReporter{Logger: lm.loggers[DefaultLogger]}
	lm.sampler = logsampler.NewBackoffSampler(backoffConfig, reporter)

	lm.declog = lm.loggers[DecoderLogger]
	lm.wlklog = lm.loggers[WalkerLogger]
	lm.deflog = lm.loggers[DefaultLogger]

	return lm
}

// SetSampler changes the active sampler. It safely closes the previous one.
func (lm *LoggerManager) SetSampler(sampler logsampler.Sampler) {
	if lm.sampler != nil {
		lm.sampler.Close()
	}
	lm.sampler = sampler
	if declog != nil {
		declog.Sampler = sampler
	}
}

// SetWriter changes the writer for all loggers.
func (lm *LoggerManager) SetWriter(writer plog.Writer) {
	lm.writer = writer
	for _, logger := range lm.loggers {
		logger.Writer = writer
	}
}

// SetLogLevels sets the log level for one or more loggers.
// Use the exported LoggerName constants (e.g. evtx.DecoderLogger) as keys.
func (lm *LoggerManager) SetLogLevels(levels map[LoggerName]plog.Level) {
	for name, level := range levels {
		if logger, ok := lm.loggers[name]; ok {
			logger.SetLevel(level)
		}
	}
}

// GetSampler returns the sampler used for hot path logging.
func (lm *LoggerManager) GetSampler() logsampler.Sampler {
	return lm.sampler
}

// SetSampler sets the global sampler for hot-path logging.
func SetSampler(s logsampler.Sampler) {
	loggerManager.SetSampler(s)
}

// SetLogLevels sets the log level for one or more loggers globally.
func SetLogLevels(levels map[LoggerName]plog.Level) {
	loggerManager.SetLogLevels(levels)
}

// SetLogLevelsAll sets all registered loggers to the given level.
func SetLogLevelsAll(level plog.Level) {
	levels := make(map[LoggerName]plog.Level)
	for name := range loggerManager.loggers {
		levels[name] = level
	}
	SetLogLevels(levels)
}

func SetLogDebugLevel() { SetLogLevelsAll(plog.DebugLevel) }
func SetLogInfoLevel()  { SetLogLevelsAll(plog.InfoLevel) }
func SetLogWarnLevel()  { SetLogLevelsAll(plog.WarnLevel) }
func SetLogErrorLevel() { SetLogLevelsAll(plog.ErrorLevel) }
func SetLogTraceLevel() { SetLogLevelsAll(plog.TraceLevel) }

// DisableLogging sets all loggers to a level above every event.
func DisableLogging() {
	SetLogLevelsAll(99) // NoLevel
}

// SetLogWriter sets the writer for all loggers.
func SetLogWriter(writer plog.Writer) { loggerManager.SetWriter(writer) }

// GetLogManager returns the global logger manager.
func GetLogManager() *LoggerManager { return loggerManager }
