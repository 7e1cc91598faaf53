// Package phusluadapter binds the logsampler to phuslu/log.
package phusluadapter

import (
	"hash/maphash"
	"strconv"
	"sync/atomic"

	"github.com/tekert/goevtx/logsampler"

	plog "github.com/phuslu/log"
)

// A package-level seed keeps error-signature hashes consistent for the
// lifetime of the process.
var hashSeed = maphash.MakeSeed()

// Sampler is an alias for the logsampler interface.
type Sampler = logsampler.Sampler

// SummaryReporter implements logsampler.SummaryReporter on a phuslu logger.
type SummaryReporter struct {
	Logger *plog.Logger
}

// LogSummary logs a sampler summary report.
func (r *SummaryReporter) LogSummary(key string, suppressedCount int64) {
	r.Logger.Info().
		Str("samplerKey", key).
		Int64("suppressedCount", suppressedCount).
		Msg("log sampler summary")
}

// SampledLogger extends plog.Logger with sampled log calls.
type SampledLogger struct {
	*plog.Logger
	Sampler Sampler
}

// NewSampledLogger creates a new logger with sampling capabilities.
func NewSampledLogger(baseLogger *plog.Logger, sampler Sampler) *SampledLogger {
	return &SampledLogger{
		Logger:  baseLogger,
		Sampler: sampler,
	}
}

// Sampled is the generic implementation for all sampled log calls. It
// returns nil when the event is filtered by level or suppressed by the
// sampler; phuslu treats a nil *Entry as a no-op.
func (l *SampledLogger) Sampled(level plog.Level, key string, useErrSig bool, err ...error) *plog.Entry {
	if plog.Level(atomic.LoadUint32((*uint32)(&l.Logger.Level))) > level {
		return nil
	}

	var e error
	if len(err) > 0 {
		e = err[0]
	}

	// An error signature gives distinct failure modes distinct keys.
	if useErrSig && e != nil {
		var h maphash.Hash
		h.SetSeed(hashSeed)
		h.WriteString(e.Error())

		var buf [128]byte
		b := buf[:0]
		b = append(b, key...)
		b = append(b, ':')
		b = strconv.AppendUint(b, h.Sum64(), 16)
		key = string(b)
	}

	if l.Sampler == nil {
		entry := l.Logger.WithLevel(level)
		if e != nil {
			entry.Err(e)
		}
		return entry
	}

	if shouldLog, suppressedCount := l.Sampler.ShouldLog(key, e); shouldLog {
		entry := l.Logger.WithLevel(level)
		if suppressedCount > 0 {
			entry.Int64("suppressedCount", suppressedCount)
		}
		if e != nil {
			entry.Err(e)
		}
		return entry
	}

	return nil
}

// SampledWarn starts a new sampled log event with Warn level.
func (l *SampledLogger) SampledWarn(key string) *plog.Entry {
	return l.Sampled(plog.WarnLevel, key, false)
}

// SampledWarnWithErrSig is like SampledWarn but keys on the error's content.
func (l *SampledLogger) SampledWarnWithErrSig(key string, err ...error) *plog.Entry {
	return l.Sampled(plog.WarnLevel, key, true, err...)
}

// SampledError starts a new sampled log event with Error level.
func (l *SampledLogger) SampledError(key string) *plog.Entry {
	return l.Sampled(plog.ErrorLevel, key, false)
}

// SampledErrorWithErrSig is like SampledError but keys on the error's content.
func (l *SampledLogger) SampledErrorWithErrSig(key string, err ...error) *plog.Entry {
	return l.Sampled(plog.ErrorLevel, key, true, err...)
}
