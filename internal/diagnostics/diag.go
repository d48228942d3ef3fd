package diagnostics

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

const (
	PORT_ALLOC = "PORT.ALLOC"
	PORT_SCHED = "PORT.SCHED"
	SINK_OPEN  = "SINK.OPEN"
	TOUCH_OPEN = "TOUCH.OPEN"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

type known struct {
	severity Severity
	summary  string
	causes   []string
	fixes    []string
}

var catalog = map[string]known{
	PORT_ALLOC: {
		Err, "Frame buffer allocation failed",
		[]string{"line_count too large for max_buffer_bytes", "display reports zero width or height"},
		[]string{"lower line_count", "disable double_buffer", "raise max_buffer_bytes"},
	},
	PORT_SCHED: {
		Err, "Scheduler could not start",
		[]string{"tick_ms or drive_ms is zero or negative", "port already started"},
		[]string{"set tick_ms and drive_ms to 10"},
	},
	SINK_OPEN: {
		Err, "Pixel sink could not be opened",
		[]string{"device node missing", "insufficient permissions", "unsupported pixel format"},
		[]string{"check the sink and device settings", "run with sink: sim"},
	},
	TOUCH_OPEN: {
		Warn, "Touch input unavailable",
		[]string{"no touch controller on the bus", "wrong i2c address or input device"},
		[]string{"check touch settings; rendering continues without input"},
	},
}

// FromError builds the diagnostic for a known code. Unknown codes are errors.
func FromError(code string, err error) Diagnostic {
	d := Diagnostic{Severity: Err, Code: code, Summary: code}
	if k, ok := catalog[code]; ok {
		d.Severity, d.Summary, d.LikelyCauses, d.SuggestedFixes = k.severity, k.summary, k.causes, k.fixes
	}
	if err != nil {
		d.Detail = err.Error()
	}
	return d
}

// Log writes d to the global logger at a level matching its severity.
func Log(d Diagnostic) {
	lvl := zerolog.InfoLevel
	switch d.Severity {
	case Warn:
		lvl = zerolog.WarnLevel
	case Err:
		lvl = zerolog.ErrorLevel
	}
	ev := log.WithLevel(lvl).Str("code", d.Code)
	if d.Detail != "" {
		ev = ev.Str("detail", d.Detail)
	}
	if len(d.Evidence) > 0 {
		ev = ev.Interface("evidence", d.Evidence)
	}
	ev.Msg(d.Summary)
}
