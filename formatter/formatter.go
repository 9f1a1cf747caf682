package formatter

import (
	"strings"
	"time"

	"github.com/lixenwraith/logsink/sanitizer"
)

// Entry is the serializable view of a record
type Entry struct {
	Timestamp     time.Time
	Level         string
	Category      string
	SessionID     string
	CorrelationID string
	Caller        string // file:member:line, empty when absent or disabled
	Message       string
	Error         *ErrorBlock
}

// ErrorBlock is the error section written after the header line
type ErrorBlock struct {
	Message string
	Causes  []string
	Stack   string
}

// Formatter manages the buffered formatting of log entries.
// A Formatter is owned by a single goroutine.
type Formatter struct {
	sanitizer       *sanitizer.Sanitizer
	serializer      *sanitizer.Serializer
	format          string
	timestampFormat string
	buf             []byte
}

// New creates a txt formatter with the provided sanitizer.
// Without one, the txt policy is used so a record never spans more header lines than one.
func New(s ...*sanitizer.Sanitizer) *Formatter {
	var san *sanitizer.Sanitizer
	if len(s) > 0 && s[0] != nil {
		san = s[0]
	} else {
		san = sanitizer.New().Policy(sanitizer.PolicyTxt)
	}
	return &Formatter{
		sanitizer:       san,
		serializer:      sanitizer.NewSerializer("txt", san),
		format:          "txt",
		timestampFormat: time.RFC3339Nano,
		buf:             make([]byte, 0, 1024),
	}
}

// Type sets the output format ("txt" or "json")
func (f *Formatter) Type(format string) *Formatter {
	f.format = format
	f.serializer = sanitizer.NewSerializer(format, f.sanitizer)
	return f
}

// TimestampFormat sets the timestamp format string
func (f *Formatter) TimestampFormat(format string) *Formatter {
	if format != "" {
		f.timestampFormat = format
	}
	return f
}

// Format serializes a single entry into the internal buffer.
// The returned slice is valid until the next call.
func (f *Formatter) Format(e Entry) []byte {
	f.buf = f.AppendEntry(f.buf[:0], e)
	return f.buf
}

// AppendEntry appends the serialized entry, newline terminated, to dst
func (f *Formatter) AppendEntry(dst []byte, e Entry) []byte {
	switch f.format {
	case "json":
		return f.appendJSON(dst, e)
	default:
		return f.appendTxt(dst, e)
	}
}

// appendTxt writes the bracketed header line followed by the indented error block
func (f *Formatter) appendTxt(dst []byte, e Entry) []byte {
	dst = append(dst, '[')
	dst = e.Timestamp.AppendFormat(dst, f.timestampFormat)
	dst = append(dst, "] ["...)
	dst = append(dst, e.Level...)
	dst = append(dst, "] ["...)
	f.serializer.WriteString(&dst, e.Category)
	dst = append(dst, ']')

	if e.CorrelationID != "" {
		dst = append(dst, " [TraceId:"...)
		f.serializer.WriteString(&dst, e.CorrelationID)
		dst = append(dst, ']')
	}

	if e.Caller != "" {
		dst = append(dst, " ["...)
		f.serializer.WriteString(&dst, e.Caller)
		dst = append(dst, ']')
	}

	dst = append(dst, ' ')
	f.serializer.WriteString(&dst, e.Message)
	dst = append(dst, '\n')

	if e.Error == nil {
		return dst
	}

	dst = append(dst, "    Error: "...)
	f.serializer.WriteString(&dst, e.Error.Message)
	dst = append(dst, '\n')

	for _, cause := range e.Error.Causes {
		dst = append(dst, "    Cause: "...)
		f.serializer.WriteString(&dst, cause)
		dst = append(dst, '\n')
	}

	if e.Error.Stack != "" {
		dst = append(dst, "    Stack:\n"...)
		for _, line := range strings.Split(e.Error.Stack, "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			dst = append(dst, "        "...)
			f.serializer.WriteString(&dst, line)
			dst = append(dst, '\n')
		}
	}

	return dst
}

// appendJSON writes one JSON object per entry
func (f *Formatter) appendJSON(dst []byte, e Entry) []byte {
	dst = append(dst, `{"time":`...)
	f.serializer.WriteString(&dst, e.Timestamp.Format(f.timestampFormat))
	dst = append(dst, `,"level":`...)
	f.serializer.WriteString(&dst, e.Level)
	dst = append(dst, `,"category":`...)
	f.serializer.WriteString(&dst, e.Category)

	if e.SessionID != "" {
		dst = append(dst, `,"session":`...)
		f.serializer.WriteString(&dst, e.SessionID)
	}

	if e.CorrelationID != "" {
		dst = append(dst, `,"trace_id":`...)
		f.serializer.WriteString(&dst, e.CorrelationID)
	}

	if e.Caller != "" {
		dst = append(dst, `,"caller":`...)
		f.serializer.WriteString(&dst, e.Caller)
	}

	dst = append(dst, `,"message":`...)
	f.serializer.WriteString(&dst, e.Message)

	dst = append(dst, `,"error":`...)
	if e.Error == nil {
		f.serializer.WriteNil(&dst)
	} else {
		dst = append(dst, `{"message":`...)
		f.serializer.WriteString(&dst, e.Error.Message)
		dst = append(dst, `,"causes":[`...)
		for i, cause := range e.Error.Causes {
			if i > 0 {
				dst = append(dst, ',')
			}
			f.serializer.WriteString(&dst, cause)
		}
		dst = append(dst, `],"stack":`...)
		f.serializer.WriteString(&dst, e.Error.Stack)
		dst = append(dst, '}')
	}

	dst = append(dst, "}\n"...)
	return dst
}
