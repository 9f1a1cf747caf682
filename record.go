package logsink

import (
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
)

// maxCauseDepth bounds the walk over an error chain
const maxCauseDepth = 32

// Record is a single immutable log event.
// Records are passed by value from the producer through the queue into a batch.
type Record struct {
	Timestamp     time.Time
	Level         Level
	Category      string
	Message       string
	SessionID     string
	CorrelationID string
	Error         *ErrorDetail
	Caller        *Caller
}

// ErrorDetail is the rendered form of an error attached to a record.
type ErrorDetail struct {
	Message string   // err.Error() of the outermost error
	Causes  []string // messages of nested causes, outermost first
	Stack   string   // stack trace when the chain carries one, otherwise a dump of the error value
}

// Caller is optional call-site information supplied by the producer.
type Caller struct {
	File   string
	Member string
	Line   int
}

// stackTracer is implemented by github.com/pkg/errors values
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// causer is the pre-Unwrap pkg/errors interface
type causer interface {
	Cause() error
}

// errorDumper renders errors without a stack in a compact, deterministic form
var errorDumper = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                3,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
	SortKeys:                true,
}

// String formats the caller as file:member:line
func (c *Caller) String() string {
	if c == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(filepath.Base(c.File))
	sb.WriteByte(':')
	sb.WriteString(c.Member)
	sb.WriteByte(':')
	sb.WriteString(strconv.Itoa(c.Line))
	return sb.String()
}

// NewErrorDetail captures the message, cause chain and stack of err.
// Returns nil for a nil error.
func NewErrorDetail(err error) *ErrorDetail {
	if err == nil {
		return nil
	}

	detail := &ErrorDetail{Message: err.Error()}

	var deepestStack errors.StackTrace
	if st, ok := err.(stackTracer); ok {
		deepestStack = st.StackTrace()
	}

	prevMsg := detail.Message
	current := err
	for depth := 0; depth < maxCauseDepth; depth++ {
		next := unwrapOnce(current)
		if next == nil {
			break
		}
		// pkg/errors withStack layers repeat the wrapped message verbatim
		if msg := next.Error(); msg != prevMsg {
			detail.Causes = append(detail.Causes, msg)
			prevMsg = msg
		}
		if st, ok := next.(stackTracer); ok {
			deepestStack = st.StackTrace()
		}
		current = next
	}

	if len(deepestStack) > 0 {
		detail.Stack = strings.TrimSpace(fmt.Sprintf("%+v", deepestStack))
	} else {
		detail.Stack = strings.TrimSpace(errorDumper.Sdump(err))
	}

	return detail
}

// unwrapOnce returns the next error in the chain, or nil.
// Joined errors contribute their first member only.
func unwrapOnce(err error) error {
	if next := stderrors.Unwrap(err); next != nil {
		return next
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if e != nil {
				return e
			}
		}
		return nil
	}
	if c, ok := err.(causer); ok {
		if next := c.Cause(); next != err {
			return next
		}
	}
	return nil
}
