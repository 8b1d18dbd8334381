package report

import (
	"bytes"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/andewx/avixel/gpu"
)

func TestSeverityOrdering(t *testing.T) {
	require.True(t, SeverityDebug < SeverityInfo)
	require.True(t, SeverityInfo < SeverityWarning)
	require.True(t, SeverityWarning < SeverityError)
	require.True(t, SeverityError < SeverityFatal)

	require.True(t, CodeUnusualArguments.Severity() >= SeverityWarning)
	require.Equal(t, SeverityFatal, CodeNoSupport.Severity())
	require.Equal(t, SeverityError, CodeInvalidSize.Severity())
}

func TestParseRoundTrip(t *testing.T) {
	for c := CodeSuccess; c < codeCount; c++ {
		parsed, err := ParseCode(c.String())
		require.NoError(t, err)
		require.Equal(t, c, parsed)
	}

	sev, err := ParseSeverity("warn")
	require.NoError(t, err)
	require.Equal(t, SeverityWarning, sev)

	_, err = ParseSeverity("loud")
	require.Error(t, err)
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := Errorf(CodeDeviceMismatch, "transfer", "buffers from %d and %d", 1, 2)
	wrapped := errors.Wrap(err, "copy")

	code, ok := CodeOf(wrapped)
	require.True(t, ok)
	require.Equal(t, CodeDeviceMismatch, code)
	require.False(t, IsFatal(wrapped))

	fatal := Wrapf(gpu.Check(gpu.ErrorOutOfDeviceMemory), CodeMemoryError, "transfer", "allocate")
	require.True(t, IsFatal(fatal))
	var rerr gpu.ResultError
	require.True(t, errors.As(fatal, &rerr))
	require.Equal(t, gpu.ErrorOutOfDeviceMemory, rerr.Result)

	require.Nil(t, Wrapf(nil, CodeMemoryError, "transfer", "allocate"))
	require.Equal(t, SeverityError, SeverityOf(errors.New("plain")))

	ev := EventOf(err)
	require.Equal(t, CodeDeviceMismatch, ev.Code)
	require.Equal(t, "transfer", ev.Category)
	require.Contains(t, ev.Location, "report_test.go")
}

func TestConfigAllows(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = SeverityWarning
	cfg.DisabledCategories = []string{"window"}
	cfg.DisabledCodes = []Code{CodeTimeout}

	require.False(t, cfg.Allows(Event{Severity: SeverityInfo, Code: CodeInfo}))
	require.True(t, cfg.Allows(Event{Severity: SeverityWarning, Code: CodeUnusualArguments}))
	require.False(t, cfg.Allows(Event{Severity: SeverityWarning, Code: CodeWindowSize, Category: "window"}))
	require.False(t, cfg.Allows(Event{Severity: SeverityWarning, Code: CodeTimeout}))
	require.True(t, cfg.Allows(Event{Severity: SeverityFatal, Code: CodeNoSupport, Category: "window"}))
}

func TestReporterOutput(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	r := New(cfg, WithWriter(&buf), WithProject("avixel", "0.1"))

	r.Log(CodeUnusualArguments, "window", "only one window axis given")
	out := buf.String()
	require.Contains(t, out, "only one window axis given")
	require.Contains(t, out, "code=UNUSUAL_ARGUMENTS")
	require.Contains(t, out, "category=window")
	require.Contains(t, out, "\"avixel v0.1\"")
	require.Contains(t, out, "report_test.go")
	require.NotContains(t, out, "time=")

	buf.Reset()
	r.Log(CodeDebugCreate, "device", "created")
	require.Empty(t, buf.String())
}

func TestValidationThreshold(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.ValidationLevel = gpu.DebugWarning
	r := New(cfg, WithWriter(&buf))

	r.Validation(gpu.DebugMessage{Severity: gpu.DebugInfo, Category: gpu.DebugValidation, Message: "chatty"})
	require.Empty(t, buf.String())

	r.Validation(gpu.DebugMessage{Severity: gpu.DebugError, Category: gpu.DebugValidation, Message: "bad handle"})
	require.Contains(t, buf.String(), "[renderer][validation] -> bad handle")
}

func TestAssertAndFatal(t *testing.T) {
	var buf bytes.Buffer
	exits := 0
	cfg := DefaultConfig()
	cfg.AssertLevel = SeverityError
	r := New(cfg, WithWriter(&buf), WithExit(func(int) { exits++ }))

	require.True(t, r.Assert(true, CodeInvalidArguments, "config", "never printed"))
	require.Zero(t, exits)

	require.False(t, r.Assert(false, CodeUnusualArguments, "config", "warning only"))
	require.Zero(t, exits)

	require.False(t, r.Assert(false, CodeInvalidArguments, "config", "bad"))
	require.Equal(t, 1, exits)

	finalized := false
	r.Fatal(Errorf(CodeCreationError, "device", "rejected"), func() { finalized = true })
	require.True(t, finalized)
	require.Equal(t, 2, exits)
	require.Contains(t, buf.String(), "type=FATAL")
}

func TestColoredSeverityTag(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Colors = true
	r := New(cfg, WithWriter(&buf))

	r.Log(CodeUnusualArguments, "config", "odd value")
	out := buf.Bytes()
	require.True(t, bytes.Contains(out, []byte{0x1b}))
	require.NotContains(t, string(out), `\x1b`)
	require.True(t, bytes.HasPrefix(out, []byte(colorYellow+"WARNING"+colorReset+" ")))
	require.NotContains(t, string(out), "type=")
	require.Contains(t, string(out), "odd value")
}
