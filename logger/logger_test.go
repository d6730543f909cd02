// Copyright 2020 Hewlett Packard Enterprise Development LP

package logger

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logAllLevels(testName string) {
	Tracef("%s:%s", testName, log.TraceLevel.String())
	Debugf("%s:%s", testName, log.DebugLevel.String())
	Infof("%s:%s", testName, log.InfoLevel.String())
	Errorf("%s:%s", testName, log.ErrorLevel.String())
	Warnf("%s:%s", testName, log.WarnLevel.String())
}

// assertLevels checks which of the messages logged by logAllLevels reached the file
func assertLevels(t *testing.T, logFile string, testName string, enabled ...string) {
	b, err := os.ReadFile(logFile)
	require.NoError(t, err)
	for _, level := range []string{"trace", "debug", "info", "warning", "error"} {
		want := false
		for _, e := range enabled {
			if e == level {
				want = true
			}
		}
		msg := fmt.Sprintf("%s:%s", testName, level)
		assert.Equal(t, want, strings.Contains(string(b), msg), msg)
	}
}

func TestInitLogging(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "test.log")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("LOG_FILE", "")

	// stdout only: nothing is written to the file
	require.NoError(t, InitLogging("", nil, true))
	logAllLevels("test_stdout_only")
	_, err := os.Stat(logFile)
	assert.True(t, os.IsNotExist(err))

	// defaults
	require.NoError(t, InitLogging(logFile, nil, false))
	assert.Equal(t, DefaultLogLevel, log.GetLevel().String())
	logAllLevels("test_default_info_level")
	assertLevels(t, logFile, "test_default_info_level", "info", "warning", "error")

	// params override
	require.NoError(t, InitLogging(logFile, &LogParams{Level: "trace"}, false))
	assert.Equal(t, log.TraceLevel, GetLevel())
	logAllLevels("test_param_override_trace_level")
	assertLevels(t, logFile, "test_param_override_trace_level", "trace", "debug", "info", "warning", "error")

	// env overrides params
	t.Setenv("LOG_LEVEL", "debug")
	require.NoError(t, InitLogging(logFile, &LogParams{Level: "trace"}, false))
	logAllLevels("test_env_debug_level")
	assertLevels(t, logFile, "test_env_debug_level", "debug", "info", "warning", "error")
	assert.True(t, IsLevelEnabled(log.DebugLevel))
	assert.False(t, IsLevelEnabled(log.TraceLevel))
}

func TestLogParamsDefaults(t *testing.T) {
	tests := []struct {
		name   string
		params LogParams
		level  string
		format string
		files  int
		size   int
	}{
		{"zero", LogParams{}, DefaultLogLevel, DefaultLogFormat, DefaultMaxLogFiles, DefaultMaxLogSize},
		{"invalid", LogParams{Level: "verbose", Format: "yaml", MaxFiles: 1000, MaxSizeMiB: 4096}, DefaultLogLevel, DefaultLogFormat, DefaultMaxLogFiles, DefaultMaxLogSize},
		{"valid", LogParams{Level: "warn", Format: JSONFormat, MaxFiles: 3, MaxSizeMiB: 5}, "warn", JSONFormat, 3, 5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.level, tc.params.GetLevel())
			assert.Equal(t, tc.format, tc.params.GetLogFormat())
			assert.Equal(t, tc.files, tc.params.GetMaxFiles())
			assert.Equal(t, tc.size, tc.params.GetMaxSize())
		})
	}
}

func TestScrubbers(t *testing.T) {
	assert.True(t, IsSensitive("Password"))
	assert.True(t, IsSensitive("WMI_USER"))
	assert.False(t, IsSensitive("namespace"))

	assert.Equal(t, []string{"query", "SELECT"}, Scrubber([]string{"query", "SELECT"}))
	assert.Equal(t, []string{mask}, Scrubber([]string{"-password", "hunter2"}))

	in := map[string]string{"namespace": `ROOT\CIMV2`, "password": "hunter2", "user": "admin"}
	out := MapScrubber(in)
	assert.Equal(t, `ROOT\CIMV2`, out["namespace"])
	assert.Equal(t, mask, out["password"])
	assert.Equal(t, mask, out["user"])
	assert.Equal(t, "hunter2", in["password"], "input map must not be modified")
}

func TestCRLF(t *testing.T) {
	assert.Equal(t, []byte("a\r\n"), crlf([]byte("a\n")))
	assert.Equal(t, []byte("a\r\n"), crlf([]byte("a\r\n")))
	assert.Equal(t, []byte("a"), crlf([]byte("a")))
	assert.Empty(t, crlf(nil))
}

func TestHTTPLogger(t *testing.T) {
	handler := HTTPLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), "teapot")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/brew", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestLogToSpan(t *testing.T) {
	tracer := mocktracer.New()
	span := tracer.StartSpan("op")
	ctx := opentracing.ContextWithSpan(context.Background(), span)

	LogToSpan(ctx, "enumerated", Fields{"count": 3})
	LogToSpan(context.Background(), "ignored", nil)
	span.Finish()

	finished := tracer.FinishedSpans()
	require.Len(t, finished, 1)
	require.Len(t, finished[0].Logs(), 1)
	assert.Equal(t, "enumerated", finished[0].Logs()[0].Fields[0].ValueString)

	// spans from other tracers carry no jaeger ids
	entry := WithSpan(ctx)
	assert.NotContains(t, entry.Data, "traceID")
}

func TestInitTracing(t *testing.T) {
	t.Setenv("JAEGER_DISABLED", "true")
	closer, err := InitTracing("wmiclient-test")
	require.NoError(t, err)
	require.NotNil(t, closer)
	assert.NoError(t, closer.Close())
}
