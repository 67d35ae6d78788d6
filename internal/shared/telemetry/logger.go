// Package telemetry writes JSON-lines logs to stdout and forwards errors to Rollbar when enabled.
package telemetry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rollbar/rollbar-go"
)

var (
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	reports bool
)

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	write("info", msg, fields)
}

// Error writes an error-level log line and reports it to Rollbar if configured.
func Error(msg string, fields map[string]any) {
	write("error", msg, fields)
	mu.Lock()
	enabled := reports
	mu.Unlock()
	if enabled {
		rollbar.Error(msg, map[string]interface{}(fields))
	}
}

// EnableRollbar forwards Error calls to Rollbar. An empty token leaves reporting off.
func EnableRollbar(token, env, codeVersion string) {
	if token == "" {
		return
	}
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	if codeVersion != "" {
		rollbar.SetCodeVersion(codeVersion)
	}
	if host, err := os.Hostname(); err == nil {
		rollbar.SetServerHost(host)
	}
	rollbar.SetEnabled(true)
	mu.Lock()
	reports = true
	mu.Unlock()
}

// Flush waits for queued Rollbar reports.
func Flush() {
	mu.Lock()
	enabled := reports
	mu.Unlock()
	if enabled {
		rollbar.Wait()
	}
}

// SetOutput redirects log lines and returns a function restoring the previous writer.
func SetOutput(w io.Writer) func() {
	mu.Lock()
	defer mu.Unlock()
	prev := out
	out = w
	return func() {
		mu.Lock()
		defer mu.Unlock()
		out = prev
	}
}

func write(level, msg string, fields map[string]any) {
	entry := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		entry[k] = v
	}
	entry["ts"] = time.Now().UTC().Format(time.RFC3339)
	entry["level"] = level
	entry["msg"] = msg

	mu.Lock()
	defer mu.Unlock()
	data, err := json.Marshal(entry)
	if err != nil {
		fmt.Fprintf(out, `{"ts":"%s","level":"error","msg":"logger marshal failed","err":%q}`+"\n", time.Now().UTC().Format(time.RFC3339), err.Error())
		return
	}
	fmt.Fprintln(out, string(data))
}
