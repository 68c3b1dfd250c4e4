package config

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestLogLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"debug":   logrus.DebugLevel,
		"info":    logrus.InfoLevel,
		"warn":    logrus.WarnLevel,
		"error":   logrus.ErrorLevel,
		"unknown": logrus.DebugLevel,
	}

	for s, l := range cases {
		if got := LogLevel(s); got != l {
			t.Fatalf("LogLevel(%s) should be %s, not %s", s, l, got)
		}
	}
}

func TestDefaultConfig(t *testing.T) {
	c := NewDefaultConfig()

	if c.TickInterval != DefaultTickInterval {
		t.Fatalf("TickInterval should be %v, not %v", DefaultTickInterval, c.TickInterval)
	}
	if c.CounterKey != "counter" || c.KVNode != "seq-kv" {
		t.Fatalf("unexpected counter settings %s %s", c.CounterKey, c.KVNode)
	}
	if c.ServiceAddr != "" {
		t.Fatalf("the service should be disabled by default")
	}
}

func TestLoggerFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "glomers-log")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	file := filepath.Join(dir, "node.log")
	out := new(bytes.Buffer)

	logger := newLogger(out, "info", file)
	logger.WithField("prefix", "test").Info("hello")
	logger.Debug("hidden")

	if !strings.Contains(out.String(), "hello") {
		t.Fatalf("console output should contain the entry, got %q", out.String())
	}

	data, err := ioutil.ReadFile(file)
	if err != nil {
		t.Fatalf("err: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("log file should contain 1 entry, not %d: %s", len(lines), data)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log file entries should be JSON: %v", err)
	}
	if entry["msg"] != "hello" {
		t.Fatalf("msg should be hello, not %v", entry["msg"])
	}
}
