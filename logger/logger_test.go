package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestConfigureLevels(t *testing.T) {
	log := Logger()
	if err := log.Configure("debug", "json", "stdout", 0); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := log.Configure("nope", "json", "stdout", 0); err == nil {
		t.Fatal("expected error for invalid level")
	}
	if err := log.Configure("info", "xml", "stdout", 0); err == nil {
		t.Fatal("expected error for invalid format")
	}
}

func TestJSONOutputFields(t *testing.T) {
	log := Logger()
	if err := log.Configure("info", "json", "stdout", 0); err != nil {
		t.Fatalf("configure: %v", err)
	}

	var buf bytes.Buffer
	log.SetOutput(&buf)

	log.WithComponent("loader").WithFields(Fields{"resource": "assets"}).Info("loaded")

	line := strings.TrimSpace(buf.String())
	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, line)
	}
	if entry["component"] != "loader" {
		t.Errorf("component = %v", entry["component"])
	}
	if entry["resource"] != "assets" {
		t.Errorf("resource = %v", entry["resource"])
	}
	if entry["message"] != "loaded" {
		t.Errorf("message = %v", entry["message"])
	}
}
