package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestContextFieldsReachOutput(t *testing.T) {
	var buf bytes.Buffer
	base := New(&Config{Level: "debug", Format: "json", Output: &buf, ServiceName: "test"})

	ctx := base.WithContext(context.Background())
	ctx = SetRequestID(ctx, "req-1")
	ctx = WithField(ctx, FieldApplicationID, int64(7))

	With(Fields{FieldCount: 3}).Info(ctx, "imported %d rows", 3)

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}

	if line["message"] != "imported 3 rows" {
		t.Errorf("message = %v", line["message"])
	}
	if line[FieldRequestID] != "req-1" {
		t.Errorf("request_id = %v, want req-1", line[FieldRequestID])
	}
	if line[FieldApplicationID] != float64(7) {
		t.Errorf("application_id = %v, want 7", line[FieldApplicationID])
	}
	if line[FieldCount] != float64(3) {
		t.Errorf("count = %v, want 3", line[FieldCount])
	}
	if line["service"] != "test" {
		t.Errorf("service = %v, want test", line["service"])
	}
	if GetRequestID(ctx) != "req-1" {
		t.Errorf("GetRequestID = %q", GetRequestID(ctx))
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) != GetDefault() {
		t.Error("expected default logger for bare context")
	}
}
