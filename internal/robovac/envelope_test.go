package robovac

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestBrokerClientID(t *testing.T) {
	got := brokerClientID("eufy_home", "udid-1", "user-1")
	want := "android-eufy_home-eufy_android_udid-1_user-1"
	if got != want {
		t.Errorf("brokerClientID() = %q, want %q", got, want)
	}
}

func TestWallClockMillis(t *testing.T) {
	// Sub-second precision is deliberately dropped.
	now := time.Unix(1700000000, 123456789)
	if got := wallClockMillis(now); got != 1700000000000 {
		t.Errorf("wallClockMillis() = %d, want 1700000000000", got)
	}
}

func TestBuildEnvelope(t *testing.T) {
	now := time.Unix(1700000000, 0)
	raw, err := buildEnvelope("client-1", "account-1", "SN123", map[string]any{"152": "AA=="}, now)
	if err != nil {
		t.Fatalf("buildEnvelope() error: %v", err)
	}

	var outer struct {
		Head    map[string]any `json:"head"`
		Payload string         `json:"payload"`
	}
	if err := json.Unmarshal(raw, &outer); err != nil {
		t.Fatalf("envelope is not valid JSON: %v", err)
	}

	wantHead := map[string]any{
		"client_id":  "client-1",
		"cmd":        float64(65537),
		"cmd_status": float64(2),
		"msg_seq":    float64(1),
		"seed":       "",
		"sess_id":    "client-1",
		"sign_code":  float64(0),
		"timestamp":  float64(1700000000000),
		"version":    "1.0.0.1",
	}
	if !reflect.DeepEqual(outer.Head, wantHead) {
		t.Errorf("head = %v, want %v", outer.Head, wantHead)
	}

	// The payload must be a string holding its own JSON document.
	var inner struct {
		AccountID string         `json:"account_id"`
		Data      map[string]any `json:"data"`
		DeviceSN  string         `json:"device_sn"`
		Protocol  int            `json:"protocol"`
		T         int64          `json:"t"`
	}
	if err := json.Unmarshal([]byte(outer.Payload), &inner); err != nil {
		t.Fatalf("payload is not a nested JSON string: %v", err)
	}
	if inner.AccountID != "account-1" || inner.DeviceSN != "SN123" {
		t.Errorf("payload identity = %q/%q", inner.AccountID, inner.DeviceSN)
	}
	if inner.Protocol != 2 {
		t.Errorf("payload protocol = %d, want 2", inner.Protocol)
	}
	if inner.T != 1700000000000 {
		t.Errorf("payload t = %d, want 1700000000000", inner.T)
	}
	if inner.Data["152"] != "AA==" {
		t.Errorf("payload data = %v", inner.Data)
	}
}

func TestParseInbound(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    map[string]any
		wantErr bool
	}{
		{
			name: "payload as nested JSON string",
			raw:  `{"head":{},"payload":"{\"data\":{\"163\":87}}"}`,
			want: map[string]any{"163": float64(87)},
		},
		{
			name: "payload as embedded object",
			raw:  `{"payload":{"data":{"152":"AA=="}}}`,
			want: map[string]any{"152": "AA=="},
		},
		{
			name: "missing payload",
			raw:  `{"head":{}}`,
			want: nil,
		},
		{
			name: "payload without data",
			raw:  `{"payload":"{\"t\":1}"}`,
			want: nil,
		},
		{
			name:    "not JSON",
			raw:     `not json`,
			wantErr: true,
		},
		{
			name:    "payload string holding garbage",
			raw:     `{"payload":"not json"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseInbound([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatal("parseInbound() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("parseInbound() error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseInbound() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	raw, err := buildEnvelope("c", "a", "sn", map[string]any{"158": float64(2)}, time.Unix(1, 0))
	if err != nil {
		t.Fatalf("buildEnvelope() error: %v", err)
	}
	batch, err := parseInbound(raw)
	if err != nil {
		t.Fatalf("parseInbound() error: %v", err)
	}
	if batch["158"] != float64(2) {
		t.Errorf("round trip batch = %v", batch)
	}
}
