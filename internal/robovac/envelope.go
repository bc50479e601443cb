package robovac

import (
	"encoding/json"
	"fmt"
	"time"
)

// Outbound envelope constants, fixed by the vendor app.
const (
	envelopeCmd       = 65537
	envelopeCmdStatus = 2
	envelopeVersion   = "1.0.0.1"
	payloadProtocol   = 2
)

// envelopeHead is the fixed header every outbound message carries.
type envelopeHead struct {
	ClientID  string `json:"client_id"`
	Cmd       int    `json:"cmd"`
	CmdStatus int    `json:"cmd_status"`
	MsgSeq    int    `json:"msg_seq"`
	Seed      string `json:"seed"`
	SessID    string `json:"sess_id"`
	SignCode  int    `json:"sign_code"`
	Timestamp int64  `json:"timestamp"`
	Version   string `json:"version"`
}

// envelope is the outer wire message. The payload is itself a JSON
// document carried as a string, one nesting level down.
type envelope struct {
	Head    envelopeHead `json:"head"`
	Payload string       `json:"payload"`
}

// commandPayload is the inner document of an outbound command.
type commandPayload struct {
	AccountID string         `json:"account_id"`
	Data      map[string]any `json:"data"`
	DeviceSN  string         `json:"device_sn"`
	Protocol  int            `json:"protocol"`
	T         int64          `json:"t"`
}

// brokerClientID builds the broker identity the vendor app presents.
func brokerClientID(appName, openudid, userID string) string {
	return fmt.Sprintf("android-%s-eufy_android_%s_%s", appName, openudid, userID)
}

// wallClockMillis is the envelope timestamp: milliseconds at second
// resolution, matching what device firmware accepts on both dialects.
func wallClockMillis(now time.Time) int64 {
	return now.Unix() * 1000
}

// buildEnvelope wraps a data-point batch in the vendor command envelope.
func buildEnvelope(clientID, accountID, deviceSN string, data map[string]any, now time.Time) ([]byte, error) {
	ts := wallClockMillis(now)

	inner, err := json.Marshal(commandPayload{
		AccountID: accountID,
		Data:      data,
		DeviceSN:  deviceSN,
		Protocol:  payloadProtocol,
		T:         ts,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding command payload: %w", err)
	}

	out, err := json.Marshal(envelope{
		Head: envelopeHead{
			ClientID:  clientID,
			Cmd:       envelopeCmd,
			CmdStatus: envelopeCmdStatus,
			MsgSeq:    1,
			Seed:      "",
			SessID:    clientID,
			SignCode:  0,
			Timestamp: ts,
			Version:   envelopeVersion,
		},
		Payload: string(inner),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding envelope: %w", err)
	}
	return out, nil
}

// parseInbound extracts the data-point batch from an inbound envelope.
//
// The payload arrives either as an embedded object or as a JSON string
// needing one more parse, depending on firmware. A message without a
// data batch is valid (some reports are pure acknowledgements) and
// yields a nil batch with no error.
func parseInbound(raw []byte) (map[string]any, error) {
	var outer struct {
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, fmt.Errorf("parsing envelope: %w", err)
	}
	if len(outer.Payload) == 0 {
		return nil, nil
	}

	payload := outer.Payload
	var nested string
	if err := json.Unmarshal(payload, &nested); err == nil {
		payload = []byte(nested)
	}

	var inner struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(payload, &inner); err != nil {
		return nil, fmt.Errorf("parsing payload: %w", err)
	}
	return inner.Data, nil
}
