package protocol

import (
	"encoding/base64"
	"fmt"
)

// SchemaID identifies one of the fixed vendor wire schemas.
type SchemaID int

const (
	// SchemaModeControl is the outbound start/stop/pause/resume command.
	SchemaModeControl SchemaID = iota
	// SchemaModeControlResponse is the device's acknowledgement of the
	// last mode-control command.
	SchemaModeControlResponse
	// SchemaWorkStatus is the device's current activity report.
	SchemaWorkStatus
	// SchemaErrorCode is the device's active warning list.
	SchemaErrorCode
	// SchemaCleanParams is the outbound cleaning-parameter change.
	SchemaCleanParams
	// SchemaCleanParamsResponse is the device's current cleaning
	// parameters.
	SchemaCleanParamsResponse
	// SchemaStationCommand is the outbound docking-station manual action.
	SchemaStationCommand
)

// String returns a readable schema name for logs.
func (id SchemaID) String() string {
	switch id {
	case SchemaModeControl:
		return "mode_control"
	case SchemaModeControlResponse:
		return "mode_control_response"
	case SchemaWorkStatus:
		return "work_status"
	case SchemaErrorCode:
		return "error_code"
	case SchemaCleanParams:
		return "clean_params"
	case SchemaCleanParamsResponse:
		return "clean_params_response"
	case SchemaStationCommand:
		return "station_command"
	default:
		return fmt.Sprintf("schema(%d)", int(id))
	}
}

// Message is a vendor wire message that can round-trip through the
// protobuf wire format.
type Message interface {
	// Marshal encodes the message deterministically.
	Marshal() []byte
	// Unmarshal replaces the message contents with the decoded payload.
	Unmarshal(data []byte) error
}

// New returns a fresh zero-valued message for the schema. It panics on an
// unknown SchemaID: schema selection is fixed at compile time, so an
// unknown id is a programming error, not a runtime condition.
func New(id SchemaID) Message {
	switch id {
	case SchemaModeControl:
		return &ModeCtrlRequest{}
	case SchemaModeControlResponse:
		return &ModeCtrlResponse{}
	case SchemaWorkStatus:
		return &WorkStatus{}
	case SchemaErrorCode:
		return &ErrorCode{}
	case SchemaCleanParams:
		return &CleanParamRequest{}
	case SchemaCleanParamsResponse:
		return &CleanParamResponse{}
	case SchemaStationCommand:
		return &StationRequest{}
	default:
		panic(fmt.Sprintf("protocol: unknown schema id %d", int(id)))
	}
}

// Decode parses raw wire bytes against the schema. On failure the returned
// message is fresh and zero-valued, so callers can use it safely after
// logging the error.
func Decode(id SchemaID, data []byte) (Message, error) {
	msg := New(id)
	if len(data) == 0 {
		return msg, fmt.Errorf("decode %s: %w", id, ErrEmptyPayload)
	}
	if err := msg.Unmarshal(data); err != nil {
		return New(id), fmt.Errorf("decode %s: %w", id, err)
	}
	return msg, nil
}

// Encode marshals a message and wraps it in the base64 transport encoding
// used for structured data points.
func Encode(msg Message) string {
	return base64.StdEncoding.EncodeToString(msg.Marshal())
}

// DecodeBase64 strips the base64 transport encoding and parses the
// payload against the schema. Like Decode, failures yield a zero-valued
// message plus an error.
func DecodeBase64(id SchemaID, raw string) (Message, error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return New(id), fmt.Errorf("decode %s: %w: %v", id, ErrMalformedPayload, err)
	}
	return Decode(id, data)
}
