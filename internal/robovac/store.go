package robovac

import (
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/ashdale/robovac-bridge/internal/protocol"
)

// Logger is the minimal logging interface this package needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Store is the in-memory device state: the authoritative raw data-point
// cache plus the normalized view derived from it.
//
// Writes come only from the owning session's serialized handler; reads
// may come from any goroutine. Structured values are decoded lazily on
// read, not on write — a raw value may be overwritten many times before
// anyone looks at it.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Store struct {
	mu           sync.RWMutex
	raw          map[string]any
	normalized   map[Field]any
	dialect      Dialect
	dialectKnown bool

	logger Logger
}

// NewStore creates an empty state store.
func NewStore(logger Logger) *Store {
	return &Store{
		raw:        make(map[string]any),
		normalized: make(map[Field]any),
		logger:     logger,
	}
}

// ApplyRaw merges a raw data-point batch and incrementally updates the
// normalized view for exactly the fields the batch touches. The first
// non-empty batch fixes the session's dialect. Returns the touched
// normalized fields; an empty batch touches nothing.
func (s *Store) ApplyRaw(batch map[string]any) []Field {
	if len(batch) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dialectKnown {
		s.dialect = Classify(batch)
		s.dialectKnown = true
	}

	for key, value := range batch {
		s.raw[key] = value
	}

	normalized := Normalize(batch, s.dialect)
	touched := make([]Field, 0, len(normalized))
	for field, value := range normalized {
		s.normalized[field] = value
		touched = append(touched, field)
	}
	return touched
}

// Dialect returns the classified dialect. Before any batch has been
// seen it reports the novel dialect, the conservative default.
func (s *Store) Dialect() Dialect {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.dialectKnown {
		return DialectNovel
	}
	return s.dialect
}

// Raw reads one raw data point by its vendor wire code. ok is false
// when the device has never reported the key.
func (s *Store) Raw(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.raw[key]
	return v, ok
}

// get reads one normalized field. ok is false when the field has never
// been reported.
func (s *Store) get(field Field) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.normalized[field]
	return v, ok
}

// Activity derives the normalized activity from the work-status report.
//
// Vendor states map as: standby/sleep → idle, fault → error,
// charging → docked, fast-mapping/go-home → returning, and the cleaning
// family → cleaning, except that a "cleaning" report while the dock is
// drying the mop means the run is over and the device is docked.
// An unknown state is reported as idle with a warning; a missing or
// undecodable report is an error, since the device's condition is
// simply not known.
func (s *Store) Activity() Activity {
	raw, ok := s.get(FieldWorkStatus)
	if !ok {
		return ActivityError
	}
	encoded, ok := rawString(raw)
	if !ok {
		return ActivityError
	}
	msg, err := decodeDataPoint(protocol.SchemaWorkStatus, encoded)
	if err != nil {
		s.logWarn("undecodable work status", "error", err)
		return ActivityError
	}
	ws := msg.(*protocol.WorkStatus)

	switch ws.State {
	case protocol.WorkStateStandby, protocol.WorkStateSleep:
		return ActivityIdle
	case protocol.WorkStateFault:
		return ActivityError
	case protocol.WorkStateCharging:
		return ActivityDocked
	case protocol.WorkStateFastMapping, protocol.WorkStateGoHome:
		return ActivityReturning
	case protocol.WorkStateCleaning:
		if ws.GoWash == protocol.GoWashDrying {
			// Drying up after a cleaning run; the robot is on the dock.
			return ActivityDocked
		}
		return ActivityCleaning
	case protocol.WorkStateRemoteCtrl, protocol.WorkStateCruising:
		return ActivityCleaning
	default:
		s.logWarn("unknown work state", "state", uint32(ws.State))
		return ActivityIdle
	}
}

// WorkMode returns the device-reported cleaning mode, defaulting to
// "auto" when unreported.
func (s *Store) WorkMode() string {
	raw, ok := s.get(FieldWorkMode)
	if !ok {
		return "auto"
	}
	encoded, ok := rawString(raw)
	if !ok {
		return "auto"
	}
	msg, err := decodeDataPoint(protocol.SchemaWorkStatus, encoded)
	if err != nil {
		return "auto"
	}
	if mode := msg.(*protocol.WorkStatus).Mode; mode != "" {
		return strings.ToLower(mode)
	}
	return "auto"
}

// BatteryLevel returns the battery percentage. ok is false when the
// data point is absent or not a number; that is never an error.
func (s *Store) BatteryLevel() (int, bool) {
	raw, ok := s.get(FieldBatteryLevel)
	if !ok || raw == nil {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			s.logWarn("invalid battery level", "value", v)
			return 0, false
		}
		return n, true
	default:
		s.logWarn("invalid battery level", "value", raw)
		return 0, false
	}
}

// CleanSpeed returns the suction level name, defaulting to "standard"
// for absent or unresolvable values.
func (s *Store) CleanSpeed() string {
	raw, _ := s.get(FieldCleanSpeed)
	return protocol.ResolveCleanSpeed(raw)
}

// ErrorCode returns the first active warning code, or 0 when the device
// reports none.
func (s *Store) ErrorCode() int {
	raw, ok := s.get(FieldErrorCode)
	if !ok {
		return 0
	}
	encoded, ok := rawString(raw)
	if !ok {
		return 0
	}
	msg, err := decodeDataPoint(protocol.SchemaErrorCode, encoded)
	if err != nil {
		s.logWarn("undecodable error code", "error", err)
		return 0
	}
	if warns := msg.(*protocol.ErrorCode).Warn; len(warns) > 0 {
		return int(warns[0])
	}
	return 0
}

// PlayPause reports whether the play/pause data point is truthy.
func (s *Store) PlayPause() bool {
	raw, ok := s.get(FieldPlayPause)
	return ok && truthy(raw)
}

// FindRobot reports whether the locate beacon is active.
func (s *Store) FindRobot() bool {
	raw, ok := s.get(FieldFindRobot)
	return ok && truthy(raw)
}

// ControlResponse decodes the device's acknowledgement of the last
// mode-control command. Returns nil when none has been reported.
func (s *Store) ControlResponse() *protocol.ModeCtrlResponse {
	raw, ok := s.get(FieldPlayPause)
	if !ok {
		return nil
	}
	encoded, ok := rawString(raw)
	if !ok || encoded == "" {
		return nil
	}
	msg, err := decodeDataPoint(protocol.SchemaModeControlResponse, encoded)
	if err != nil {
		s.logWarn("undecodable control response", "error", err)
	}
	return msg.(*protocol.ModeCtrlResponse)
}

// CleanParams decodes the device's current cleaning parameters. The
// zero value is returned when absent or undecodable.
func (s *Store) CleanParams() *protocol.CleanParamResponse {
	raw, ok := s.get(FieldCleaningParameters)
	if !ok {
		return &protocol.CleanParamResponse{}
	}
	encoded, ok := rawString(raw)
	if !ok {
		return &protocol.CleanParamResponse{}
	}
	msg, err := decodeDataPoint(protocol.SchemaCleanParamsResponse, encoded)
	if err != nil {
		s.logWarn("undecodable clean params", "error", err)
	}
	return msg.(*protocol.CleanParamResponse)
}

// Snapshot returns a copy of the normalized state for observers and
// telemetry.
func (s *Store) Snapshot() map[Field]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Field]any, len(s.normalized))
	for k, v := range s.normalized {
		out[k] = v
	}
	return out
}

func (s *Store) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

// decodeDataPoint decodes a structured data-point value. An empty
// payload is a valid all-defaults message, not a failure: a work status
// of standby/auto, for example, encodes to zero bytes.
func decodeDataPoint(id protocol.SchemaID, encoded string) (protocol.Message, error) {
	msg, err := protocol.DecodeBase64(id, encoded)
	if err != nil && errors.Is(err, protocol.ErrEmptyPayload) {
		return msg, nil
	}
	return msg, err
}

// rawString coerces a raw data-point value to its transport string.
func rawString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case []byte:
		return string(s), true
	default:
		return "", false
	}
}

// truthy mirrors the vendor app's loose boolean handling of data points.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int64:
		return x != 0
	case float64:
		return x != 0
	default:
		return true
	}
}
