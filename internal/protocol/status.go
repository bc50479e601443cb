package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// WorkState is the device-reported activity state.
type WorkState uint32

const (
	WorkStateStandby     WorkState = 0
	WorkStateSleep       WorkState = 1
	WorkStateFault       WorkState = 2
	WorkStateCharging    WorkState = 3
	WorkStateFastMapping WorkState = 4
	WorkStateCleaning    WorkState = 5
	WorkStateRemoteCtrl  WorkState = 6
	WorkStateGoHome      WorkState = 7
	WorkStateCruising    WorkState = 8
)

// String returns the state's wire name for logs.
func (w WorkState) String() string {
	switch w {
	case WorkStateStandby:
		return "STANDBY"
	case WorkStateSleep:
		return "SLEEP"
	case WorkStateFault:
		return "FAULT"
	case WorkStateCharging:
		return "CHARGING"
	case WorkStateFastMapping:
		return "FAST_MAPPING"
	case WorkStateCleaning:
		return "CLEANING"
	case WorkStateRemoteCtrl:
		return "REMOTE_CTRL"
	case WorkStateGoHome:
		return "GO_HOME"
	case WorkStateCruising:
		return "CRUISING"
	default:
		return fmt.Sprintf("WORK_STATE(%d)", uint32(w))
	}
}

// GoWashState is the docking-station wash/dry sub-state reported while
// the robot sits on a multi-function dock.
type GoWashState uint32

const (
	GoWashIdle    GoWashState = 0
	GoWashWashing GoWashState = 1
	GoWashDrying  GoWashState = 2
)

// WorkStatus is the device's activity report.
type WorkStatus struct {
	Mode   string
	State  WorkState
	GoWash GoWashState
}

func (w *WorkStatus) Marshal() []byte {
	var b []byte
	b = appendString(b, 1, w.Mode)
	b = appendVarint(b, 2, uint64(w.State))
	b = appendVarint(b, 3, uint64(w.GoWash))
	return b
}

func (w *WorkStatus) Unmarshal(data []byte) error {
	*w = WorkStatus{}
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			if v, ok := s.bytes(); ok {
				w.Mode = string(v)
			}
		case 2:
			if v, ok := s.varint(); ok {
				w.State = WorkState(v)
			}
		case 3:
			if v, ok := s.varint(); ok {
				w.GoWash = GoWashState(v)
			}
		default:
			s.skip()
		}
	}
	return s.err()
}

// ErrorCode is the device's active warning list. An empty Warn slice
// means no active faults.
type ErrorCode struct {
	Warn []uint32
}

func (e *ErrorCode) Marshal() []byte {
	var b []byte
	b = appendPackedVarints(b, 1, e.Warn)
	return b
}

func (e *ErrorCode) Unmarshal(data []byte) error {
	*e = ErrorCode{}
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			// Accept both packed and unpacked repeated encodings.
			if s.typ == protowire.VarintType {
				if v, ok := s.varint(); ok {
					e.Warn = append(e.Warn, uint32(v))
				}
				continue
			}
			if body, ok := s.bytes(); ok {
				warns, err := consumePackedVarints(body)
				if err != nil {
					return err
				}
				e.Warn = append(e.Warn, warns...)
			}
		default:
			s.skip()
		}
	}
	return s.err()
}
