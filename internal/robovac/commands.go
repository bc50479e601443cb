package robovac

import (
	"fmt"

	"github.com/ashdale/robovac-bridge/internal/protocol"
)

// Command facade: each method translates one intent into an encoded
// data point and hands it to the session's outbound path. No command
// waits for the device; acknowledgement, if any, arrives later as an
// ordinary status report.

// sceneIDOffset converts the user-facing scene number to the wire id
// the vendor app sends.
const sceneIDOffset = 3

// sendControl encodes a mode-control request onto the play/pause slot.
func (s *Session) sendControl(req *protocol.ModeCtrlRequest) error {
	return s.sendDataPoint(FieldPlayPause, protocol.Encode(req))
}

// sendDataPoint addresses one normalized field in the session's dialect
// and publishes the value.
func (s *Session) sendDataPoint(field Field, value any) error {
	code, ok := WireCode(s.store.Dialect(), field)
	if !ok {
		return fmt.Errorf("robovac: field %s has no wire code in dialect %s", field, s.store.Dialect())
	}
	return s.publishData(map[string]any{code: value})
}

// Play resumes the current task.
func (s *Session) Play() error {
	return s.sendControl(&protocol.ModeCtrlRequest{Method: protocol.MethodResumeTask})
}

// Pause pauses the current task.
func (s *Session) Pause() error {
	return s.sendControl(&protocol.ModeCtrlRequest{Method: protocol.MethodPauseTask})
}

// Stop aborts the current task.
func (s *Session) Stop() error {
	return s.sendControl(&protocol.ModeCtrlRequest{Method: protocol.MethodStopTask})
}

// GoHome sends the robot back to its dock.
func (s *Session) GoHome() error {
	return s.sendControl(&protocol.ModeCtrlRequest{Method: protocol.MethodStartGoHome})
}

// AutoClean starts a whole-home clean.
func (s *Session) AutoClean() error {
	return s.sendControl(&protocol.ModeCtrlRequest{
		Method:    protocol.MethodStartAutoClean,
		AutoClean: &protocol.AutoClean{CleanTimes: 1},
	})
}

// SpotClean cleans the area around the robot's current position.
func (s *Session) SpotClean() error {
	return s.sendControl(&protocol.ModeCtrlRequest{Method: protocol.MethodStartSpotClean})
}

// RoomClean cleans the given rooms on a map. Room order is preserved:
// the first room gets order 1.
func (s *Session) RoomClean(roomIDs []int, mapID int) error {
	if len(roomIDs) == 0 {
		return ErrNoRooms
	}
	return s.sendControl(&protocol.ModeCtrlRequest{
		Method:           protocol.MethodStartSelectRoomsClean,
		SelectRoomsClean: roomSelection(roomIDs, mapID),
	})
}

// QuickClean runs a fast pass over the given rooms.
func (s *Session) QuickClean(roomIDs []int) error {
	if len(roomIDs) == 0 {
		return ErrNoRooms
	}
	return s.sendControl(&protocol.ModeCtrlRequest{
		Method:           protocol.MethodStartQuickClean,
		SelectRoomsClean: roomSelection(roomIDs, 0),
	})
}

func roomSelection(roomIDs []int, mapID int) *protocol.SelectRoomsClean {
	rooms := make([]protocol.Room, len(roomIDs))
	for i, id := range roomIDs {
		rooms[i] = protocol.Room{ID: uint32(id), Order: uint32(i + 1)}
	}
	return &protocol.SelectRoomsClean{Rooms: rooms, MapID: uint32(mapID)}
}

// ZoneClean cleans the given map rectangles.
func (s *Session) ZoneClean(zones []protocol.Zone) error {
	if len(zones) == 0 {
		return ErrNoZones
	}
	return s.sendControl(&protocol.ModeCtrlRequest{
		Method:    protocol.MethodStartZoneClean,
		ZoneClean: &protocol.ZoneClean{Zones: zones},
	})
}

// SceneClean starts a vendor-app scene by its user-facing number.
func (s *Session) SceneClean(sceneID int) error {
	return s.sendControl(&protocol.ModeCtrlRequest{
		Method:     protocol.MethodStartSceneClean,
		SceneClean: &protocol.SceneClean{SceneID: uint32(sceneID + sceneIDOffset)},
	})
}

// SetMap switches the active map.
func (s *Session) SetMap(mapID int) error {
	return s.sendControl(&protocol.ModeCtrlRequest{
		Method:    protocol.MethodSelectMap,
		SelectMap: &protocol.SelectMap{MapID: uint32(mapID)},
	})
}

// SetCleanSpeed sets the suction level. The name is validated
// case-insensitively against the vendor vocabulary; an unknown name is
// a caller error, never a silent default.
func (s *Session) SetCleanSpeed(name string) error {
	idx, err := protocol.CleanSpeedIndex(name)
	if err != nil {
		return err
	}
	return s.sendDataPoint(FieldCleanSpeed, idx)
}

// SetCleanParam changes the cleaning behaviour knobs (clean type,
// extent, mop water level) in one request.
func (s *Session) SetCleanParam(param *protocol.CleanParam) error {
	value := protocol.Encode(&protocol.CleanParamRequest{CleanParam: param})
	return s.sendDataPoint(FieldCleaningParameters, value)
}

// GoDry asks the dock to dry the mop pads.
func (s *Session) GoDry() error {
	return s.sendStationCommand(&protocol.ManualActionCmd{GoDry: true})
}

// GoSelfClean asks the dock to wash the mop pads.
func (s *Session) GoSelfClean() error {
	return s.sendStationCommand(&protocol.ManualActionCmd{GoSelfCleaning: true})
}

// CollectDust asks the dock to empty the dustbin.
func (s *Session) CollectDust() error {
	return s.sendStationCommand(&protocol.ManualActionCmd{GoCollectDust: true})
}

// sendStationCommand encodes a docking-station request onto the go-home
// slot, where station firmware listens.
func (s *Session) sendStationCommand(cmd *protocol.ManualActionCmd) error {
	value := protocol.Encode(&protocol.StationRequest{ManualCmd: cmd})
	return s.sendDataPoint(FieldGoHome, value)
}
