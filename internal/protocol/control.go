package protocol

import "fmt"

// Method selects the action carried by a mode-control command.
type Method uint32

const (
	MethodStartAutoClean        Method = 0
	MethodStartSelectRoomsClean Method = 1
	MethodStartZoneClean        Method = 2
	MethodStartSpotClean        Method = 3
	MethodStartGotoClean        Method = 4
	MethodStartRCClean          Method = 5
	MethodStartGoHome           Method = 6
	MethodStartScheduleAuto     Method = 7
	MethodStartScheduleRooms    Method = 8
	MethodStartFastMapping      Method = 9
	MethodStartGoWash           Method = 10
	MethodStopTask              Method = 12
	MethodPauseTask             Method = 13
	MethodResumeTask            Method = 14
	MethodStopGoHome            Method = 15
	MethodStopRCClean           Method = 16
	MethodStopGoWash            Method = 17
	MethodStopSmartFollow       Method = 18
	MethodStartGlobalCruise     Method = 19
	MethodStartPointCruise      Method = 20
	MethodStartZonesCruise      Method = 21
	MethodStartSceneClean       Method = 22
	MethodStartMappingThenClean Method = 23
	MethodSelectMap             Method = 24
	MethodStartQuickClean       Method = 25
)

// Room identifies one room in a select-rooms clean, with its cleaning
// order within the run.
type Room struct {
	ID    uint32
	Order uint32
}

// SelectRoomsClean carries the room selection for a room clean.
type SelectRoomsClean struct {
	Rooms []Room
	Mode  uint32
	MapID uint32
}

// Zone is a rectangle in map coordinates.
type Zone struct {
	X0, Y0, X1, Y1 uint32
}

// ZoneClean carries the zone selection for a zone clean.
type ZoneClean struct {
	Zones []Zone
}

// SceneClean starts a vendor-app scene by its wire id.
type SceneClean struct {
	SceneID uint32
}

// SelectMap switches the device's active map.
type SelectMap struct {
	MapID uint32
}

// AutoClean carries the flags for a whole-home clean.
type AutoClean struct {
	ForceMapping bool
	CleanTimes   uint32
}

// ModeCtrlRequest is the outbound mode-control command. Exactly one of
// the optional sub-messages accompanies methods that need parameters.
type ModeCtrlRequest struct {
	Method           Method
	AutoClean        *AutoClean
	SelectRoomsClean *SelectRoomsClean
	ZoneClean        *ZoneClean
	SceneClean       *SceneClean
	SelectMap        *SelectMap
}

func (m *ModeCtrlRequest) Marshal() []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(m.Method))
	if m.AutoClean != nil {
		b = appendMessage(b, 2, m.AutoClean.marshal())
	}
	if m.SelectRoomsClean != nil {
		b = appendMessage(b, 3, m.SelectRoomsClean.marshal())
	}
	if m.ZoneClean != nil {
		b = appendMessage(b, 4, m.ZoneClean.marshal())
	}
	if m.SceneClean != nil {
		b = appendMessage(b, 5, m.SceneClean.marshal())
	}
	if m.SelectMap != nil {
		b = appendMessage(b, 6, m.SelectMap.marshal())
	}
	return b
}

func (m *ModeCtrlRequest) Unmarshal(data []byte) error {
	*m = ModeCtrlRequest{}
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			if v, ok := s.varint(); ok {
				m.Method = Method(v)
			}
		case 2:
			if body, ok := s.bytes(); ok {
				ac := &AutoClean{}
				if err := ac.unmarshal(body); err != nil {
					return err
				}
				m.AutoClean = ac
			}
		case 3:
			if body, ok := s.bytes(); ok {
				rc := &SelectRoomsClean{}
				if err := rc.unmarshal(body); err != nil {
					return err
				}
				m.SelectRoomsClean = rc
			}
		case 4:
			if body, ok := s.bytes(); ok {
				zc := &ZoneClean{}
				if err := zc.unmarshal(body); err != nil {
					return err
				}
				m.ZoneClean = zc
			}
		case 5:
			if body, ok := s.bytes(); ok {
				sc := &SceneClean{}
				if err := sc.unmarshal(body); err != nil {
					return err
				}
				m.SceneClean = sc
			}
		case 6:
			if body, ok := s.bytes(); ok {
				sm := &SelectMap{}
				if err := sm.unmarshal(body); err != nil {
					return err
				}
				m.SelectMap = sm
			}
		default:
			s.skip()
		}
	}
	return s.err()
}

func (a *AutoClean) marshal() []byte {
	var b []byte
	b = appendBool(b, 1, a.ForceMapping)
	b = appendVarint(b, 2, uint64(a.CleanTimes))
	return b
}

func (a *AutoClean) unmarshal(data []byte) error {
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			if v, ok := s.varint(); ok {
				a.ForceMapping = v != 0
			}
		case 2:
			if v, ok := s.varint(); ok {
				a.CleanTimes = uint32(v)
			}
		default:
			s.skip()
		}
	}
	return s.err()
}

func (r *SelectRoomsClean) marshal() []byte {
	var b []byte
	for _, room := range r.Rooms {
		b = appendMessage(b, 1, room.marshal())
	}
	b = appendVarint(b, 2, uint64(r.Mode))
	b = appendVarint(b, 3, uint64(r.MapID))
	return b
}

func (r *SelectRoomsClean) unmarshal(data []byte) error {
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			if body, ok := s.bytes(); ok {
				var room Room
				if err := room.unmarshal(body); err != nil {
					return err
				}
				r.Rooms = append(r.Rooms, room)
			}
		case 2:
			if v, ok := s.varint(); ok {
				r.Mode = uint32(v)
			}
		case 3:
			if v, ok := s.varint(); ok {
				r.MapID = uint32(v)
			}
		default:
			s.skip()
		}
	}
	return s.err()
}

func (r *Room) marshal() []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(r.ID))
	b = appendVarint(b, 2, uint64(r.Order))
	return b
}

func (r *Room) unmarshal(data []byte) error {
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			if v, ok := s.varint(); ok {
				r.ID = uint32(v)
			}
		case 2:
			if v, ok := s.varint(); ok {
				r.Order = uint32(v)
			}
		default:
			s.skip()
		}
	}
	return s.err()
}

func (z *ZoneClean) marshal() []byte {
	var b []byte
	for _, zone := range z.Zones {
		b = appendMessage(b, 1, zone.marshal())
	}
	return b
}

func (z *ZoneClean) unmarshal(data []byte) error {
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			if body, ok := s.bytes(); ok {
				var zone Zone
				if err := zone.unmarshal(body); err != nil {
					return err
				}
				z.Zones = append(z.Zones, zone)
			}
		default:
			s.skip()
		}
	}
	return s.err()
}

func (z *Zone) marshal() []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(z.X0))
	b = appendVarint(b, 2, uint64(z.Y0))
	b = appendVarint(b, 3, uint64(z.X1))
	b = appendVarint(b, 4, uint64(z.Y1))
	return b
}

func (z *Zone) unmarshal(data []byte) error {
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			if v, ok := s.varint(); ok {
				z.X0 = uint32(v)
			}
		case 2:
			if v, ok := s.varint(); ok {
				z.Y0 = uint32(v)
			}
		case 3:
			if v, ok := s.varint(); ok {
				z.X1 = uint32(v)
			}
		case 4:
			if v, ok := s.varint(); ok {
				z.Y1 = uint32(v)
			}
		default:
			s.skip()
		}
	}
	return s.err()
}

func (c *SceneClean) marshal() []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(c.SceneID))
	return b
}

func (c *SceneClean) unmarshal(data []byte) error {
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			if v, ok := s.varint(); ok {
				c.SceneID = uint32(v)
			}
		default:
			s.skip()
		}
	}
	return s.err()
}

func (m *SelectMap) marshal() []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(m.MapID))
	return b
}

func (m *SelectMap) unmarshal(data []byte) error {
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			if v, ok := s.varint(); ok {
				m.MapID = uint32(v)
			}
		default:
			s.skip()
		}
	}
	return s.err()
}

// ModeCtrlResponse is the device's acknowledgement of the last
// mode-control command: the method it is now executing.
type ModeCtrlResponse struct {
	Method Method
}

func (m *ModeCtrlResponse) Marshal() []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(m.Method))
	return b
}

func (m *ModeCtrlResponse) Unmarshal(data []byte) error {
	*m = ModeCtrlResponse{}
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			if v, ok := s.varint(); ok {
				m.Method = Method(v)
			}
		default:
			s.skip()
		}
	}
	return s.err()
}

// String returns the method's wire name for logs.
func (m Method) String() string {
	switch m {
	case MethodStartAutoClean:
		return "START_AUTO_CLEAN"
	case MethodStartSelectRoomsClean:
		return "START_SELECT_ROOMS_CLEAN"
	case MethodStartZoneClean:
		return "START_ZONE_CLEAN"
	case MethodStartSpotClean:
		return "START_SPOT_CLEAN"
	case MethodStartGotoClean:
		return "START_GOTO_CLEAN"
	case MethodStartRCClean:
		return "START_RC_CLEAN"
	case MethodStartGoHome:
		return "START_GOHOME"
	case MethodStartScheduleAuto:
		return "START_SCHEDULE_AUTO_CLEAN"
	case MethodStartScheduleRooms:
		return "START_SCHEDULE_ROOMS_CLEAN"
	case MethodStartFastMapping:
		return "START_FAST_MAPPING"
	case MethodStartGoWash:
		return "START_GOWASH"
	case MethodStopTask:
		return "STOP_TASK"
	case MethodPauseTask:
		return "PAUSE_TASK"
	case MethodResumeTask:
		return "RESUME_TASK"
	case MethodStopGoHome:
		return "STOP_GOHOME"
	case MethodStopRCClean:
		return "STOP_RC_CLEAN"
	case MethodStopGoWash:
		return "STOP_GOWASH"
	case MethodStopSmartFollow:
		return "STOP_SMART_FOLLOW"
	case MethodStartGlobalCruise:
		return "START_GLOBAL_CRUISE"
	case MethodStartPointCruise:
		return "START_POINT_CRUISE"
	case MethodStartZonesCruise:
		return "START_ZONES_CRUISE"
	case MethodStartSceneClean:
		return "START_SCENE_CLEAN"
	case MethodStartMappingThenClean:
		return "START_MAPPING_THEN_CLEAN"
	case MethodSelectMap:
		return "SELECT_MAP"
	case MethodStartQuickClean:
		return "START_QUICK_CLEAN"
	default:
		return fmt.Sprintf("METHOD(%d)", uint32(m))
	}
}
