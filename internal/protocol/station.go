package protocol

// ManualActionCmd selects one docking-station manual action. Exactly one
// flag is set per command.
type ManualActionCmd struct {
	GoDry          bool
	GoSelfCleaning bool
	GoCollectDust  bool
}

func (c *ManualActionCmd) marshal() []byte {
	var b []byte
	b = appendBool(b, 1, c.GoDry)
	b = appendBool(b, 2, c.GoSelfCleaning)
	b = appendBool(b, 3, c.GoCollectDust)
	return b
}

func (c *ManualActionCmd) unmarshal(data []byte) error {
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			if v, ok := s.varint(); ok {
				c.GoDry = v != 0
			}
		case 2:
			if v, ok := s.varint(); ok {
				c.GoSelfCleaning = v != 0
			}
		case 3:
			if v, ok := s.varint(); ok {
				c.GoCollectDust = v != 0
			}
		default:
			s.skip()
		}
	}
	return s.err()
}

// StationRequest is the outbound docking-station command.
type StationRequest struct {
	ManualCmd *ManualActionCmd
}

func (r *StationRequest) Marshal() []byte {
	var b []byte
	if r.ManualCmd != nil {
		b = appendMessage(b, 1, r.ManualCmd.marshal())
	}
	return b
}

func (r *StationRequest) Unmarshal(data []byte) error {
	*r = StationRequest{}
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			if body, ok := s.bytes(); ok {
				cmd := &ManualActionCmd{}
				if err := cmd.unmarshal(body); err != nil {
					return err
				}
				r.ManualCmd = cmd
			}
		default:
			s.skip()
		}
	}
	return s.err()
}
