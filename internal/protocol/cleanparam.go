package protocol

// CleanType selects what the robot cleans with.
type CleanType uint32

const (
	CleanTypeSweepAndMop CleanType = 0
	CleanTypeSweepOnly   CleanType = 1
	CleanTypeMopOnly     CleanType = 2
)

// CleanExtent selects how thoroughly an area is covered.
type CleanExtent uint32

const (
	CleanExtentNormal CleanExtent = 0
	CleanExtentNarrow CleanExtent = 1
	CleanExtentQuick  CleanExtent = 2
)

// MopMode sets the water level used while mopping.
type MopMode uint32

const (
	MopModeLow    MopMode = 0
	MopModeMedium MopMode = 1
	MopModeHigh   MopMode = 2
)

// CleanParam bundles the cleaning behaviour knobs changed together by
// the vendor app.
type CleanParam struct {
	CleanType   CleanType
	CleanExtent CleanExtent
	MopMode     MopMode
}

func (p *CleanParam) marshal() []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(p.CleanType))
	b = appendVarint(b, 2, uint64(p.CleanExtent))
	b = appendVarint(b, 3, uint64(p.MopMode))
	return b
}

func (p *CleanParam) unmarshal(data []byte) error {
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			if v, ok := s.varint(); ok {
				p.CleanType = CleanType(v)
			}
		case 2:
			if v, ok := s.varint(); ok {
				p.CleanExtent = CleanExtent(v)
			}
		case 3:
			if v, ok := s.varint(); ok {
				p.MopMode = MopMode(v)
			}
		default:
			s.skip()
		}
	}
	return s.err()
}

// CleanParamRequest is the outbound cleaning-parameter change.
type CleanParamRequest struct {
	CleanParam *CleanParam
}

func (r *CleanParamRequest) Marshal() []byte {
	var b []byte
	if r.CleanParam != nil {
		b = appendMessage(b, 1, r.CleanParam.marshal())
	}
	return b
}

func (r *CleanParamRequest) Unmarshal(data []byte) error {
	*r = CleanParamRequest{}
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			if body, ok := s.bytes(); ok {
				p := &CleanParam{}
				if err := p.unmarshal(body); err != nil {
					return err
				}
				r.CleanParam = p
			}
		default:
			s.skip()
		}
	}
	return s.err()
}

// CleanParamResponse reports the device's current cleaning parameters.
type CleanParamResponse struct {
	CleanParam *CleanParam
}

func (r *CleanParamResponse) Marshal() []byte {
	var b []byte
	if r.CleanParam != nil {
		b = appendMessage(b, 1, r.CleanParam.marshal())
	}
	return b
}

func (r *CleanParamResponse) Unmarshal(data []byte) error {
	*r = CleanParamResponse{}
	s := newFieldScanner(data)
	for s.next() {
		switch s.num {
		case 1:
			if body, ok := s.bytes(); ok {
				p := &CleanParam{}
				if err := p.unmarshal(body); err != nil {
					return err
				}
				r.CleanParam = p
			}
		default:
			s.skip()
		}
	}
	return s.err()
}
