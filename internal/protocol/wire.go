package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Low-level protobuf wire helpers shared by the schema marshalers.
//
// The vendor schemas are small and stable, so the messages are marshalled
// by hand over protowire primitives rather than from generated code. Zero
// values are omitted (proto3 semantics) and fields are appended in
// ascending field-number order to keep encoding deterministic.

// appendVarint appends a varint field, omitting zero values.
func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// appendBool appends a bool field, omitting false.
func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, 1)
}

// appendString appends a string field, omitting empty strings.
func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

// appendMessage appends an embedded message field, omitting empty bodies.
func appendMessage(b []byte, num protowire.Number, body []byte) []byte {
	if len(body) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}

// appendPackedVarints appends a packed repeated varint field.
func appendPackedVarints(b []byte, num protowire.Number, vs []uint32) []byte {
	if len(vs) == 0 {
		return b
	}
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, uint64(v))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

// fieldScanner walks the fields of a wire-format message body.
//
// Usage:
//
//	s := newFieldScanner(data)
//	for s.next() {
//	    switch s.num {
//	    case 1:
//	        v, ok := s.varint()
//	        ...
//	    }
//	}
//	return s.err()
type fieldScanner struct {
	data []byte
	num  protowire.Number
	typ  protowire.Type
	fail error
}

func newFieldScanner(data []byte) *fieldScanner {
	return &fieldScanner{data: data}
}

// next advances to the next field. Returns false at end of input or on a
// wire-level parse failure (check err afterwards).
func (s *fieldScanner) next() bool {
	if s.fail != nil || len(s.data) == 0 {
		return false
	}
	num, typ, n := protowire.ConsumeTag(s.data)
	if n < 0 {
		s.fail = fmt.Errorf("%w: bad field tag: %v", ErrMalformedPayload, protowire.ParseError(n))
		return false
	}
	s.data = s.data[n:]
	s.num, s.typ = num, typ
	return true
}

// varint consumes the current field as a varint. Non-varint fields are
// skipped and reported as not ok.
func (s *fieldScanner) varint() (uint64, bool) {
	if s.typ != protowire.VarintType {
		s.skip()
		return 0, false
	}
	v, n := protowire.ConsumeVarint(s.data)
	if n < 0 {
		s.fail = fmt.Errorf("%w: bad varint: %v", ErrMalformedPayload, protowire.ParseError(n))
		return 0, false
	}
	s.data = s.data[n:]
	return v, true
}

// bytes consumes the current field as a length-delimited payload.
func (s *fieldScanner) bytes() ([]byte, bool) {
	if s.typ != protowire.BytesType {
		s.skip()
		return nil, false
	}
	v, n := protowire.ConsumeBytes(s.data)
	if n < 0 {
		s.fail = fmt.Errorf("%w: bad length-delimited field: %v", ErrMalformedPayload, protowire.ParseError(n))
		return nil, false
	}
	s.data = s.data[n:]
	return v, true
}

// skip consumes and discards the current field's value.
func (s *fieldScanner) skip() {
	n := protowire.ConsumeFieldValue(s.num, s.typ, s.data)
	if n < 0 {
		s.fail = fmt.Errorf("%w: bad field value: %v", ErrMalformedPayload, protowire.ParseError(n))
		return
	}
	s.data = s.data[n:]
}

// err returns the first wire-level failure encountered, or nil.
func (s *fieldScanner) err() error {
	return s.fail
}

// consumePackedVarints decodes a packed repeated varint payload.
func consumePackedVarints(data []byte) ([]uint32, error) {
	var out []uint32
	for len(data) > 0 {
		v, n := protowire.ConsumeVarint(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: bad packed varint: %v", ErrMalformedPayload, protowire.ParseError(n))
		}
		out = append(out, uint32(v))
		data = data[n:]
	}
	return out, nil
}
