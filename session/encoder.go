package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// CurrentSchemaVersion is the schema byte written by [Encode].
const CurrentSchemaVersion uint8 = 1

// MaxEncodedPayload caps the payload section of an encoded session.
const MaxEncodedPayload = 1 << 24

var (
	errUserIDTooLong   = errors.New("userID too long")
	errTenantIDTooLong = errors.New("tenantID too long")
	errPayloadTooLarge = errors.New("payload too large")
)

// Encode serializes s into the binary session layout:
//
//	u8  schema
//	u8  len(userID)   userID
//	u8  len(tenantID) tenantID
//	i64 createdAt (big endian, unix seconds)
//	i64 expiresAt (big endian, unix seconds)
//	u32 len(payload)  payload
func Encode(s *Session) ([]byte, error) {
	if len(s.UserID) > 255 {
		return nil, errUserIDTooLong
	}
	if len(s.TenantID) > 255 {
		return nil, errTenantIDTooLong
	}

	var buf bytes.Buffer
	buf.Grow(1 + 2 + len(s.UserID) + len(s.TenantID) + 16 + 4 + len(s.Payload))

	buf.WriteByte(CurrentSchemaVersion)

	buf.WriteByte(byte(len(s.UserID)))
	buf.WriteString(s.UserID)

	buf.WriteByte(byte(len(s.TenantID)))
	buf.WriteString(s.TenantID)

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	section, err := EncodePayloadSection(s.Payload)
	if err != nil {
		return nil, err
	}
	buf.Write(section)

	return buf.Bytes(), nil
}

// EncodePayloadSection returns the trailing payload section (length prefix
// followed by the raw payload bytes).
func EncodePayloadSection(payload []byte) ([]byte, error) {
	if len(payload) > MaxEncodedPayload {
		return nil, errPayloadTooLarge
	}
	out := make([]byte, 4+len(payload))
	binary.BigEndian.PutUint32(out, uint32(len(payload)))
	copy(out[4:], payload)
	return out, nil
}

// Decode parses a record produced by [Encode]. The handle is not part of the
// record and must be set by the caller.
func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != CurrentSchemaVersion {
		return nil, fmt.Errorf("unsupported session schema version %d", version)
	}

	s := &Session{SchemaVersion: version}

	userID, err := readShortString(reader)
	if err != nil {
		return nil, err
	}
	s.UserID = userID

	tenantID, err := readShortString(reader)
	if err != nil {
		return nil, err
	}
	s.TenantID = tenantID

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, err
	}

	var payloadLen uint32
	if err := binary.Read(reader, binary.BigEndian, &payloadLen); err != nil {
		return nil, err
	}
	if payloadLen > MaxEncodedPayload || int64(payloadLen) > int64(reader.Len()) {
		return nil, errPayloadTooLarge
	}
	if payloadLen > 0 {
		payload := make([]byte, payloadLen)
		if _, err := io.ReadFull(reader, payload); err != nil {
			return nil, err
		}
		s.Payload = payload
	}

	if reader.Len() != 0 {
		return nil, errors.New("trailing bytes after session payload")
	}

	return s, nil
}

func readShortString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
