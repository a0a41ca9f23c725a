package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

const (
	recordFormatVersionCurrent = 1
	grantFormatVersionCurrent  = 1
	maxFieldLength             = 1<<16 - 1
)

var errMalformed = errors.New("store: malformed encoding")

// Encode serializes a record into the compact binary form used by key-value
// backends.
func Encode(r *Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(512)
	buf.WriteByte(recordFormatVersionCurrent)

	for _, s := range []string{r.AccountID, r.Username, r.Email, r.PasswordHash} {
		if err := writeString(&buf, s); err != nil {
			return nil, err
		}
	}
	writeBool(&buf, r.Verified)

	if err := writeString(&buf, r.OTPHash); err != nil {
		return nil, err
	}
	writeTime(&buf, r.OTPExpiresAt)
	writeInt(&buf, r.OTPResendCount)
	writeTime(&buf, r.OTPLastSentAt)
	writeInt(&buf, r.OTPVerifyAttempts)
	writeTime(&buf, r.OTPLastAttemptAt)

	if err := writeString(&buf, r.ResetTokenHash); err != nil {
		return nil, err
	}
	writeTime(&buf, r.ResetExpiresAt)
	writeInt(&buf, r.ResetRequestCount)
	writeTime(&buf, r.ResetLastSentAt)

	writeInt(&buf, r.LoginAttempts)
	writeTime(&buf, r.LastLoginAttemptAt)
	if err := writeString(&buf, r.RememberTokenHash); err != nil {
		return nil, err
	}

	writeTime(&buf, r.LastLoginAt)
	writeTime(&buf, r.CreatedAt)
	_ = binary.Write(&buf, binary.BigEndian, r.Version)

	return buf.Bytes(), nil
}

// Decode parses the output of [Encode].
func Decode(data []byte) (*Record, error) {
	rd := bytes.NewReader(data)

	version, err := rd.ReadByte()
	if err != nil {
		return nil, errMalformed
	}
	if version != recordFormatVersionCurrent {
		return nil, errors.New("store: unsupported record version")
	}

	d := decoder{r: rd}
	r := &Record{}
	r.AccountID = d.string()
	r.Username = d.string()
	r.Email = d.string()
	r.PasswordHash = d.string()
	r.Verified = d.bool()

	r.OTPHash = d.string()
	r.OTPExpiresAt = d.time()
	r.OTPResendCount = d.int()
	r.OTPLastSentAt = d.time()
	r.OTPVerifyAttempts = d.int()
	r.OTPLastAttemptAt = d.time()

	r.ResetTokenHash = d.string()
	r.ResetExpiresAt = d.time()
	r.ResetRequestCount = d.int()
	r.ResetLastSentAt = d.time()

	r.LoginAttempts = d.int()
	r.LastLoginAttemptAt = d.time()
	r.RememberTokenHash = d.string()

	r.LastLoginAt = d.time()
	r.CreatedAt = d.time()
	r.Version = d.uint64()

	if d.err != nil {
		return nil, d.err
	}
	if rd.Len() != 0 {
		return nil, errMalformed
	}
	return r, nil
}

// EncodeGrant serializes a reset grant.
func EncodeGrant(g Grant) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(grantFormatVersionCurrent)
	for _, s := range []string{g.ID, g.AccountID, g.TokenDigest} {
		if err := writeString(&buf, s); err != nil {
			return nil, err
		}
	}
	writeTime(&buf, g.ExpiresAt)
	return buf.Bytes(), nil
}

// DecodeGrant parses the output of [EncodeGrant].
func DecodeGrant(data []byte) (Grant, error) {
	rd := bytes.NewReader(data)
	version, err := rd.ReadByte()
	if err != nil || version != grantFormatVersionCurrent {
		return Grant{}, errMalformed
	}

	d := decoder{r: rd}
	g := Grant{
		ID:          d.string(),
		AccountID:   d.string(),
		TokenDigest: d.string(),
		ExpiresAt:   d.time(),
	}
	if d.err != nil || rd.Len() != 0 {
		return Grant{}, errMalformed
	}
	return g, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > maxFieldLength {
		return errors.New("store: field too long")
	}
	_ = binary.Write(buf, binary.BigEndian, uint16(len(s)))
	buf.WriteString(s)
	return nil
}

func writeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(1)
		return
	}
	buf.WriteByte(0)
}

func writeInt(buf *bytes.Buffer, v int) {
	if v < 0 {
		v = 0
	}
	_ = binary.Write(buf, binary.BigEndian, uint32(v))
}

// writeTime stores unix nanoseconds; 0 encodes the zero time.
func writeTime(buf *bytes.Buffer, t time.Time) {
	var n int64
	if !t.IsZero() {
		n = t.UnixNano()
	}
	_ = binary.Write(buf, binary.BigEndian, n)
}

type decoder struct {
	r   *bytes.Reader
	err error
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	var n uint16
	if err := binary.Read(d.r, binary.BigEndian, &n); err != nil {
		d.err = errMalformed
		return ""
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		d.err = errMalformed
		return ""
	}
	return string(b)
}

func (d *decoder) bool() bool {
	if d.err != nil {
		return false
	}
	b, err := d.r.ReadByte()
	if err != nil || b > 1 {
		d.err = errMalformed
		return false
	}
	return b == 1
}

func (d *decoder) int() int {
	if d.err != nil {
		return 0
	}
	var n uint32
	if err := binary.Read(d.r, binary.BigEndian, &n); err != nil {
		d.err = errMalformed
		return 0
	}
	return int(n)
}

func (d *decoder) time() time.Time {
	if d.err != nil {
		return time.Time{}
	}
	var n int64
	if err := binary.Read(d.r, binary.BigEndian, &n); err != nil {
		d.err = errMalformed
		return time.Time{}
	}
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

func (d *decoder) uint64() uint64 {
	if d.err != nil {
		return 0
	}
	var n uint64
	if err := binary.Read(d.r, binary.BigEndian, &n); err != nil {
		d.err = errMalformed
		return 0
	}
	return n
}
