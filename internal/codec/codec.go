// Package codec serializes memory entries to and from the persisted record
// format. It is pure: no I/O, no clock, no global state.
//
// A persisted record is a single line of the form
//
//	<len>:<crc32-hex>:<json>\n
//
// where len is the byte length of the JSON document and the CRC32 (IEEE)
// covers the JSON bytes. The framing makes a partially written trailing
// record detectable without making the rest of the file unreadable.
package codec

import (
	"bytes"
	"encoding/json"
	"hash/crc32"
	"strconv"

	"github.com/mindlog/mindlog/internal/errs"
	"github.com/mindlog/mindlog/internal/model"
)

// Encode serializes an entry to its JSON document.
func Encode(e model.Entry) ([]byte, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, errs.Wrap(err, errs.CodeDecodeInvalid, "encode entry")
	}
	return b, nil
}

// Decode parses a JSON document into an entry. Unknown top-level fields are
// ignored so records written by newer compatible versions still load; unknown
// meta keys pass through unchanged. Missing required fields, an unknown kind,
// or a malformed timestamp fail with a decode error.
func Decode(b []byte) (model.Entry, error) {
	var e model.Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return model.Entry{}, errs.Wrap(err, errs.CodeDecodeInvalid, "decode entry")
	}
	if e.ID == "" {
		return model.Entry{}, errs.New(errs.CodeDecodeInvalid, "decode entry: missing id")
	}
	if e.CreatedAt <= 0 {
		return model.Entry{}, errs.Errorf(errs.CodeDecodeInvalid, "decode entry: malformed timestamp %d", e.CreatedAt)
	}
	if !model.ValidKinds[e.Kind] {
		return model.Entry{}, errs.Errorf(errs.CodeDecodeInvalid, "decode entry: unknown kind %q", e.Kind)
	}
	return e, nil
}

// EncodeFrame serializes an entry as a complete framed record line,
// terminating newline included.
func EncodeFrame(e model.Entry) ([]byte, error) {
	doc, err := Encode(e)
	if err != nil {
		return nil, err
	}
	return Frame(doc), nil
}

// Frame wraps a JSON document in the record framing.
func Frame(doc []byte) []byte {
	sum := crc32.ChecksumIEEE(doc)
	buf := make([]byte, 0, len(doc)+20)
	buf = strconv.AppendInt(buf, int64(len(doc)), 10)
	buf = append(buf, ':')
	buf = strconv.AppendUint(buf, uint64(sum), 16)
	buf = append(buf, ':')
	buf = append(buf, doc...)
	buf = append(buf, '\n')
	return buf
}

// Unframe validates a record line (without its trailing newline) and returns
// the JSON document. Length or checksum mismatches fail with a decode error.
func Unframe(line []byte) ([]byte, error) {
	i := bytes.IndexByte(line, ':')
	if i <= 0 {
		return nil, errs.New(errs.CodeDecodeInvalid, "unframe: missing length prefix")
	}
	n, err := strconv.Atoi(string(line[:i]))
	if err != nil || n < 0 {
		return nil, errs.New(errs.CodeDecodeInvalid, "unframe: bad length prefix")
	}
	rest := line[i+1:]
	j := bytes.IndexByte(rest, ':')
	if j <= 0 {
		return nil, errs.New(errs.CodeDecodeInvalid, "unframe: missing checksum")
	}
	sum, err := strconv.ParseUint(string(rest[:j]), 16, 32)
	if err != nil {
		return nil, errs.New(errs.CodeDecodeInvalid, "unframe: bad checksum")
	}
	doc := rest[j+1:]
	if len(doc) != n {
		return nil, errs.Errorf(errs.CodeDecodeInvalid, "unframe: length mismatch (want %d, have %d)", n, len(doc))
	}
	if crc32.ChecksumIEEE(doc) != uint32(sum) {
		return nil, errs.New(errs.CodeDecodeInvalid, "unframe: checksum mismatch")
	}
	return doc, nil
}

// DecodeFrame parses a complete framed record line into an entry.
func DecodeFrame(line []byte) (model.Entry, error) {
	doc, err := Unframe(line)
	if err != nil {
		return model.Entry{}, err
	}
	return Decode(doc)
}
