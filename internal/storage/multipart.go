package storage

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strconv"
)

const boundaryWords = 4

// ObjectMetadata is the JSON part of a multipart upload.
type ObjectMetadata struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

type segmentKind int

const (
	segmentText segmentKind = iota
	segmentBinary
)

type segment struct {
	kind segmentKind
	text string
	data []byte
}

// Body is an append-only sequence of text and binary segments rendered into
// one contiguous buffer.
type Body struct {
	segments []segment
}

// Text appends s.
func (b *Body) Text(s string) *Body {
	b.segments = append(b.segments, segment{kind: segmentText, text: s})
	return b
}

// Binary appends p without copying it.
func (b *Body) Binary(p []byte) *Body {
	b.segments = append(b.segments, segment{kind: segmentBinary, data: p})
	return b
}

// Len is the rendered size in bytes.
func (b *Body) Len() int {
	n := 0
	for _, s := range b.segments {
		switch s.kind {
		case segmentText:
			n += len(s.text)
		case segmentBinary:
			n += len(s.data)
		}
	}
	return n
}

// Bytes renders all segments in order.
func (b *Body) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(b.Len())
	for _, s := range b.segments {
		switch s.kind {
		case segmentText:
			buf.WriteString(s.text)
		case segmentBinary:
			buf.Write(s.data)
		}
	}
	return buf.Bytes()
}

// NewBoundary returns a multipart boundary built from random 32-bit words in
// base 36.
func NewBoundary() (string, error) {
	var raw [4 * boundaryWords]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("read random boundary: %w", err)
	}
	var b []byte
	for i := 0; i < boundaryWords; i++ {
		w := binary.BigEndian.Uint32(raw[i*4:])
		b = strconv.AppendUint(b, uint64(w), 36)
	}
	return string(b), nil
}

// EncodeMultipart frames meta and data as a multipart/related body. The
// provider's parser is strict about CRLF placement and the closing delimiter
// has no trailing line break.
func EncodeMultipart(boundary string, meta ObjectMetadata, data []byte) []byte {
	metaJSON, _ := json.Marshal(meta)
	delim := "--" + boundary

	var body Body
	body.Text(delim + "\r\n").
		Text("Content-Type: application/json\r\n\r\n").
		Binary(metaJSON).
		Text("\r\n" + delim + "\r\n").
		Text("Content-Type: " + meta.ContentType + "\r\n\r\n").
		Binary(data).
		Text("\r\n" + delim + "--")
	return body.Bytes()
}

// MultipartContentType is the request Content-Type for a body framed with
// boundary.
func MultipartContentType(boundary string) string {
	return "multipart/related; boundary=" + boundary
}
