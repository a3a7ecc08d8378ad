// Copyright (c) 2013-2016 The btcsuite developers
// Copyright (c) 2015-2021 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transport

import "fmt"

// chunkThreshold is the body size past which a message is split across
// multiple frames rather than sent whole in one.
const chunkThreshold = 8000

// TagBody is the tag carrying a message's opaque payload bytes, chosen
// high enough to never collide with a reserved header tag.
const TagBody = 8

// Message is a logical unit of communication: a service/message-id pair
// addressed to a connection, plus an opaque body. A body larger than
// chunkThreshold is split into several frames by encodeChunks and
// reassembled by *reassembly on the receiving side.
type Message struct {
	ServiceID int64
	MessageID int64
	Body      []byte
	ConnID    uint64
}

// encodeChunks renders m as one or more ready-to-write frames, chunking
// the body across frames when it exceeds chunkThreshold. Chunked
// transmission is never used for the priority queue; callers enforce that
// by routing only small control messages there.
func (m Message) encodeChunks() ([][]byte, error) {
	if len(m.Body) <= chunkThreshold {
		items := []Item{
			intItem(TagServiceID, m.ServiceID),
			intItem(TagMessageID, m.MessageID),
			boolItem(TagHeaderEnd, true),
			bytesItem(TagBody, m.Body),
		}
		f, err := EncodeFrame(items)
		if err != nil {
			return nil, err
		}
		return [][]byte{f}, nil
	}

	var frames [][]byte
	remaining := m.Body
	first := true
	for len(remaining) > 0 {
		n := chunkThreshold
		if n > len(remaining) {
			n = len(remaining)
		}
		chunk := remaining[:n]
		remaining = remaining[n:]
		last := len(remaining) == 0

		items := []Item{
			intItem(TagServiceID, m.ServiceID),
			intItem(TagMessageID, m.MessageID),
		}
		if first {
			items = append(items, intItem(TagSequenceStart, int64(len(m.Body))))
		}
		items = append(items, boolItem(TagLastInSequence, last), boolItem(TagHeaderEnd, true), bytesItem(TagBody, chunk))

		f, err := EncodeFrame(items)
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
		first = false
	}
	return frames, nil
}

// reassembly accumulates a single in-progress chunked message for one
// connection. Mixing sequences (a new SequenceStart before the previous
// one finished) or exceeding the declared total is a protocol violation.
type reassembly struct {
	serviceID int64
	messageID int64
	total     int
	buf       []byte
}

// addChunk folds one chunk frame's items into the in-progress reassembly,
// returning the completed Message once the last chunk arrives. A frame
// carrying no sequence items is a complete message by itself.
func (c *connState) addChunk(items []Item) (*Message, error) {
	svc, _ := findItem(items, TagServiceID)
	msg, _ := findItem(items, TagMessageID)
	body, hasBody := findItem(items, TagBody)
	last, _ := findItem(items, TagLastInSequence)

	if start, ok := findItem(items, TagSequenceStart); ok {
		if c.reasm != nil {
			return nil, fmt.Errorf("transport: new chunk sequence started before previous one finished")
		}
		c.reasm = &reassembly{serviceID: svc.Int, messageID: msg.Int, total: int(start.Int)}
	}
	if c.reasm == nil {
		if _, chunked := findItem(items, TagLastInSequence); !chunked {
			// A message that fits one frame carries no sequence items.
			return &Message{ServiceID: svc.Int, MessageID: msg.Int, Body: body.Bytes, ConnID: c.id}, nil
		}
		return nil, fmt.Errorf("transport: chunk received with no active sequence")
	}
	if svc.Int != c.reasm.serviceID || msg.Int != c.reasm.messageID {
		return nil, fmt.Errorf("transport: service/message id changed mid-sequence")
	}
	if hasBody {
		c.reasm.buf = append(c.reasm.buf, body.Bytes...)
		if len(c.reasm.buf) > c.reasm.total {
			return nil, fmt.Errorf("transport: reassembled body exceeds declared sequence-start length")
		}
	}
	if last.Int == 0 {
		return nil, nil
	}

	out := &Message{ServiceID: c.reasm.serviceID, MessageID: c.reasm.messageID, Body: c.reasm.buf, ConnID: c.id}
	c.reasm = nil
	return out, nil
}
