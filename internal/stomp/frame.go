package stomp

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Commands used by the client side of a STOMP 1.2 session.
const (
	CmdConnect     = "CONNECT"
	CmdConnected   = "CONNECTED"
	CmdSubscribe   = "SUBSCRIBE"
	CmdUnsubscribe = "UNSUBSCRIBE"
	CmdSend        = "SEND"
	CmdMessage     = "MESSAGE"
	CmdReceipt     = "RECEIPT"
	CmdError       = "ERROR"
	CmdDisconnect  = "DISCONNECT"
)

// Well-known header names.
const (
	HdrAcceptVersion = "accept-version"
	HdrHost          = "host"
	HdrHeartBeat     = "heart-beat"
	HdrAuthorization = "Authorization"
	HdrDestination   = "destination"
	HdrID            = "id"
	HdrSubscription  = "subscription"
	HdrContentType   = "content-type"
	HdrMessage       = "message"
)

var (
	ErrMalformedFrame = errors.New("malformed stomp frame")
	ErrUnknownCommand = errors.New("unknown stomp command")
)

var knownCommands = map[string]bool{
	CmdConnect:     true,
	CmdConnected:   true,
	CmdSubscribe:   true,
	CmdUnsubscribe: true,
	CmdSend:        true,
	CmdMessage:     true,
	CmdReceipt:     true,
	CmdError:       true,
	CmdDisconnect:  true,
}

// Frame is a single STOMP frame. One frame is carried per websocket text
// message, so no stream framing beyond the trailing NUL is needed.
type Frame struct {
	Command string
	Headers map[string]string
	Body    []byte
}

// NewFrame builds a frame with an initialized header map.
func NewFrame(command string) Frame {
	return Frame{Command: command, Headers: map[string]string{}}
}

// Marshal serializes the frame. Headers are written in sorted key order so
// output is deterministic.
func (f Frame) Marshal() []byte {
	var buf bytes.Buffer
	buf.WriteString(f.Command)
	buf.WriteByte('\n')

	keys := make([]string, 0, len(f.Headers))
	for k := range f.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		buf.WriteString(escape(f.Command, k))
		buf.WriteByte(':')
		buf.WriteString(escape(f.Command, f.Headers[k]))
		buf.WriteByte('\n')
	}
	buf.WriteByte('\n')
	buf.Write(f.Body)
	buf.WriteByte(0)
	return buf.Bytes()
}

// Parse decodes a frame from a single websocket message payload.
func Parse(data []byte) (Frame, error) {
	data = bytes.TrimSuffix(data, []byte{0})
	head, body, found := bytes.Cut(data, []byte("\n\n"))
	if !found {
		return Frame{}, fmt.Errorf("%w: missing header terminator", ErrMalformedFrame)
	}

	lines := strings.Split(strings.ReplaceAll(string(head), "\r\n", "\n"), "\n")
	command := strings.TrimSpace(lines[0])
	if command == "" {
		return Frame{}, fmt.Errorf("%w: empty command", ErrMalformedFrame)
	}
	if !knownCommands[command] {
		return Frame{}, fmt.Errorf("%w: %q", ErrUnknownCommand, command)
	}

	frame := NewFrame(command)
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		rawKey, rawVal, ok := strings.Cut(line, ":")
		if !ok {
			return Frame{}, fmt.Errorf("%w: header %q", ErrMalformedFrame, line)
		}
		key, err := unescape(command, rawKey)
		if err != nil {
			return Frame{}, err
		}
		val, err := unescape(command, rawVal)
		if err != nil {
			return Frame{}, err
		}
		// First occurrence wins for repeated headers, per STOMP 1.2.
		if _, exists := frame.Headers[key]; !exists {
			frame.Headers[key] = val
		}
	}
	frame.Body = append([]byte(nil), body...)
	return frame, nil
}

// CONNECT and CONNECTED frames are exempt from header escaping in STOMP 1.2.
func escape(command, s string) string {
	if command == CmdConnect || command == CmdConnected {
		return s
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case ':':
			b.WriteString(`\c`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func unescape(command, s string) (string, error) {
	if command == CmdConnect || command == CmdConnected {
		return s, nil
	}
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if !escaped {
			if r == '\\' {
				escaped = true
				continue
			}
			b.WriteRune(r)
			continue
		}
		switch r {
		case '\\':
			b.WriteRune('\\')
		case 'n':
			b.WriteRune('\n')
		case 'r':
			b.WriteRune('\r')
		case 'c':
			b.WriteRune(':')
		default:
			return "", fmt.Errorf("%w: bad escape \\%c", ErrMalformedFrame, r)
		}
		escaped = false
	}
	if escaped {
		return "", fmt.Errorf("%w: dangling escape", ErrMalformedFrame)
	}
	return b.String(), nil
}
