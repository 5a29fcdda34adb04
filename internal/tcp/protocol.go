package tcp

import (
	"errors"
	"strings"
)

// Wire format: newline-delimited frames, each payload wrapped in a fixed
// marker pair so stream splits can be detected by thin clients.
//
//	<PokerGame>AU|token</PokerGame>\n
//
// Inbound payloads are pipe-separated commands; outbound payloads are
// compact JSON or ER|message errors.
const (
	frameOpen  = "<PokerGame>"
	frameClose = "</PokerGame>"

	cmdAuth     = "AU"
	cmdJoin     = "JG"
	cmdLeave    = "LG"
	cmdBet      = "BT"
	cmdCheck    = "CK"
	cmdFold     = "FD"
	cmdAutoFold = "AF"
	cmdStatus   = "GS"

	errPrefix = "ER|"
)

var errBadFrame = errors.New("malformed frame")

// encodeFrame wraps a payload for the wire, newline terminator included.
func encodeFrame(payload []byte) []byte {
	out := make([]byte, 0, len(frameOpen)+len(payload)+len(frameClose)+1)
	out = append(out, frameOpen...)
	out = append(out, payload...)
	out = append(out, frameClose...)
	out = append(out, '\n')
	return out
}

// decodeFrame strips the marker pair from one line. The trailing newline
// is already consumed by the line scanner.
func decodeFrame(line string) (string, error) {
	line = strings.TrimRight(line, "\r")
	if !strings.HasPrefix(line, frameOpen) || !strings.HasSuffix(line, frameClose) {
		return "", errBadFrame
	}
	return line[len(frameOpen) : len(line)-len(frameClose)], nil
}

// parseCommand splits a payload into its two-letter command and argument.
// Commands without arguments (CK, FD, AF) yield an empty arg.
func parseCommand(payload string) (cmd, arg string) {
	if i := strings.IndexByte(payload, '|'); i >= 0 {
		return payload[:i], payload[i+1:]
	}
	return payload, ""
}

func errorPayload(msg string) []byte {
	return []byte(errPrefix + msg)
}
