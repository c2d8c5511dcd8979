/*
Package wire reads and writes Requests as HTTP/1.1 request messages.

The encoding keeps every header line in order and the body byte for byte, so

	wire.Encode(&buf, req)
	back, _ := wire.Decode(&buf, req.ID())

gives a Request equal to req. The id is not part of the message and is
supplied by the caller on decode.
*/
package wire

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	replayr "github.com/HRemonen/Replayr"
	"golang.org/x/net/http/httpguts"
)

const proto = "HTTP/1.1"

var (
	// ErrMalformed is returned when a message is not a well-formed request.
	ErrMalformed = errors.New("malformed request message")
	// ErrUnencodable is returned when a Request cannot be written as a request message.
	ErrUnencodable = errors.New("request cannot be encoded")
)

// Encode writes req to w as a request message. The URL is written as the
// request target, then every header in order, then the body verbatim.
func Encode(w io.Writer, req replayr.Request) error {
	if err := checkEncodable(req); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s %s %s\r\n", req.Method(), req.URL(), proto)
	for _, h := range req.Headers() {
		fmt.Fprintf(bw, "%s: %s\r\n", h.Key, h.Value)
	}
	bw.WriteString("\r\n")
	bw.WriteString(req.Body())

	return bw.Flush()
}

// Marshal returns the request message for req.
func Marshal(req replayr.Request) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, req); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func checkEncodable(req replayr.Request) error {
	if !req.Method().Valid() {
		return fmt.Errorf("%w: %q", replayr.ErrInvalidMethod, req.Method())
	}

	if req.URL() == "" || strings.ContainsAny(req.URL(), " \t\r\n") {
		return fmt.Errorf("%w: request target %q", ErrUnencodable, req.URL())
	}

	for _, h := range req.Headers() {
		if !httpguts.ValidHeaderFieldName(h.Key) {
			return fmt.Errorf("%w: header name %q", ErrUnencodable, h.Key)
		}

		if !httpguts.ValidHeaderFieldValue(h.Value) {
			return fmt.Errorf("%w: value of header %q", ErrUnencodable, h.Key)
		}
	}

	// Decode would cut the body short.
	if n, ok := contentLength(req.Headers()); ok && n < len(req.Body()) {
		return fmt.Errorf("%w: Content-Length %d shorter than body", ErrUnencodable, n)
	}

	return nil
}

func contentLength(headers []replayr.Header) (int, bool) {
	values := replayr.Values(headers, "Content-Length")
	if len(values) == 0 {
		return 0, false
	}

	n, err := strconv.Atoi(strings.TrimSpace(values[0]))
	if err != nil || n < 0 {
		return 0, false
	}

	return n, true
}

// Decode reads one request message from r and returns it as a Request with
// the given id.
//
// Lines may end in CRLF or LF. After a header's colon a single space is
// skipped, anything further belongs to the value. The body is the rest of the
// input, cut to Content-Length when the message carries a valid one.
func Decode(r io.Reader, id int64) (replayr.Request, error) {
	br := bufio.NewReader(r)

	line, err := readLine(br)
	if err != nil {
		return replayr.Request{}, err
	}

	method, target, err := parseRequestLine(line)
	if err != nil {
		return replayr.Request{}, err
	}

	headers := []replayr.Header{}
	for {
		line, err := readLine(br)
		if err != nil {
			return replayr.Request{}, err
		}

		if line == "" {
			break
		}

		h, err := parseHeaderLine(line)
		if err != nil {
			return replayr.Request{}, err
		}

		headers = append(headers, h)
	}

	body, err := readBody(br, headers)
	if err != nil {
		return replayr.Request{}, err
	}

	return replayr.NewRequest(id, method, target, headers, body)
}

// Unmarshal decodes the request message in data.
func Unmarshal(data []byte, id int64) (replayr.Request, error) {
	return Decode(bytes.NewReader(data), id)
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return "", fmt.Errorf("%w: unexpected end of message", ErrMalformed)
		}

		return "", err
	}

	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	return line, nil
}

func parseRequestLine(line string) (replayr.Method, string, error) {
	parts := strings.Split(line, " ")
	if len(parts) != 3 {
		return "", "", fmt.Errorf("%w: request line %q", ErrMalformed, line)
	}

	if !strings.HasPrefix(parts[2], "HTTP/") {
		return "", "", fmt.Errorf("%w: protocol %q", ErrMalformed, parts[2])
	}

	if parts[1] == "" {
		return "", "", fmt.Errorf("%w: empty request target", ErrMalformed)
	}

	method, err := replayr.ParseMethod(parts[0])
	if err != nil {
		return "", "", err
	}

	return method, parts[1], nil
}

func parseHeaderLine(line string) (replayr.Header, error) {
	key, value, ok := strings.Cut(line, ":")
	if !ok || key == "" {
		return replayr.Header{}, fmt.Errorf("%w: header line %q", ErrMalformed, line)
	}

	if !httpguts.ValidHeaderFieldName(key) {
		return replayr.Header{}, fmt.Errorf("%w: header name %q", ErrMalformed, key)
	}

	return replayr.Header{Key: key, Value: strings.TrimPrefix(value, " ")}, nil
}

func readBody(br *bufio.Reader, headers []replayr.Header) (string, error) {
	b, err := io.ReadAll(br)
	if err != nil {
		return "", err
	}

	if n, ok := contentLength(headers); ok && n < len(b) {
		return string(b[:n]), nil
	}

	return string(b), nil
}
