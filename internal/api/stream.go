// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// MaxEventSize is the largest single SSE event accepted, counted as sent on
// the wire (field names and line endings included).
const MaxEventSize = 1024 * 1024

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{reader: bufio.NewReader(r)}
}

// ReadEvent reads the next event and returns its type ("" when the server
// sent no "event:" field) and its data lines joined by "\n".
// Comments and id/retry fields are ignored. Returns io.EOF at end of stream.
//
// Reading stops as soon as an event grows past MaxEventSize, so an
// oversized or unterminated line is never buffered whole.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var (
		eventType string
		data      [][]byte
		size      int
		seenData  bool
	)

	for {
		line, err := s.readLine(MaxEventSize - size)
		if err != nil {
			// An event not terminated by a blank line is discarded.
			return "", nil, err
		}
		size += len(line)
		line = bytes.TrimRight(line, "\r\n")

		if len(line) == 0 {
			if seenData {
				return eventType, bytes.Join(data, []byte("\n")), nil
			}
			eventType, size = "", 0
			continue
		}

		field, value, _ := bytes.Cut(line, []byte(":"))
		value = bytes.TrimPrefix(value, []byte(" "))

		switch string(field) {
		case "event":
			eventType = string(value)
		case "data":
			data = append(data, value)
			seenData = true
		}
	}
}

// readLine returns the next line, newline included, failing once more than
// limit bytes have been read without finding one.
func (s *SSEReader) readLine(limit int) ([]byte, error) {
	var line []byte
	for {
		chunk, err := s.reader.ReadSlice('\n')
		if len(line)+len(chunk) > limit {
			return nil, fmt.Errorf("event exceeds %d bytes", MaxEventSize)
		}
		line = append(line, chunk...)
		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return nil, err
		}
	}
}

// =============================================================================
// STREAM SESSION
// =============================================================================

// StreamEvent is delivered to a StreamHandler for every message event, and
// once more with Err set if the stream fails.
type StreamEvent struct {
	Data  map[string]any // decoded payload
	Raw   []byte         // payload as received
	Final bool           // payload carried "is_final": true
	Err   error          // non-nil only for the failure notification
}

// Text returns the most useful text field of the payload.
func (e StreamEvent) Text() string {
	for _, key := range []string{"response", "content", "message", "text"} {
		if s, ok := e.Data[key].(string); ok {
			return s
		}
	}
	return ""
}

// StreamHandler receives stream events. Calls are sequential and run on a
// goroutine of their own, so a handler may call Close or CloseStream.
type StreamHandler func(StreamEvent)

// StreamSession is one open chat event stream.
type StreamSession struct {
	id     string
	cancel context.CancelFunc

	connDone chan struct{} // connection closed, no further events will be read
	done     chan struct{} // connDone plus the handler has returned for the last time
	err      error         // written before connDone is closed
}

// ID returns the chat session id this stream is bound to.
func (s *StreamSession) ID() string {
	return s.id
}

// Done is closed once the stream has ended and its handler has returned.
func (s *StreamSession) Done() <-chan struct{} {
	return s.done
}

// Err returns why the stream ended: nil after a final message or Close,
// an ErrStream-wrapped error otherwise. Only meaningful after Done.
func (s *StreamSession) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Close ends the stream and waits for its connection to close. No event is
// delivered after Close returns, apart from one already being handled.
func (s *StreamSession) Close() {
	s.cancel()
	<-s.connDone
}

// OpenStream closes any open stream, then opens
// GET <ChatStream>?session_id=&message= and delivers events to handler
// until a final message, an error, or Close.
//
// Connection problems are reported through handler (Err set), like every
// other stream failure; the returned error covers argument checks only.
func (c *Client) OpenStream(ctx context.Context, sessionID, message string, handler StreamHandler) (*StreamSession, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, invalidInput("session id is required")
	}
	if handler == nil {
		handler = func(StreamEvent) {}
	}

	q := url.Values{"session_id": {sessionID}}
	if message != "" {
		q.Set("message", message)
	}

	c.streamMu.Lock()
	defer c.streamMu.Unlock()

	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &StreamSession{
		id:       sessionID,
		cancel:   cancel,
		connDone: make(chan struct{}),
		done:     make(chan struct{}),
	}
	c.stream = s

	go c.runStream(sctx, s, q, handler)
	return s, nil
}

// CloseStream closes the open stream, if any.
func (c *Client) CloseStream() {
	c.streamMu.Lock()
	defer c.streamMu.Unlock()
	if c.stream != nil {
		c.stream.Close()
		c.stream = nil
	}
}

// ActiveStream returns the open stream, or nil.
func (c *Client) ActiveStream() *StreamSession {
	c.streamMu.Lock()
	defer c.streamMu.Unlock()
	if c.stream == nil {
		return nil
	}
	select {
	case <-c.stream.connDone:
		return nil
	default:
		return c.stream
	}
}

// runStream owns the connection. Events are handed to a dispatcher
// goroutine which calls handler, so a handler blocked in Close cannot
// deadlock the reader.
func (c *Client) runStream(ctx context.Context, s *StreamSession, q url.Values, handler StreamHandler) {
	events := make(chan StreamEvent)
	dispatched := make(chan struct{})
	go func() {
		defer close(dispatched)
		for ev := range events {
			if ev.Err == nil && ctx.Err() != nil {
				continue
			}
			handler(ev)
		}
	}()

	send := func(ev StreamEvent) bool {
		select {
		case events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	err := c.readStream(ctx, s, q, send)
	if err != nil && ctx.Err() == nil {
		s.err = fmt.Errorf("%w: %w", ErrStream, err)
		c.log.Warn("stream ended with error", zap.String("session", s.id), zap.Error(err))
		send(StreamEvent{Err: s.err})
	}

	close(s.connDone)
	close(events)
	<-dispatched
	s.cancel()
	close(s.done)
}

// readStream reads events until a final message, an error, or cancellation.
// A nil return means the stream ended normally or send gave up. The whole
// stream is recorded as one call once it ends.
func (c *Client) readStream(ctx context.Context, s *StreamSession, q url.Values, send func(StreamEvent) bool) (err error) {
	if err := c.wait(ctx); err != nil {
		return err
	}

	target := c.BaseURL() + c.endpoints.ChatStream + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("User-Agent", c.userAgent)
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.log.Debug("stream open", zap.String("session", s.id), zap.String("path", req.URL.Path))
	start := time.Now()
	status := 0
	defer func() {
		c.record(ctx, req, status, start, streamCallError(ctx, err))
	}()

	resp, err := c.streamClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := readResponse(resp)
		return apiError(resp.StatusCode, resp.Header.Get("Content-Type"), body)
	}

	reader := NewSSEReader(resp.Body)
	for {
		eventType, data, err := reader.ReadEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return errors.New("stream closed before final message")
			}
			return err
		}
		if eventType != "" && eventType != "message" {
			continue
		}

		var payload map[string]any
		if err := json.Unmarshal(data, &payload); err != nil || payload == nil {
			return fmt.Errorf("malformed event payload: %q", truncate(data, 80))
		}

		final, _ := payload["is_final"].(bool)
		if !send(StreamEvent{Data: payload, Raw: data, Final: final}) {
			return nil
		}
		if final {
			c.log.Debug("stream final", zap.String("session", s.id))
			return nil
		}
	}
}

// streamCallError reduces a stream's terminal error to what a Recorder may
// keep. Transport errors embed the URL, and with it the chat message.
func streamCallError(ctx context.Context, err error) error {
	var apiErr *APIError
	switch {
	case err == nil, ctx.Err() != nil:
		return nil
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, ErrNetwork):
		return ErrNetwork
	default:
		return ErrStream
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
