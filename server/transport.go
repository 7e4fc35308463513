package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/viant/jsonrpc"
)

var errTransportClosed = errors.New("transport closed")

// StreamTransport is the server side of one streamable HTTP session. Queued
// server-to-client frames are delivered over the session's SSE stream;
// client-to-server responses posted back on the session are correlated to
// in-flight Send calls by request id.
type StreamTransport struct {
	mu      sync.Mutex
	queue   chan []byte
	pending map[uint64]chan *jsonrpc.Response
	seq     uint64

	closed    chan struct{}
	closeOnce sync.Once
	onClose   func()
}

// NewStreamTransport creates a transport with a bounded event backlog.
func NewStreamTransport() *StreamTransport {
	return &StreamTransport{
		queue:   make(chan []byte, 256),
		pending: map[uint64]chan *jsonrpc.Response{},
		closed:  make(chan struct{}),
	}
}

// OnClose installs a callback invoked exactly once when the transport closes.
func (t *StreamTransport) OnClose(callback func()) {
	t.onClose = callback
}

// Notify queues a server-to-client notification frame.
func (t *StreamTransport) Notify(_ context.Context, notification *jsonrpc.Notification) error {
	data, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	return t.enqueue(data)
}

// Send queues a server-to-client request frame and waits for the matching
// response to be posted back on the session.
func (t *StreamTransport) Send(ctx context.Context, request *jsonrpc.Request) (*jsonrpc.Response, error) {
	id, _ := jsonrpc.AsRequestIntId(request.Id)
	if id == 0 {
		id = int(atomic.AddUint64(&t.seq, 1))
		request.Id = id
	}
	ch := make(chan *jsonrpc.Response, 1)
	t.mu.Lock()
	t.pending[uint64(id)] = ch
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		delete(t.pending, uint64(id))
		t.mu.Unlock()
	}()
	data, err := json.Marshal(request)
	if err != nil {
		return nil, err
	}
	if err = t.enqueue(data); err != nil {
		return nil, err
	}
	select {
	case response := <-ch:
		return response, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-t.closed:
		return nil, errTransportClosed
	}
}

// Accept routes a client-posted response to the Send call awaiting it.
func (t *StreamTransport) Accept(response *jsonrpc.Response) bool {
	id, _ := jsonrpc.AsRequestIntId(response.Id)
	t.mu.Lock()
	ch, ok := t.pending[uint64(id)]
	t.mu.Unlock()
	if ok {
		ch <- response
	}
	return ok
}

// Stream writes queued frames as SSE events until the client disconnects or
// the transport closes. One stream at a time consumes the queue.
func (t *StreamTransport) Stream(writer http.ResponseWriter, request *http.Request) {
	flusher, ok := writer.(http.Flusher)
	if !ok {
		http.Error(writer, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	writer.Header().Set("Content-Type", "text/event-stream")
	writer.Header().Set("Cache-Control", "no-cache")
	writer.Header().Set("Connection", "keep-alive")
	flusher.Flush()
	for {
		select {
		case data := <-t.queue:
			if _, err := fmt.Fprintf(writer, "event: message\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		case <-request.Context().Done():
			return
		case <-t.closed:
			return
		}
	}
}

// Close tears the transport down and fires the on-close callback once.
func (t *StreamTransport) Close() {
	t.closeOnce.Do(func() {
		close(t.closed)
		if t.onClose != nil {
			t.onClose()
		}
	})
}

func (t *StreamTransport) enqueue(data []byte) error {
	select {
	case <-t.closed:
		return errTransportClosed
	default:
	}
	select {
	case t.queue <- data:
		return nil
	default:
		return errors.New("event stream backlogged")
	}
}
