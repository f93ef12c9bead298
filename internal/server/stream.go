package server

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// streamInterval paces the MJPEG stream at about 15 FPS.
const streamInterval = 66 * time.Millisecond

// StreamHandler serves the latest camera frame as MJPEG. Frames are pushed
// by the frame loop through PublishFrame and only encoded while a client
// is watching.
type StreamHandler struct {
	mu      sync.RWMutex
	jpeg    []byte
	seq     uint64
	viewers int
}

// NewStreamHandler creates an empty StreamHandler.
func NewStreamHandler() *StreamHandler {
	return &StreamHandler{}
}

// PublishFrame encodes frame as the latest JPEG when anyone is watching.
func (h *StreamHandler) PublishFrame(frame *gocv.Mat) {
	h.mu.RLock()
	watching := h.viewers > 0
	h.mu.RUnlock()
	if !watching || frame == nil || frame.Empty() {
		return
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		return
	}
	data := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	h.publish(data)
}

func (h *StreamHandler) publish(jpeg []byte) {
	h.mu.Lock()
	h.jpeg = jpeg
	h.seq++
	h.mu.Unlock()
}

func (h *StreamHandler) latest() ([]byte, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.jpeg, h.seq
}

// Viewers returns the number of connected stream clients.
func (h *StreamHandler) Viewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.viewers
}

// ServeHTTP streams MJPEG frames to the client.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.viewers++
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.viewers--
		h.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var sent uint64
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}

		data, seq := h.latest()
		if seq == sent || len(data) == 0 {
			continue
		}
		sent = seq

		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
		if _, err := w.Write(data); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}
