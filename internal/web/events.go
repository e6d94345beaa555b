package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/starfederation/datastar-go/datastar"
)

const keepAliveInterval = 25 * time.Second

type resourceHub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newResourceHub() *resourceHub {
	return &resourceHub{subs: map[chan struct{}]struct{}{}}
}

func (h *resourceHub) subscribe() (ch chan struct{}, cancel func()) {
	ch = make(chan struct{}, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}
}

func (h *resourceHub) broadcast() {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.mu.Unlock()
}

// signals is the datastar signal set a browser binds the grid to.
func (s *Server) signals() map[string]any {
	vm := s.layoutVM(false)
	return map[string]any{
		"layout":  vm.Layout,
		"grid":    vm.Grid,
		"history": vm.History,
		"items":   vm.Items,
	}
}

// handleEvents streams the layout as datastar signal patches: one snapshot on connect and one
// after every change.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ch, cancel := s.hub.subscribe()
	defer cancel()

	sse := datastar.NewSSE(w, r)
	_ = sse.MarshalAndPatchSignals(s.signals())

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-ch:
			if err := sse.MarshalAndPatchSignals(s.signals()); err != nil {
				s.logger.Debug("event stream closed", "err", err)
				return
			}
		}
	}
}
