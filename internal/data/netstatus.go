// Copyright (c) 2026 Solace. All rights reserved.
// Author: dev@solacehq.io

package data

import "sync"

// Connectivity tracks network reachability as reported by the embedding
// platform and fans transitions out to subscribers.
//
// The engine subscribes to the offline→online edge to trigger an
// immediate out-of-cycle sync round.
type Connectivity struct {
	mu          sync.Mutex
	online      bool
	subscribers []func(online bool)
}

// NewConnectivity starts in the given state.
func NewConnectivity(online bool) *Connectivity {
	return &Connectivity{online: online}
}

// Online reports the current reachability state.
func (c *Connectivity) Online() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.online
}

// Subscribe registers a callback invoked on every state transition.
// Callbacks run on the reporter's goroutine; keep them short.
func (c *Connectivity) Subscribe(fn func(online bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

// SetOnline records a reachability report. Subscribers are only notified
// on an actual transition, not on repeated same-state reports.
func (c *Connectivity) SetOnline(online bool) {
	c.mu.Lock()
	if c.online == online {
		c.mu.Unlock()
		return
	}
	c.online = online
	subscribers := make([]func(bool), len(c.subscribers))
	copy(subscribers, c.subscribers)
	c.mu.Unlock()

	for _, fn := range subscribers {
		fn(online)
	}
}
