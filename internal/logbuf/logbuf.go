/*
Copyright 2025 FreteOps Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package logbuf keeps a process-wide bounded buffer of diagnostic events
// so operators can inspect recent import and send activity without log
// access. It is observability state, not a correctness-relevant store.
package logbuf

import (
	"sync"
	"time"
)

const (
	capacity = 500 // oldest entries are dropped beyond this
	maxDrain = 200 // Last never returns more than this
)

// Entry is one recorded diagnostic event.
type Entry struct {
	Ts      time.Time   `json:"ts"`
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

var (
	mu      sync.Mutex
	entries []Entry
)

// Append records an event, evicting the oldest entry once the buffer is
// full.
func Append(event string, payload interface{}) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, Entry{Ts: time.Now(), Event: event, Payload: payload})
	if len(entries) > capacity {
		entries = entries[len(entries)-capacity:]
	}
}

// Last returns a copy of the most recent n entries, oldest first. n is
// capped at 200.
func Last(n int) []Entry {
	mu.Lock()
	defer mu.Unlock()
	if n <= 0 || n > maxDrain {
		n = maxDrain
	}
	if n > len(entries) {
		n = len(entries)
	}
	out := make([]Entry, n)
	copy(out, entries[len(entries)-n:])
	return out
}

// Reset clears the buffer. Test helper.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	entries = nil
}
