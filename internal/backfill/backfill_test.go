// Copyright (c) 2026 Bezal John Benny
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backfill

import (
	"context"
	"errors"
	"testing"
	"time"
)

type mockLister struct {
	ids []string
	err error
}

func (m *mockLister) ListSince(context.Context, int) ([]string, error) {
	return m.ids, m.err
}

type mockProcessor struct {
	processed []string
	failOn    map[string]bool
}

func (m *mockProcessor) ProcessMessage(_ context.Context, id string) error {
	m.processed = append(m.processed, id)
	if m.failOn[id] {
		return errors.New("boom")
	}
	return nil
}

func TestRun_ProcessesAllInOrder(t *testing.T) {
	lister := &mockLister{ids: []string{"a", "b", "c"}}
	proc := &mockProcessor{}

	r := NewRunner(RunnerConfig{Lister: lister, Processor: proc, Delay: time.Millisecond})
	result, err := r.Run(context.Background(), 7)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Listed != 3 || result.Errors != 0 {
		t.Errorf("result = %+v", result)
	}
	want := []string{"a", "b", "c"}
	for i, id := range want {
		if proc.processed[i] != id {
			t.Errorf("processed[%d] = %q, want %q", i, proc.processed[i], id)
		}
	}
}

func TestRun_CountsErrorsAndContinues(t *testing.T) {
	lister := &mockLister{ids: []string{"a", "b", "c"}}
	proc := &mockProcessor{failOn: map[string]bool{"b": true}}

	r := NewRunner(RunnerConfig{Lister: lister, Processor: proc, Delay: time.Millisecond})
	result, err := r.Run(context.Background(), 7)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.Errors != 1 {
		t.Errorf("errors = %d, want 1", result.Errors)
	}
	if len(proc.processed) != 3 {
		t.Errorf("processed = %v, want all three", proc.processed)
	}
}

func TestRun_ListFailure(t *testing.T) {
	lister := &mockLister{err: errors.New("api down")}
	r := NewRunner(RunnerConfig{Lister: lister, Processor: &mockProcessor{}, Delay: time.Millisecond})

	if _, err := r.Run(context.Background(), 7); err == nil {
		t.Fatal("expected error from list failure")
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	lister := &mockLister{ids: []string{"a", "b", "c"}}
	proc := &mockProcessor{}
	r := NewRunner(RunnerConfig{Lister: lister, Processor: proc, Delay: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := r.Run(ctx, 7)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(proc.processed) != 0 {
		t.Errorf("processed = %v, want none after cancellation", proc.processed)
	}
	if result.Listed != 3 {
		t.Errorf("listed = %d", result.Listed)
	}
}
