package main

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

// scriptedSource replays msgs (or errs) and cancels the context once exhausted.
type scriptedSource struct {
	steps  []func() (kafka.Message, error)
	cancel context.CancelFunc
}

func (s *scriptedSource) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(s.steps) == 0 {
		s.cancel()
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	step := s.steps[0]
	s.steps = s.steps[1:]
	return step()
}

type recordingSink struct {
	pushed [][]byte
	failOn string
}

func (r *recordingSink) PushEventJSON(_ context.Context, raw []byte) error {
	if string(raw) == r.failOn {
		return errors.New("loki: 400")
	}
	r.pushed = append(r.pushed, raw)
	return nil
}

func msg(value string) func() (kafka.Message, error) {
	return func() (kafka.Message, error) {
		return kafka.Message{Key: []byte("s1"), Value: []byte(value)}, nil
	}
}

func TestForward_PushesEventsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &scriptedSource{cancel: cancel, steps: []func() (kafka.Message, error){
		msg(`{"eventType":"otp_issued"}`),
		msg(`{"eventType":"otp_validated"}`),
	}}
	sink := &recordingSink{}

	if n := forward(ctx, src, sink); n != 2 {
		t.Errorf("forwarded = %d, want 2", n)
	}
	if len(sink.pushed) != 2 || string(sink.pushed[1]) != `{"eventType":"otp_validated"}` {
		t.Errorf("pushed = %q", sink.pushed)
	}
}

func TestForward_SkipsReadAndPushFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &scriptedSource{cancel: cancel, steps: []func() (kafka.Message, error){
		func() (kafka.Message, error) { return kafka.Message{}, errors.New("broker gone") },
		msg(`rejected`),
		msg(`{"eventType":"sms_delivery_failed"}`),
	}}
	sink := &recordingSink{failOn: "rejected"}

	if n := forward(ctx, src, sink); n != 1 {
		t.Errorf("forwarded = %d, want 1", n)
	}
	if len(sink.pushed) != 1 || string(sink.pushed[0]) != `{"eventType":"sms_delivery_failed"}` {
		t.Errorf("pushed = %q", sink.pushed)
	}
}
