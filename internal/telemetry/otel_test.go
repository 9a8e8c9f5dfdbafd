package telemetry

import (
	"context"
	"errors"
	"testing"
)

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := Setup(context.Background(), "snapgram-test", "  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestSetupCreatesProvider(t *testing.T) {
	// non-routable, nothing is exported
	shutdown, err := Setup(context.Background(), "snapgram-test", "http://192.0.2.1:4318")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestEndAcceptsError(t *testing.T) {
	_, span := Tracer("test").Start(context.Background(), "op")
	End(span, errors.New("boom"))
	if span.IsRecording() {
		t.Fatal("span still recording after End")
	}
}
