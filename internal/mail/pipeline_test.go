package mail

import (
	"context"
	"errors"
	"io"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/event-registration/internal/config"
	"github.com/spec-kit/event-registration/internal/observability"
	apperrors "github.com/spec-kit/event-registration/pkg/util/errorutil"
)

// fakeTransport scripts a sequence of results; the final one repeats.
type fakeTransport struct {
	name    string
	results []error
	calls   int
}

func (f *fakeTransport) Name() string { return f.name }

func (f *fakeTransport) Send(ctx context.Context, msg *Message) error {
	idx := f.calls
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	f.calls++
	return f.results[idx]
}

func newTestPipeline(enabled bool, maxRetries int, transports ...Transport) *Pipeline {
	p := NewPipelineWithTransports(config.MailConfig{
		Enabled:        enabled,
		MaxRetries:     maxRetries,
		RetryBackoffMS: 1,
	}, transports, zap.NewNop(), observability.NewMetrics())
	p.sleep = func(time.Duration) {}
	return p
}

func testMessage() *Message {
	return &Message{To: "budi@example.com", Subject: "ticket", HTML: "<p>hi</p>"}
}

func TestSendFirstTransportSucceeds(t *testing.T) {
	first := &fakeTransport{name: "api", results: []error{nil}}
	second := &fakeTransport{name: "smtp:587", results: []error{nil}}
	p := newTestPipeline(true, 3, first, second)

	if err := p.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if first.calls != 1 {
		t.Errorf("first transport calls = %d, want 1", first.calls)
	}
	if second.calls != 0 {
		t.Errorf("second transport calls = %d, want 0", second.calls)
	}
}

func TestSendRetriesTransientThenSucceeds(t *testing.T) {
	transport := &fakeTransport{name: "smtp:587", results: []error{
		markTransient(errors.New("greeting timeout")),
		syscall.ECONNRESET,
		nil,
	}}
	p := newTestPipeline(true, 3, transport)

	if err := p.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if transport.calls != 3 {
		t.Errorf("calls = %d, want 3", transport.calls)
	}
}

func TestSendNonTransientSkipsToNextTransport(t *testing.T) {
	first := &fakeTransport{name: "api", results: []error{errors.New("550 mailbox rejected")}}
	second := &fakeTransport{name: "smtp:587", results: []error{nil}}
	p := newTestPipeline(true, 3, first, second)

	if err := p.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if first.calls != 1 {
		t.Errorf("first transport calls = %d, want 1 (no retry on permanent error)", first.calls)
	}
	if second.calls != 1 {
		t.Errorf("second transport calls = %d, want 1", second.calls)
	}
}

func TestSendExhaustionReturnsDeliveryFailed(t *testing.T) {
	lastErr := errors.New("connect refused at the very end")
	first := &fakeTransport{name: "api", results: []error{&apiError{Status: 503, Body: "down"}}}
	second := &fakeTransport{name: "smtp:587", results: []error{markTransient(lastErr)}}
	p := newTestPipeline(true, 2, first, second)

	err := p.Send(context.Background(), testMessage())
	var domainErr *apperrors.DomainError
	if !errors.As(err, &domainErr) {
		t.Fatalf("error type = %T", err)
	}
	if domainErr.Code != apperrors.CodeDeliveryFailed {
		t.Errorf("code = %s, want DELIVERY_FAILED", domainErr.Code)
	}
	if !errors.Is(err, lastErr) {
		t.Error("delivery failure does not carry the last transport error")
	}
	if first.calls != 2 || second.calls != 2 {
		t.Errorf("calls = %d/%d, want full retry budget on both", first.calls, second.calls)
	}
}

func TestSendDisabledIsNoop(t *testing.T) {
	transport := &fakeTransport{name: "api", results: []error{errors.New("should not be called")}}
	p := newTestPipeline(false, 3, transport)

	if err := p.Send(context.Background(), testMessage()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if transport.calls != 0 {
		t.Errorf("transport calls = %d, want 0 when disabled", transport.calls)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"marked transient", markTransient(errors.New("x")), true},
		{"deadline", context.DeadlineExceeded, true},
		{"conn reset", syscall.ECONNRESET, true},
		{"conn refused", syscall.ECONNREFUSED, true},
		{"eof", io.EOF, true},
		{"api 429", &apiError{Status: 429}, true},
		{"api 503", &apiError{Status: 503}, true},
		{"api 401", &apiError{Status: 401}, false},
		{"api 422", &apiError{Status: 422}, false},
		{"plain error", errors.New("bad recipient"), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTransient(tc.err); got != tc.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestBuildTicketEmail(t *testing.T) {
	qr := []byte{0x89, 'P', 'N', 'G'}
	tmpl := []byte{0x89, 'P', 'N', 'G', '2'}

	msg, err := BuildTicketEmail(TicketEmailData{
		EventName:    "MUSDA",
		Name:         "Budi",
		Code:         "a1b2c3d4",
		StatusLabel:  "LUNAS / PAID",
		RegisteredAt: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}, "budi@example.com", "Budi", qr, tmpl)
	if err != nil {
		t.Fatalf("BuildTicketEmail: %v", err)
	}

	if msg.To != "budi@example.com" {
		t.Errorf("to = %s", msg.To)
	}
	if len(msg.Inline) != 2 {
		t.Fatalf("inline images = %d, want 2", len(msg.Inline))
	}
	if msg.Inline[0].Filename != CIDQRCode || msg.Inline[1].Filename != CIDTicket {
		t.Errorf("inline filenames = %s, %s", msg.Inline[0].Filename, msg.Inline[1].Filename)
	}
}

func TestBuildTicketEmailDegradesToQROnly(t *testing.T) {
	msg, err := BuildTicketEmail(TicketEmailData{
		EventName:    "MUSDA",
		Name:         "Budi",
		Code:         "a1b2c3d4",
		RegisteredAt: time.Now(),
	}, "budi@example.com", "Budi", []byte{1}, nil)
	if err != nil {
		t.Fatalf("BuildTicketEmail: %v", err)
	}
	if len(msg.Inline) != 1 {
		t.Errorf("inline images = %d, want 1 when template missing", len(msg.Inline))
	}
}
