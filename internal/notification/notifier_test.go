package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/raftaar7864/rental-management-backend/internal/email"
	"github.com/raftaar7864/rental-management-backend/internal/whatsapp"
	"github.com/raftaar7864/rental-management-backend/platform/config"
)

type fakeSender struct {
	mu         sync.Mutex
	configured bool
	err        error
	sent       []sentEmail
}

type sentEmail struct {
	To      string
	Subject string
	HTML    string
}

func (f *fakeSender) Send(_ context.Context, to, subject, html string, _ ...email.Attachment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{To: to, Subject: subject, HTML: html})
	return nil
}

func (f *fakeSender) IsConfigured() bool { return f.configured }

func (f *fakeSender) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeDispatcher struct {
	mu         sync.Mutex
	configured bool
	err        error
	lastTo     string
	lastMsg    whatsapp.Message
	calls      int
}

func (f *fakeDispatcher) Configured() bool { return f.configured }

func (f *fakeDispatcher) ChannelStatus() map[string]bool {
	return map[string]bool{"twilio": f.configured}
}

func (f *fakeDispatcher) Send(_ context.Context, to string, msg whatsapp.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastTo = to
	f.lastMsg = msg
	return f.err
}

func newTestNotifier(sender *fakeSender, wa *fakeDispatcher) *Notifier {
	cfg := &config.Config{
		FrontendBaseURL:    "https://app.example.com",
		BackendBaseURL:     "https://api.example.com",
		CompanyName:        "Shanti Properties",
		EmailQueueThrottle: time.Millisecond,
	}
	return NewNotifier(cfg, cfg, cfg, sender, wa, testLogger())
}

func TestSendBillEmailDeliversRenderedMail(t *testing.T) {
	sender := &fakeSender{configured: true}
	n := newTestNotifier(sender, &fakeDispatcher{configured: true})
	bill := testBill(false)

	if err := n.SendBillEmail(context.Background(), bill, TypeCreated); err != nil {
		t.Fatalf("send email: %v", err)
	}

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	got := sender.sent[0]
	if got.To != "asha@example.com" {
		t.Fatalf("to = %q, want tenant email", got.To)
	}
	if !strings.Contains(got.Subject, "March 2024") {
		t.Fatalf("subject = %q, want billing month", got.Subject)
	}
	if !strings.Contains(got.HTML, "Pay Now") {
		t.Fatal("unpaid bill email should contain a Pay Now button")
	}
}

func TestSendBillEmailSkipsWithoutTenantEmail(t *testing.T) {
	sender := &fakeSender{configured: true}
	n := newTestNotifier(sender, &fakeDispatcher{})
	bill := testBill(false)
	bill.Tenant.Email = ""

	if err := n.SendBillEmail(context.Background(), bill, TypeCreated); err != nil {
		t.Fatalf("skip should count as success, got %v", err)
	}
	if sender.sentCount() != 0 {
		t.Fatal("no mail should be sent without a tenant email")
	}
}

func TestSendBillEmailSkipsWhenSenderUnconfigured(t *testing.T) {
	sender := &fakeSender{configured: false}
	n := newTestNotifier(sender, &fakeDispatcher{})

	if err := n.SendBillEmail(context.Background(), testBill(false), TypeCreated); err != nil {
		t.Fatalf("skip should count as success, got %v", err)
	}
	if sender.sentCount() != 0 {
		t.Fatal("no mail should be sent without a configured provider")
	}
}

func TestSendBillWhatsAppDeliversTextAndVariables(t *testing.T) {
	wa := &fakeDispatcher{configured: true}
	n := newTestNotifier(&fakeSender{configured: true}, wa)
	bill := testBill(false)

	if err := n.SendBillWhatsApp(context.Background(), bill, TypeCreated); err != nil {
		t.Fatalf("send whatsapp: %v", err)
	}

	wa.mu.Lock()
	defer wa.mu.Unlock()
	if wa.lastTo != "9876543210" {
		t.Fatalf("to = %q, want tenant phone", wa.lastTo)
	}
	if !strings.Contains(wa.lastMsg.Text, "Asha Verma") {
		t.Fatal("message text missing tenant name")
	}
	if wa.lastMsg.TemplateVars["2"] != "March 2024" {
		t.Fatalf("template var 2 = %q, want month label", wa.lastMsg.TemplateVars["2"])
	}
}

func TestSendBillWhatsAppSkipsWithoutPhone(t *testing.T) {
	wa := &fakeDispatcher{configured: true}
	n := newTestNotifier(&fakeSender{configured: true}, wa)
	bill := testBill(false)
	bill.Tenant.Phone = "  "

	if err := n.SendBillWhatsApp(context.Background(), bill, TypeCreated); err != nil {
		t.Fatalf("skip should count as success, got %v", err)
	}
	if wa.calls != 0 {
		t.Fatal("dispatcher should not be called without a phone")
	}
}

func TestSendBillNeverPropagatesChannelFailures(t *testing.T) {
	sender := &fakeSender{configured: true, err: errors.New("smtp down")}
	wa := &fakeDispatcher{configured: true, err: errors.New("provider down")}
	n := newTestNotifier(sender, wa)
	bill := testBill(false)

	// Both channels fail; SendBill must still reach the second one and return.
	n.SendBill(context.Background(), bill, TypeCreated)

	if wa.calls != 1 {
		t.Fatalf("whatsapp calls = %d, want 1 despite email failure", wa.calls)
	}
}

func TestSendBillDoesNotHoldWhatsAppBehindEmail(t *testing.T) {
	sender := &fakeSender{configured: true}
	wa := &fakeDispatcher{configured: true}
	n := newTestNotifier(sender, wa)
	bill := testBill(false)

	release := make(chan struct{})
	n.queue.send = func(_ context.Context, _ QueueItem) error {
		<-release
		return nil
	}

	done := make(chan struct{})
	go func() {
		n.SendBill(context.Background(), bill, TypeCreated)
		close(done)
	}()

	// WhatsApp must be dispatched while the email send is still blocked.
	deadline := time.After(5 * time.Second)
	for {
		wa.mu.Lock()
		calls := wa.calls
		wa.mu.Unlock()
		if calls == 1 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("whatsapp dispatch waited on the email settlement")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("SendBill never returned")
	}
}

func TestCancelPendingEmailsSettlesQueued(t *testing.T) {
	sender := &fakeSender{configured: true}
	n := newTestNotifier(sender, &fakeDispatcher{})
	bill := testBill(false)

	pickedUp := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	n.queue.send = func(_ context.Context, _ QueueItem) error {
		once.Do(func() { close(pickedUp) })
		<-release
		return nil
	}

	inFlight := n.queue.Enqueue(QueueItem{BillID: uuid.New(), To: "x@example.com"})

	// Wait until the processor holds the blocking item so the next enqueue
	// stays pending.
	select {
	case <-pickedUp:
	case <-time.After(5 * time.Second):
		t.Fatal("blocking item never picked up")
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- n.SendBillEmail(context.Background(), bill, TypeUpdated)
	}()

	for n.queue.PendingCount() == 0 {
		time.Sleep(time.Millisecond)
	}
	n.CancelPendingEmails(bill.ID)

	if err := waitSettled(t, errCh); !errors.Is(err, ErrCancelled) {
		t.Fatalf("email settlement = %v, want ErrCancelled", err)
	}

	close(release)
	if err := waitSettled(t, inFlight); err != nil {
		t.Fatalf("in-flight send failed: %v", err)
	}
}

func TestProvidersReportsReadiness(t *testing.T) {
	n := newTestNotifier(&fakeSender{configured: true}, &fakeDispatcher{configured: true})

	status := n.Providers()
	if !status.Email || !status.WhatsApp {
		t.Fatalf("status = %+v, want both providers ready", status)
	}
	if !status.WhatsAppChannels["twilio"] {
		t.Fatal("channel status missing twilio")
	}
}
