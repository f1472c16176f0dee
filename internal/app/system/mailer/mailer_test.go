package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/orderly/internal/domain/models"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (r *recordingMailer) Send(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.err
}

func (r *recordingMailer) messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.sent...)
}

func waitFor(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Wait(ctx); err != nil {
		t.Fatalf("dispatcher did not drain: %v", err)
	}
}

func TestDispatchWelcome(t *testing.T) {
	rec := &recordingMailer{}
	d := NewDispatcher(rec, DispatcherConfig{WelcomeTemplateID: "d-123"}, zap.NewNop())

	d.DispatchWelcome(models.User{FirstName: "Nour", LastName: "Hassan", Email: "nour@example.com"})
	waitFor(t, d)

	msgs := rec.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(msgs))
	}
	m := msgs[0]
	if m.TemplateID != "d-123" || m.ToEmail != "nour@example.com" {
		t.Errorf("unexpected message %+v", m)
	}
	if m.TemplateData["subject"] != WelcomeSubject || m.TemplateData["firstName"] != "Nour" || m.TemplateData["lastName"] != "Hassan" {
		t.Errorf("unexpected template data %v", m.TemplateData)
	}
}

func TestDispatchInvitation(t *testing.T) {
	rec := &recordingMailer{}
	d := NewDispatcher(rec, DispatcherConfig{SiteName: "Orderly"}, zap.NewNop())

	d.DispatchInvitation(
		models.User{FirstName: "Sam", LastName: "Adel", Email: "sam@example.com"},
		models.User{FirstName: "Country", LastName: "Boss"},
		models.Team{Name: "North <Stars>"},
	)
	waitFor(t, d)

	msgs := rec.messages()
	if len(msgs) != 1 {
		t.Fatalf("sent %d messages, want 1", len(msgs))
	}
	m := msgs[0]
	if m.TemplateID != "" {
		t.Error("invitation should not use a provider template")
	}
	if !strings.Contains(m.TextBody, "Country Boss") || !strings.Contains(m.TextBody, "North <Stars>") {
		t.Errorf("text body missing names: %q", m.TextBody)
	}
	if !strings.Contains(m.HTMLBody, "North &lt;Stars&gt;") {
		t.Error("html body should escape the team name")
	}
}

func TestDispatch_FailureDoesNotPropagate(t *testing.T) {
	rec := &recordingMailer{err: errors.New("provider down")}
	d := NewDispatcher(rec, DispatcherConfig{}, zap.NewNop())

	d.DispatchWelcome(models.User{Email: "x@example.com"})
	waitFor(t, d)

	if len(rec.messages()) != 1 {
		t.Error("expected exactly one attempt, no retry")
	}
}

func TestBuildV3_Template(t *testing.T) {
	from := mail.NewEmail("Orderly", "info@orderly_sales.com")
	m := buildV3(from, Message{
		ToEmail:      "a@example.com",
		ToName:       "A B",
		TemplateID:   "d-716eb488afa0459e88a34c6d6473a79c",
		TemplateData: map[string]any{"firstName": "A"},
	})

	var body struct {
		TemplateID       string `json:"template_id"`
		Personalizations []struct {
			To   []struct{ Email string } `json:"to"`
			Data map[string]any           `json:"dynamic_template_data"`
		} `json:"personalizations"`
	}
	if err := json.Unmarshal(mail.GetRequestBody(m), &body); err != nil {
		t.Fatalf("decode request body: %v", err)
	}
	if body.TemplateID != "d-716eb488afa0459e88a34c6d6473a79c" {
		t.Errorf("template_id = %q", body.TemplateID)
	}
	if len(body.Personalizations) != 1 || body.Personalizations[0].To[0].Email != "a@example.com" {
		t.Fatalf("unexpected personalizations %+v", body.Personalizations)
	}
	if body.Personalizations[0].Data["firstName"] != "A" {
		t.Errorf("dynamic data = %v", body.Personalizations[0].Data)
	}
}

func TestLogMailer(t *testing.T) {
	if err := NewLogMailer(zap.NewNop()).Send(context.Background(), Message{ToEmail: "a@example.com"}); err != nil {
		t.Errorf("LogMailer.Send returned %v", err)
	}
}
