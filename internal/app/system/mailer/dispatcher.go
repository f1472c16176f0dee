// internal/app/system/mailer/dispatcher.go
package mailer

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/orderly/internal/app/system/metrics"
	"github.com/dalemusser/orderly/internal/domain/models"
	"go.uber.org/zap"
)

// DispatcherConfig configures onboarding emails.
type DispatcherConfig struct {
	SiteName          string
	WelcomeTemplateID string
	// SendTimeout bounds each background send. Zero means 15s.
	SendTimeout time.Duration
}

// Dispatcher sends onboarding emails in the background. A send never blocks
// or fails the request that triggered it; failures are logged and counted.
type Dispatcher struct {
	m   Mailer
	cfg DispatcherConfig
	log *zap.Logger
	wg  sync.WaitGroup
}

func NewDispatcher(m Mailer, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 15 * time.Second
	}
	return &Dispatcher{m: m, cfg: cfg, log: logger}
}

// DispatchWelcome sends the welcome template to a new user.
func (d *Dispatcher) DispatchWelcome(u models.User) {
	d.dispatch("welcome", Message{
		ToEmail:    u.Email,
		ToName:     u.FullName(),
		Subject:    WelcomeSubject,
		TemplateID: d.cfg.WelcomeTemplateID,
		TemplateData: map[string]any{
			"subject":   WelcomeSubject,
			"firstName": u.FirstName,
			"lastName":  u.LastName,
		},
	})
}

// DispatchInvitation tells invitee they now supervise team under inviter.
func (d *Dispatcher) DispatchInvitation(invitee, inviter models.User, team models.Team) {
	msg := BuildInvitationEmail(InvitationData{
		SiteName:    d.cfg.SiteName,
		InviteeName: invitee.FullName(),
		InviterName: inviter.FullName(),
		TeamName:    team.Name,
	})
	msg.ToEmail = invitee.Email
	msg.ToName = invitee.FullName()
	d.dispatch("invitation", msg)
}

func (d *Dispatcher) dispatch(kind string, msg Message) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.Error("email dispatch panicked", zap.String("kind", kind), zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
		defer cancel()

		err := d.m.Send(ctx, msg)
		metrics.ObserveNotification(kind, err)
		if err != nil {
			d.log.Warn("email dispatch failed",
				zap.String("kind", kind),
				zap.String("to", msg.ToEmail),
				zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight sends finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
