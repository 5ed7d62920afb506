package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"guardian-service/internal/authority"
	"guardian-service/internal/models"
)

const maxMessageLen = 2000

// Sender is the single operation the orchestrator needs from an outbound
// channel provider: deliver body to target or fail.
type Sender interface {
	Send(ctx context.Context, target, body string) error
}

// Orchestrator fans one message out to every (contact, channel) pair with a
// non-blank target. Per-pair failures are recorded, never propagated; the
// only error conditions are malformed input.
type Orchestrator struct {
	sms       Sender
	email     Sender
	authority *authority.Relay
	logger    *logrus.Logger
}

func NewOrchestrator(sms, email Sender, relay *authority.Relay, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{sms: sms, email: email, authority: relay, logger: logger}
}

// Dispatch issues one independent send per contact per channel and returns
// the full result list after all sends settle. The authority relay is
// invoked as a best-effort side effect; its result never changes the
// per-contact results and never fails the call.
func (o *Orchestrator) Dispatch(ctx context.Context, message string, contacts []models.DispatchContact) ([]models.DispatchResult, authority.Result, error) {
	if strings.TrimSpace(message) == "" {
		return nil, authority.Result{}, fmt.Errorf("message must not be empty")
	}
	if len(message) > maxMessageLen {
		return nil, authority.Result{}, fmt.Errorf("message exceeds %d characters", maxMessageLen)
	}
	if len(contacts) == 0 {
		return nil, authority.Result{}, fmt.Errorf("contacts must not be empty")
	}

	type attempt struct {
		contactID string
		channel   models.Channel
		target    string
		sender    Sender
	}

	var attempts []attempt
	for _, c := range contacts {
		if phone := strings.TrimSpace(c.Phone); phone != "" {
			attempts = append(attempts, attempt{contactID: c.ID, channel: models.ChannelSMS, target: phone, sender: o.sms})
		}
		if addr := strings.TrimSpace(c.Email); addr != "" {
			attempts = append(attempts, attempt{contactID: c.ID, channel: models.ChannelEmail, target: addr, sender: o.email})
		}
	}

	// Every attempt writes its own slot, so no result is lost and no send
	// can short-circuit another.
	results := make([]models.DispatchResult, len(attempts))
	var wg sync.WaitGroup
	for i, a := range attempts {
		wg.Add(1)
		go func(i int, a attempt) {
			defer wg.Done()
			res := models.DispatchResult{ContactID: a.contactID, Channel: a.channel}
			if err := a.sender.Send(ctx, a.target, message); err != nil {
				res.Error = err.Error()
				o.logger.Errorf("Dispatch to %s via %s failed: %v", a.target, a.channel, err)
			} else {
				res.OK = true
			}
			results[i] = res
		}(i, a)
	}
	wg.Wait()

	auth := o.authority.Dispatch(ctx, authority.Payload{
		Message:  message,
		Contacts: contacts,
	})

	sent := 0
	for _, r := range results {
		if r.OK {
			sent++
		}
	}
	o.logger.Infof("Dispatch complete: %d/%d channels delivered, authority enabled=%v ok=%v",
		sent, len(results), auth.Enabled, auth.OK)

	return results, auth, nil
}
