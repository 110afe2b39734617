package realtime

import (
	"context"

	"github.com/convitepro/realtime-go/realtime/internal/rtutil"
)

// presenceTracker remembers whether the other party was last seen present.
// It starts out absent.
type presenceTracker struct {
	present bool
	name    string
}

// observe records a presence reading. It returns the change when the value
// flipped, and whether the flip was an arrival.
func (t *presenceTracker) observe(present bool, name string) (change *PresenceChange, arrived bool) {
	previous := t.present
	t.present = present
	if name != "" {
		t.name = name
	}
	if previous == present {
		return nil, false
	}
	return &PresenceChange{Present: present, Name: t.name, Previous: previous}, present
}

func (c *Client) observePresenceLocked(present bool, name string) {
	change, arrived := c.presence.observe(present, name)
	if change == nil {
		return
	}
	c.log.Infof("Realtime Presence: other party present=%t", present)
	c.presenceEmitter.Emit(presenceEvent{}, *change)
	if arrived {
		who := change.Name
		if who == "" {
			who = "The other party"
		}
		c.notifyLocked(Notification{
			Kind:    NoticePresence,
			Level:   LevelInfo,
			Message: who + " is viewing this page",
		})
	}
}

// enterPresenceLocked tells the server the viewer is here. It does not
// wait for the answer.
func (c *Client) enterPresenceLocked() {
	c.presenceEntered = true
	ctx := c.ctx
	c.goTracked(func() {
		err := c.rest.setPresence(ctx, c.resource.Endpoints.Presence, c.resource.ViewerID, presenceEnter)
		if err != nil && ctx.Err() == nil {
			c.log.Warnf("Realtime Presence: enter: %v", err)
		}
	})
}

// leavePresence tells the server the viewer left, waiting at most
// BeaconTimeout. It never fails or panics.
func (c *Client) leavePresence() {
	defer func() {
		if r := recover(); r != nil {
			c.log.Errorf("Realtime Presence: panic while leaving: %v", r)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.BeaconTimeout)
	defer cancel()
	if err := c.rest.setPresence(ctx, c.resource.Endpoints.Presence, c.resource.ViewerID, presenceLeave); err != nil {
		c.log.Debugf("Realtime Presence: leave: %v", err)
	}
}

// startPresenceTimerLocked queries the other party's presence every
// PresenceInterval.
func (c *Client) startPresenceTimerLocked() {
	if c.presenceCancel != nil || !c.resource.hasPresence() {
		return
	}
	ctx, cancel := context.WithCancel(c.ctx)
	c.presenceCancel = cancel
	c.goTracked(func() {
		for range rtutil.NewTicker(c.opts.After)(ctx, c.resource.PresenceInterval) {
			c.checkPresence(ctx)
		}
	})
}

func (c *Client) stopPresenceTimerLocked() {
	if c.presenceCancel != nil {
		c.presenceCancel()
		c.presenceCancel = nil
	}
}

func (c *Client) checkPresence(ctx context.Context) {
	resp, err := c.rest.presence(ctx, c.resource.Endpoints.Presence, c.resource.ViewerID)
	if err != nil {
		if ctx.Err() == nil {
			c.log.Warnf("Realtime Presence: check: %v", err)
		}
		return
	}
	c.lock()
	defer c.unlock()
	if c.closed || ctx.Err() != nil {
		return
	}
	c.observePresenceLocked(resp.OtherPartyPresent, resp.OtherPartyName)
}
