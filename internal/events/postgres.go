package events

import (
	"context"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultChannel is the NOTIFY channel used when none is configured.
const DefaultChannel = "topology_cascade"

// maxPayload stays under the 8000 bytes PostgreSQL accepts for a NOTIFY.
const maxPayload = 7900

// Notifier publishes events with pg_notify.
type Notifier struct {
	db      *gorm.DB
	channel string
}

// NewNotifier returns a Notifier sending on channel.
func NewNotifier(db *gorm.DB, channel string) *Notifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Notifier{db: db, channel: channel}
}

// Publish implements Publisher. Oversized id lists are dropped from the
// payload; listeners then only learn that something changed.
func (n *Notifier) Publish(ev Event) {
	payload, err := Encode(ev)
	if err != nil {
		logrus.WithError(err).Error("events: encode notification")
		return
	}
	if len(payload) > maxPayload {
		ev.PathIDs, ev.TopologyIDs = nil, nil
		payload, _ = Encode(ev)
	}
	if err := n.db.Exec("SELECT pg_notify(?, ?)", n.channel, payload).Error; err != nil {
		logrus.WithError(err).WithField("channel", n.channel).Warn("events: pg_notify failed")
	}
}

// Listen forwards every notification received on channel to out until ctx
// is cancelled.
func Listen(ctx context.Context, dsn, channel string, out Publisher) error {
	if channel == "" {
		channel = DefaultChannel
	}
	report := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logrus.WithError(err).WithField("event", ev).Warn("events: listener connection problem")
		}
	}
	l := pq.NewListener(dsn, 10*time.Second, time.Minute, report)
	if err := l.Listen(channel); err != nil {
		l.Close()
		return err
	}
	logrus.WithField("channel", channel).Info("events: listening for cascade notifications")

	go func() {
		defer l.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case n := <-l.Notify:
				// nil after a reconnect
				if n == nil {
					continue
				}
				ev, err := Decode(n.Extra)
				if err != nil {
					logrus.WithError(err).Warn("events: bad notification payload")
					continue
				}
				out.Publish(ev)
			case <-time.After(90 * time.Second):
				go l.Ping()
			}
		}
	}()
	return nil
}
