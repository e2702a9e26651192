package notification

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/servicebooking/internal/apperrors"
	"github.com/Domenick1991/servicebooking/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Suppression reasons.
const (
	ReasonChannelDisabled        = "channel-disabled"
	ReasonTypeDisabled           = "type-disabled"
	ReasonQuietHours             = "quiet-hours"
	ReasonPreferencesUnavailable = "preferences-unavailable"
)

type Decision struct {
	Allowed bool
	Reason  string
}

func Allowed() Decision {
	return Decision{Allowed: true}
}

func Suppressed(reason string) Decision {
	return Decision{Reason: reason}
}

type PreferenceReader interface {
	Get(ctx context.Context, userID string) (*domain.Preference, error)
}

// Gate decides whether a side-channel delivery is permitted by the recipient's preferences.
type Gate struct {
	prefs     PreferenceReader
	defaultTZ string
	logger    *zap.Logger
	decisions *prometheus.CounterVec
}

func NewGate(prefs PreferenceReader, defaultTZ string, logger *zap.Logger, reg prometheus.Registerer) *Gate {
	g := &Gate{
		prefs:     prefs,
		defaultTZ: defaultTZ,
		logger:    logger,
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_gate_decisions_total",
			Help: "Notification gate decisions by channel and outcome.",
		}, []string{"channel", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(g.decisions)
	}
	return g
}

// ShouldDeliver evaluates the recipient's stored preferences, or the all-enabled default when
// none are stored. If preferences cannot be read the delivery is suppressed.
func (g *Gate) ShouldDeliver(ctx context.Context, recipientID string, channel domain.Channel, nt domain.NotificationType, now time.Time) Decision {
	pref, err := g.prefs.Get(ctx, recipientID)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		def := domain.DefaultPreference(recipientID, g.defaultTZ)
		pref = &def
	case err != nil:
		g.logger.Warn("notification preferences unavailable, suppressing delivery",
			zap.String("recipient_id", recipientID), zap.Error(err))
		return g.record(channel, Suppressed(ReasonPreferencesUnavailable))
	}

	return g.record(channel, g.Evaluate(pref, channel, nt, now))
}

// Evaluate applies the checks in order: channel switch, per-type switch, quiet hours.
func (g *Gate) Evaluate(pref *domain.Preference, channel domain.Channel, nt domain.NotificationType, now time.Time) Decision {
	cp, ok := pref.Channel(channel)
	if !ok || !cp.Enabled {
		return Suppressed(ReasonChannelDisabled)
	}
	if !cp.Types.Enabled(nt) {
		return Suppressed(ReasonTypeDisabled)
	}
	if pref.QuietHours.Enabled && pref.QuietHours.Covers(now.In(g.location(pref))) {
		return Suppressed(ReasonQuietHours)
	}
	return Allowed()
}

func (g *Gate) location(pref *domain.Preference) *time.Location {
	name := pref.QuietHours.Timezone
	if name == "" {
		name = g.defaultTZ
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		g.logger.Warn("unknown quiet hours timezone, using UTC",
			zap.String("user_id", pref.UserID), zap.String("timezone", name))
		return time.UTC
	}
	return loc
}

func (g *Gate) record(channel domain.Channel, d Decision) Decision {
	outcome := "allowed"
	if !d.Allowed {
		outcome = d.Reason
	}
	g.decisions.WithLabelValues(string(channel), outcome).Inc()
	return d
}
