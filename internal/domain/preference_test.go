package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 10, hour, minute, 0, 0, time.UTC)
}

func TestQuietHours_Covers(t *testing.T) {
	day := QuietHours{Enabled: true, Start: TimeOfDay{Hour: 13}, End: TimeOfDay{Hour: 14, Minute: 30}}
	night := QuietHours{Enabled: true, Start: TimeOfDay{Hour: 22}, End: TimeOfDay{Hour: 7}}
	empty := QuietHours{Enabled: true, Start: TimeOfDay{Hour: 9}, End: TimeOfDay{Hour: 9}}

	tests := []struct {
		name  string
		q     QuietHours
		local time.Time
		want  bool
	}{
		{"before day window", day, at(12, 59), false},
		{"day window start is inclusive", day, at(13, 0), true},
		{"inside day window", day, at(14, 29), true},
		{"day window end is exclusive", day, at(14, 30), false},
		{"night window evening", night, at(23, 15), true},
		{"night window start", night, at(22, 0), true},
		{"night window after midnight", night, at(0, 0), true},
		{"night window early morning", night, at(6, 59), true},
		{"night window end is exclusive", night, at(7, 0), false},
		{"night window midday", night, at(12, 0), false},
		{"equal bounds never cover", empty, at(9, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.q.Covers(tt.local))
		})
	}
}

func TestTypeToggles_SetAndEnabled(t *testing.T) {
	var toggles TypeToggles
	for _, nt := range NotificationTypes() {
		assert.False(t, toggles.Enabled(nt))
		toggles.Set(nt, true)
		assert.True(t, toggles.Enabled(nt), nt)
	}
	assert.Equal(t, AllTypesEnabled(), toggles)
	assert.False(t, toggles.Enabled("unknown"))
}

func TestDefaultPreference(t *testing.T) {
	p := DefaultPreference("u1", "Europe/Berlin")

	for _, c := range []Channel{ChannelEmail, ChannelPush, ChannelInApp} {
		cp, ok := p.Channel(c)
		require.True(t, ok)
		assert.True(t, cp.Enabled)
		assert.Equal(t, AllTypesEnabled(), cp.Types)
	}
	assert.False(t, p.QuietHours.Enabled)
	assert.Equal(t, "Europe/Berlin", p.QuietHours.Timezone)

	_, ok := p.Channel("pigeon")
	assert.False(t, ok)
}

func TestPreference_JSONShape(t *testing.T) {
	p := DefaultPreference("u1", "UTC")
	p.Email.Types.Set(NotificationNewMessage, false)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"start":"22:00"`)
	assert.Contains(t, string(raw), `"new_message":false`)

	var decoded Preference
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, p, decoded)

	assert.Error(t, json.Unmarshal([]byte(`{"quietHours":{"start":"25:99"}}`), &decoded))
}
