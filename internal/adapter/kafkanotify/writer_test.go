package kafkanotify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycast-app/skycast/internal/alert"
)

func TestSerializeToMessage(t *testing.T) {
	n := alert.Notification{
		Title:              "🚨 Weather Alert - Austin",
		Body:               "Dangerous wind gusts of 80 km/h",
		Tag:                "weather-alert-Austin-wind",
		RequireInteraction: true,
	}

	msg, err := serializeToMessage(n)
	require.NoError(t, err)

	assert.Equal(t, []byte("weather-alert-Austin-wind"), msg.Key)
	assert.JSONEq(t, `{
		"title": "🚨 Weather Alert - Austin",
		"body": "Dangerous wind gusts of 80 km/h",
		"tag": "weather-alert-Austin-wind",
		"require_interaction": true
	}`, string(msg.Value))
}
