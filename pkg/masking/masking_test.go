package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactConfigByPointer(t *testing.T) {
	r := New()
	cfg := map[string]any{
		"host": "db.internal",
		"auth": map[string]any{
			"password": "hunter2hunter",
			"username": "svc",
		},
	}

	redacted := r.RedactConfig(cfg, []string{"/auth/password"})

	auth := redacted["auth"].(map[string]any)
	assert.Equal(t, Redacted, auth["password"])
	assert.Equal(t, "svc", auth["username"])
	assert.Equal(t, "db.internal", redacted["host"])

	// original untouched
	origAuth := cfg["auth"].(map[string]any)
	assert.Equal(t, "hunter2hunter", origAuth["password"])
}

func TestRedactConfigByDenylistName(t *testing.T) {
	r := New()
	cfg := map[string]any{
		"db_password": "swordfish1",
		"api_key":     "abc123xyz",
		"description": "extracts orders",
	}

	redacted := r.RedactConfig(cfg, nil)

	assert.Equal(t, Redacted, redacted["db_password"])
	assert.Equal(t, Redacted, redacted["api_key"])
	assert.Equal(t, "extracts orders", redacted["description"])
}

func TestRedactConfigNestedAndSlices(t *testing.T) {
	r := New()
	cfg := map[string]any{
		"connections": []any{
			map[string]any{"token": "tok-abc123"},
			map[string]any{"name": "prod"},
		},
	}

	redacted := r.RedactConfig(cfg, nil)
	list := redacted["connections"].([]any)
	assert.Equal(t, Redacted, list[0].(map[string]any)["token"])
	assert.Equal(t, "prod", list[1].(map[string]any)["name"])
}

func TestRedactConfigAndCollectReturnsOriginalValues(t *testing.T) {
	r := New()
	cfg := map[string]any{
		"auth": map[string]any{"password": "s3cret-value"},
	}

	_, collected := r.RedactConfigAndCollect(cfg, []string{"/auth/password"})
	assert.Contains(t, collected, "s3cret-value")
}

func TestRedactValueOnArbitraryPayload(t *testing.T) {
	r := New()
	payload := map[string]any{
		"event": "step_start",
		"config": map[string]any{
			"secret": "zzz-top-secret",
		},
	}

	redacted := r.RedactValue(payload).(map[string]any)
	cfg := redacted["config"].(map[string]any)
	assert.Equal(t, Redacted, cfg["secret"])
}

func TestLeakScanDetectsLeak(t *testing.T) {
	err := LeakScan(`{"host":"db","password":"hunter2hunter"}`, []string{"hunter2hunter"})
	assert.ErrorIs(t, err, ErrSecretLeak)
}

func TestLeakScanPassesWhenRedacted(t *testing.T) {
	err := LeakScan(`{"host":"db","password":"[REDACTED]"}`, []string{"hunter2hunter"})
	assert.NoError(t, err)
}

func TestLeakScanSkipsShortValues(t *testing.T) {
	err := LeakScan(`{"code":"ab"}`, []string{"ab"})
	assert.NoError(t, err)
}

func TestMatchesDenylistCaseInsensitiveAndCompound(t *testing.T) {
	assert.True(t, matchesDenylist("password"))
	assert.True(t, matchesDenylist("DB_PASSWORD"))
	assert.True(t, matchesDenylist("apiKey"))
	assert.True(t, matchesDenylist("Authorization"))
	assert.False(t, matchesDenylist("description"))
}
