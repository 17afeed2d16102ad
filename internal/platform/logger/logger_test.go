package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

func TestTextFormat_SortedAndFiltered(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Info, App: "vet", Output: &buf, Clock: fixedClock})

	l.Debug("hidden", nil)
	l.With(Fields{"request_id": "abc"}).Info("user created", Fields{"id": "u1"})

	out := strings.TrimSpace(buf.String())
	assert.Equal(t, `app=vet id=u1 level=info msg="user created" request_id=abc ts=2025-01-02T03:04:05Z`, out)
}

func TestJSONFormat_ErrorsAsStrings(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: Debug, Format: FormatJSON, Output: &buf, Clock: fixedClock})

	l.Error("save failed", Fields{"err": errors.New("boom")})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "boom", entry["err"])
}

func TestWithDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := New(Options{Output: &buf, Clock: fixedClock})
	_ = parent.With(Fields{"child": true})

	parent.Info("x", nil)
	assert.NotContains(t, buf.String(), "child")
}

func TestContextRoundTrip(t *testing.T) {
	assert.Equal(t, Nop(), FromContext(context.Background()))

	l := New(Options{Output: &bytes.Buffer{}})
	assert.Same(t, l, FromContext(WithContext(context.Background(), l)))
}

func TestParse(t *testing.T) {
	assert.Equal(t, Warn, ParseLevel("WARNING"))
	assert.Equal(t, Info, ParseLevel("nope"))
	assert.Equal(t, FormatJSON, ParseFormat(" JSON "))
	assert.Equal(t, FormatText, ParseFormat(""))
}
