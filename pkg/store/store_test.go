package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-overstim/pkg/envelope"
	"github.com/teslashibe/go-overstim/pkg/subject"
	"github.com/teslashibe/go-overstim/pkg/trigger"
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Memory)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestResponses_DefaultsWithoutOverrides(t *testing.T) {
	s := openMemory(t)

	r, err := s.Responses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, trigger.DefaultResponses(), r)
}

func TestSetResponse_OverridesDefault(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	env := envelope.NewConstant(0.5, 3)
	require.NoError(t, s.SetResponse(ctx, subject.Mercy, trigger.Elimination, env, true))

	r, err := s.Responses(ctx)
	require.NoError(t, err)
	got, ok := r.Lookup(subject.Mercy, trigger.Elimination)
	require.True(t, ok)
	assert.Equal(t, env.String(), got.String())

	// other heroes keep the default
	got, ok = r.Lookup(subject.Lucio, trigger.Elimination)
	require.True(t, ok)
	assert.Equal(t, trigger.DefaultEnvelope(subject.Lucio, trigger.Elimination).String(), got.String())
}

func TestSetResponse_Disable(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.SetResponse(ctx, subject.Lucio, trigger.Assist, envelope.Default(), false))

	r, err := s.Responses(ctx)
	require.NoError(t, err)
	_, ok := r.Lookup(subject.Lucio, trigger.Assist)
	assert.False(t, ok)

	overrides, err := s.Overrides(ctx)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.False(t, overrides[0].Enabled)
	assert.False(t, overrides[0].Updated.IsZero())
}

func TestSetResponse_Upsert(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.SetResponse(ctx, subject.Mercy, trigger.Save, envelope.NewConstant(0.2, 1), true))
	require.NoError(t, s.SetResponse(ctx, subject.Mercy, trigger.Save, envelope.NewConstant(0.8, 2), true))

	overrides, err := s.Overrides(ctx)
	require.NoError(t, err)
	require.Len(t, overrides, 1)
	assert.InDelta(t, 0.8, overrides[0].Envelope.Intensity, 1e-9)
}

func TestSetResponse_Rejects(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	err := s.SetResponse(ctx, subject.Mercy, trigger.Elimination, envelope.NewPattern(1), true)
	assert.ErrorIs(t, err, envelope.ErrEmptyPattern)

	err = s.SetResponse(ctx, subject.Lucio, trigger.HealBeam, envelope.Default(), true)
	assert.Error(t, err, "lucio has no heal beam")
}

func TestResetResponse(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.SetResponse(ctx, subject.Juno, trigger.GlideBoost, envelope.NewConstant(1, 1), true))
	require.NoError(t, s.ResetResponse(ctx, subject.Juno, trigger.GlideBoost))

	overrides, err := s.Overrides(ctx)
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestSubject(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	auto, k, err := s.Subject(ctx)
	require.NoError(t, err)
	assert.True(t, auto)
	assert.Equal(t, subject.Other, k)

	require.NoError(t, s.SetSubject(ctx, false, subject.Zenyatta))
	auto, k, err = s.Subject(ctx)
	require.NoError(t, err)
	assert.False(t, auto)
	assert.Equal(t, subject.Zenyatta, k)
}

func TestOpen_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "overstim.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.SetSubject(ctx, false, subject.Mercy))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	auto, k, err := s.Subject(ctx)
	require.NoError(t, err)
	assert.False(t, auto)
	assert.Equal(t, subject.Mercy, k)
}

func TestResponses_InvalidStoredEnvelopeFallsBackToDefault(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	require.NoError(t, s.SetResponse(ctx, subject.Mercy, trigger.Elimination, envelope.NewConstant(0.5, 3), true))
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO responses (subject, trigger, envelope, enabled, updated_at)
         VALUES ('mercy', 'heal_beam', 'garbage', 1, '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	r, err := s.Responses(ctx)
	require.NoError(t, err)

	got, ok := r.Lookup(subject.Mercy, trigger.HealBeam)
	require.True(t, ok)
	assert.Equal(t, trigger.DefaultEnvelope(subject.Mercy, trigger.HealBeam).String(), got.String())

	// valid rows still apply
	got, ok = r.Lookup(subject.Mercy, trigger.Elimination)
	require.True(t, ok)
	assert.Equal(t, envelope.NewConstant(0.5, 3).String(), got.String())
}

func TestResponses_UnknownStoredTriggerSkipped(t *testing.T) {
	s := openMemory(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO responses (subject, trigger, envelope, enabled, updated_at)
         VALUES ('mercy', 'teabag', '30% 6s', 1, '2026-01-01T00:00:00Z')`)
	require.NoError(t, err)

	r, err := s.Responses(ctx)
	require.NoError(t, err)
	assert.Equal(t, trigger.DefaultResponses(), r)
}
