package gantry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gantrykit/gantry/errors"
)

func TestLifecycleHookOrdering(t *testing.T) {
	a := newTestApp(t)

	var order []string
	record := func(name string) LifecycleHook {
		return func(ctx context.Context, app App) error {
			order = append(order, name)

			return nil
		}
	}

	require.NoError(t, a.RegisterHookFn(PhaseBeforeLoad, "second", record("second")))
	require.NoError(t, a.RegisterHook(PhaseBeforeLoad, record("first"), LifecycleHookOptions{
		Name:     "first",
		Priority: 10,
	}))
	require.NoError(t, a.RegisterHookFn(PhaseAfterLoad, "third", record("third")))
	require.NoError(t, a.RegisterHookFn(PhaseBeforeStop, "fourth", record("fourth")))
	require.NoError(t, a.RegisterHookFn(PhaseAfterStop, "fifth", record("fifth")))

	require.NoError(t, a.Start(t.Context()))
	require.NoError(t, a.Stop(t.Context()))

	assert.Equal(t, []string{"first", "second", "third", "fourth", "fifth"}, order)
}

func TestLifecycleHookFailureAbortsStart(t *testing.T) {
	a := newTestApp(t)

	require.NoError(t, a.RegisterHookFn(PhaseBeforeLoad, "boom", func(ctx context.Context, app App) error {
		return errors.New("hook failure")
	}))

	err := a.Start(t.Context())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestLifecycleHookContinueOnError(t *testing.T) {
	a := newTestApp(t)

	var ran bool
	require.NoError(t, a.RegisterHook(PhaseBeforeLoad, func(ctx context.Context, app App) error {
		return errors.New("tolerated")
	}, LifecycleHookOptions{Name: "tolerated", ContinueOnError: true}))
	require.NoError(t, a.RegisterHookFn(PhaseBeforeLoad, "after", func(ctx context.Context, app App) error {
		ran = true

		return nil
	}))

	require.NoError(t, a.Start(t.Context()))

	defer func() { require.NoError(t, a.Stop(t.Context())) }()

	assert.True(t, ran)
}

func TestLifecycleNilHookRejected(t *testing.T) {
	a := newTestApp(t)

	err := a.RegisterHook(PhaseBeforeLoad, nil, LifecycleHookOptions{Name: "nil"})
	require.Error(t, err)
}
