package demo

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Borislavv/refptr/pkg/config"
	"github.com/Borislavv/refptr/pkg/k8s/probe/liveness"
	"github.com/Borislavv/refptr/pkg/ptr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const TestConfigPath = "refptr.cfg.test.yaml"

func TestApp_RunsScenariosAndReleasesEverything(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg, err := config.LoadConfig(filepath.Join("..", "..", TestConfigPath))
	require.NoError(t, err)

	app, err := NewApp(ctx, cfg, liveness.NewProbe(10*time.Millisecond))
	require.NoError(t, err)
	defer ptr.SetObserver(nil)

	wg := &sync.WaitGroup{}
	wg.Add(1)
	app.Start(wg)
	wg.Wait()

	assert.NoError(t, app.Err())
	assert.True(t, app.IsAlive(ctx))

	require.NotNil(t, app.Tracker())
	allocated, freed, _ := app.Tracker().Stats()
	assert.Positive(t, allocated)
	assert.Equal(t, allocated, freed)
	assert.Zero(t, app.Tracker().Len())
}

func TestApp_FailedScenarioMarksDead(t *testing.T) {
	cfg := testConfig()
	cfg.Demo.Scenarios = []string{"teleport"}

	app, err := NewApp(context.Background(), cfg, liveness.NewProbe(time.Second))
	require.NoError(t, err)
	defer ptr.SetObserver(nil)

	wg := &sync.WaitGroup{}
	wg.Add(1)
	app.Start(wg)
	wg.Wait()

	assert.ErrorIs(t, app.Err(), ErrUnknownScenario)
	assert.False(t, app.IsAlive(context.Background()))
}

func TestApp_TrackerDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Tracker.Enabled = false
	cfg.Demo.Enabled = false

	app, err := NewApp(context.Background(), cfg, liveness.NewProbe(time.Second))
	require.NoError(t, err)
	defer ptr.SetObserver(nil)

	wg := &sync.WaitGroup{}
	wg.Add(1)
	app.Start(wg)
	wg.Wait()

	assert.Nil(t, app.Tracker())
	assert.NoError(t, app.Err())
}

type fakeServer struct {
	alive atomic.Bool
}

func (f *fakeServer) Start()        {}
func (f *fakeServer) IsAlive() bool { return f.alive.Load() }

func TestApp_IsAliveBeforeServerListens(t *testing.T) {
	srv := &fakeServer{}
	app := &Demo{server: srv}
	ctx := context.Background()

	assert.True(t, app.IsAlive(ctx), "server is not bound yet")

	srv.alive.Store(true)
	assert.True(t, app.IsAlive(ctx))

	srv.alive.Store(false)
	assert.False(t, app.IsAlive(ctx), "server went away after listening")
}
