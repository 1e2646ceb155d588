package core

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDebugLogsOmitSecrets(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(obs)
	path := filepath.Join(t.TempDir(), "c.box")

	c, err := Create(path, []byte("hunter2"), WithLogger(log))
	require.NoError(t, err)
	addString(t, c, "secret.txt", "text/plain", "launch codes")
	require.NoError(t, c.Save(ctx, nil))
	require.NoError(t, c.Close())

	reopened, err := Open(ctx, path, []byte("hunter2"), nil, WithLogger(log))
	require.NoError(t, err)
	dir := filepath.Join(t.TempDir(), "out")
	_, err = reopened.ExtractAll(ctx, dir, StrategyUseContainer, nil, nil)
	require.NoError(t, err)
	require.NoError(t, reopened.Close())

	assert.NotEmpty(t, logs.FilterMessage("saved container").All())
	assert.NotEmpty(t, logs.FilterMessage("opened container").All())

	extracted := logs.FilterMessage("extracted container").All()
	require.Len(t, extracted, 1)
	assert.Equal(t, dir, extracted[0].ContextMap()["dir"])
	assert.EqualValues(t, 1, extracted[0].ContextMap()["extracted"])

	for _, e := range logs.All() {
		line := e.Message + " " + fmt.Sprint(e.ContextMap())
		assert.NotContains(t, line, "hunter2")
		assert.NotContains(t, line, "launch codes")
	}
}
