package picking

import (
	"testing"
	"time"

	"Smart-Picking/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRegistrySweep(t *testing.T) {
	r := NewSessionRegistry()
	idle := NewSession("idle", OperatorIdentity{ID: "E001"}, ModeSingle, testStart)
	idle.Order = "B17"
	busy := NewSession("busy", OperatorIdentity{ID: "E002"}, ModeSingle, testStart)
	fresh := NewSession("fresh", OperatorIdentity{ID: "E003"}, ModeSingle, testStart.Add(2*time.Hour))
	r.Put(idle)
	r.Put(busy)
	r.Put(fresh)

	_, release, err := r.Acquire("busy")
	require.NoError(t, err)

	evicted := r.Sweep(testStart.Add(time.Hour))
	assert.Equal(t, []string{"idle"}, evicted)
	assert.False(t, r.Exists("idle"))
	assert.True(t, r.Exists("busy"), "a session serving a request is never swept")
	assert.True(t, r.Exists("fresh"))
	assert.Empty(t, idle.Order)
	assert.Empty(t, idle.Operator.ID)

	release()
	assert.ElementsMatch(t, []string{"busy"}, r.Sweep(testStart.Add(time.Hour)))
	assert.Equal(t, 1, r.Count())
}

func TestSessionRegistryAcquireAfterEviction(t *testing.T) {
	r := NewSessionRegistry()
	s := NewSession("s1", OperatorIdentity{ID: "E001"}, ModeSingle, testStart)
	r.Put(s)
	r.Sweep(testStart.Add(time.Minute))

	_, _, err := r.Acquire("s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.True(t, s.busy.TryLock(), "a refused acquire leaves the session unlocked")
}
