package fake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumen-hal/lumen-go/pkg/display"
	"github.com/lumen-hal/lumen-go/pkg/transport"
	"github.com/lumen-hal/lumen-go/pkg/vcp"
)

// The fake bus must behave like a healthy DDC/CI display: a real
// transport bound over it round-trips brightness correctly.
func TestBusServesRealTransport(t *testing.T) {
	bus := NewBus(100, 40)
	info := display.Info{ID: display.MakeID("card0-DP-1"), Connector: "card0-DP-1"}

	tr := transport.NewI2CTransport(info, staticOpener{bus}, nil)
	require.True(t, tr.IsSupported(), "transport probe over fake bus")

	v, ok := tr.Read()
	require.True(t, ok)
	assert.InDelta(t, 0.4, v, 1e-9)

	require.True(t, tr.Write(0.75))
	assert.Equal(t, uint16(75), bus.Features[vcp.CodeBrightness].Current)

	v, ok = tr.Read()
	require.True(t, ok)
	assert.InDelta(t, 0.75, v, 1e-9)
}

func TestBusFaultInjection(t *testing.T) {
	bus := NewBus(100, 40)
	info := display.Info{ID: display.MakeID("card0-DP-1"), Connector: "card0-DP-1"}

	bus.FailReads = 100
	tr := transport.NewI2CTransport(info, staticOpener{bus}, nil)
	assert.False(t, tr.IsSupported(), "probe over a dead bus")
}

func TestBusRejectsUnknownFeature(t *testing.T) {
	bus := NewBus(100, 40)

	request := vcp.BuildGetVCPRequest(vcp.CodeContrast)
	require.NoError(t, bus.Write(request))

	reply := make([]byte, vcp.GetVCPReplyLength)
	require.NoError(t, bus.Read(transport.ReadModePlain, reply))

	_, err := vcp.ParseGetVCPReply(vcp.CodeContrast, reply)
	assert.ErrorIs(t, err, vcp.ErrFeatureUnsupported)
}

func TestEnumeratorSetAndFail(t *testing.T) {
	builtin := display.Info{ID: 1, Connector: "card0-eDP-1", IsBuiltIn: true}
	enum := NewEnumerator(builtin)

	infos, err := enum.Displays()
	require.NoError(t, err)
	require.Len(t, infos, 1)

	enum.Set()
	infos, err = enum.Displays()
	require.NoError(t, err)
	assert.Empty(t, infos)

	enum.Fail(ErrInjected)
	_, err = enum.Displays()
	assert.ErrorIs(t, err, ErrInjected)
}

func TestBuiltinFaultToggles(t *testing.T) {
	panel := NewBuiltin(0.5)

	v, err := panel.Read()
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	panel.FailReads(ErrInjected)
	_, err = panel.Read()
	assert.ErrorIs(t, err, ErrInjected)

	panel.FailReads(nil)
	require.NoError(t, panel.Write(0.8))
	v, err = panel.Read()
	require.NoError(t, err)
	assert.Equal(t, 0.8, v)
}

type staticOpener struct{ bus transport.Bus }

func (o staticOpener) OpenBus(string) (transport.Bus, error) { return o.bus, nil }
