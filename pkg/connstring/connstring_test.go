package connstring_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prxmesh/prxcore/pkg/connstring"
	"github.com/prxmesh/prxcore/pkg/credstore"
	"github.com/prxmesh/prxcore/pkg/perr"
)

func TestParseValidDeviceConnectionString(t *testing.T) {
	raw := "HostName=myhub.azure-devices.net;DeviceId=dev1;SharedAccessKeyName=iothubowner;SharedAccessKey=" +
		base64.StdEncoding.EncodeToString([]byte("secret-key"))
	cs, err := connstring.Parse(raw, nil, false)
	require.NoError(t, err)

	host, ok := cs.HostName()
	require.True(t, ok)
	assert.Equal(t, "myhub.azure-devices.net", host)

	hub, ok := cs.HubName()
	require.True(t, ok)
	assert.Equal(t, "myhub", hub)

	dev, ok := cs.DeviceID()
	require.True(t, ok)
	assert.Equal(t, "dev1", dev)
}

func TestParseRejectsDuplicateKey(t *testing.T) {
	raw := "HostName=myhub.azure-devices.net;HostName=other.azure-devices.net"
	_, err := connstring.Parse(raw, nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, perr.ErrInvalidFormat)
}

func TestParseRejectsUnknownKey(t *testing.T) {
	raw := "HostName=myhub.azure-devices.net;Bogus=1"
	_, err := connstring.Parse(raw, nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, perr.ErrInvalidFormat)
}

func TestParseAcceptsAndIgnoresGatewayHostName(t *testing.T) {
	raw := "HostName=myhub.azure-devices.net;GatewayHostName=gw.local"
	_, err := connstring.Parse(raw, nil, false)
	require.NoError(t, err)
}

func TestParsePermitsMissingDeviceIDWithKeyNameOnly(t *testing.T) {
	raw := "HostName=myhub.azure-devices.net;SharedAccessKeyName=owner;SharedAccessToken=not-a-valid-token"
	_, err := connstring.Parse(raw, nil, false)
	require.NoError(t, err)
}

func TestParseRejectsInvalidDeviceID(t *testing.T) {
	raw := "HostName=myhub.azure-devices.net;DeviceId=" + string(rune(0x01))
	_, err := connstring.Parse(raw, nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, perr.ErrInvalidFormat)
}

func TestParseRejectsShortHostNameLabel(t *testing.T) {
	raw := "HostName=ab.azure-devices.net;DeviceId=dev1"
	_, err := connstring.Parse(raw, nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, perr.ErrInvalidFormat)
}

func TestParseRejectsDotlessHostName(t *testing.T) {
	raw := "HostName=abcompany;DeviceId=dev1"
	_, err := connstring.Parse(raw, nil, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, perr.ErrInvalidFormat)
}

func TestHostNameDerivedFromEndpoint(t *testing.T) {
	raw := "Endpoint=sb://myns.servicebus.windows.net/;EntityPath=myqueue"
	cs, err := connstring.Parse(raw, nil, false)
	require.NoError(t, err)
	host, ok := cs.HostName()
	require.True(t, ok)
	assert.Equal(t, "myns.servicebus.windows.net", host)

	cg, ok := cs.ConsumerGroup()
	require.True(t, ok)
	assert.Equal(t, "$default", cg)
	assert.Equal(t, 4, cs.PartitionCount())
}

func TestKeyImportReplacesKeyWithHandle(t *testing.T) {
	store, err := credstore.NewSessionStore()
	require.NoError(t, err)

	raw := "HostName=myhub.azure-devices.net;DeviceId=dev1;SharedAccessKey=" +
		base64.StdEncoding.EncodeToString([]byte("secret-key"))
	cs, err := connstring.Parse(raw, store, false)
	require.NoError(t, err)

	_, hasKey := cs.SharedAccessKey()
	assert.False(t, hasKey)
	handle, ok := cs.SharedAccessKeyHandle()
	require.True(t, ok)
	assert.Contains(t, handle, "b64:")
}

func TestRemoveKeyIsNoopForWrappedHandle(t *testing.T) {
	store, err := credstore.NewSessionStore()
	require.NoError(t, err)
	raw := "HostName=myhub.azure-devices.net;DeviceId=dev1;SharedAccessKey=" +
		base64.StdEncoding.EncodeToString([]byte("secret-key"))
	cs, err := connstring.Parse(raw, store, false)
	require.NoError(t, err)

	require.NoError(t, connstring.RemoveKey(cs, store))
}

func TestSerializeFixedOrder(t *testing.T) {
	cs, err := connstring.New("myhub.azure-devices.net", "dev1", "owner", "", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "HostName=myhub.azure-devices.net;DeviceId=dev1;SharedAccessKeyName=owner", cs.String())
}

func TestCloneIsIndependent(t *testing.T) {
	cs, err := connstring.New("myhub.azure-devices.net", "dev1", "", "", nil, false)
	require.NoError(t, err)
	clone := cs.Clone()
	clone.HubName() // force any derived-cache population on the clone only

	host, _ := cs.HostName()
	cloneHost, _ := clone.HostName()
	assert.Equal(t, host, cloneHost)
}
