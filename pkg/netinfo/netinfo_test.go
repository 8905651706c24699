package netinfo

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAlwaysIncludesLoopback(t *testing.T) {
	ifaces := List()
	require.NotEmpty(t, ifaces)

	found := false
	for _, iface := range ifaces {
		if iface.IP == "127.0.0.1" {
			found = true
		}
	}
	assert.True(t, found, "loopback must always be listed")
}

func TestListReturnsValidIPv4(t *testing.T) {
	for _, iface := range List() {
		ip := net.ParseIP(iface.IP)
		require.NotNil(t, ip, "address %q must parse", iface.IP)
		assert.NotNil(t, ip.To4(), "address %q must be IPv4", iface.IP)
		assert.NotEmpty(t, iface.Name)
	}
}

func TestIsBindable(t *testing.T) {
	assert.True(t, IsBindable(""))
	assert.True(t, IsBindable("0.0.0.0"))
	assert.True(t, IsBindable("127.0.0.1"))

	assert.False(t, IsBindable("not-an-ip"))
	assert.False(t, IsBindable("203.0.113.77")) // TEST-NET-3, never local
}
