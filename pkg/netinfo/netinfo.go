// Package netinfo enumerates local addresses available for binding the
// mock server listener.
package netinfo

import "net"

// Interface describes one bindable local address.
type Interface struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
}

// List enumerates local bindable IPv4 addresses, freshly per call. The
// loopback address is always included, even when interface enumeration
// fails, so the UI can always offer 127.0.0.1.
func List() []Interface {
	result := []Interface{{Name: "loopback", IP: "127.0.0.1"}}

	ifaces, err := net.Interfaces()
	if err != nil {
		return result
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipNet.IP.To4()
			if ip4 == nil || ip4.IsLoopback() {
				continue
			}
			result = append(result, Interface{Name: iface.Name, IP: ip4.String()})
		}
	}

	return result
}

// IsBindable reports whether addr is acceptable as a bind address: empty or
// unspecified (bind all), loopback, or an address currently advertised by
// List.
func IsBindable(addr string) bool {
	if addr == "" || addr == "0.0.0.0" {
		return true
	}
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	if ip.IsLoopback() || ip.IsUnspecified() {
		return true
	}
	for _, iface := range List() {
		if iface.IP == addr {
			return true
		}
	}
	return false
}
