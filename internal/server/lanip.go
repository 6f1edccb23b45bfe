package server

import "net"

// LANAddress resolves a LAN-reachable address for composing dev server
// URLs. Binding happens on 0.0.0.0; this is only about what to print and
// open so other devices on the network can reach the server.
func LANAddress() string {
	// No packets are sent; dialing UDP just selects the outbound
	// interface.
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err == nil {
		addr := conn.LocalAddr().(*net.UDPAddr)
		conn.Close()
		return addr.IP.String()
	}

	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok || ipNet.IP.IsLoopback() {
				continue
			}
			if ip4 := ipNet.IP.To4(); ip4 != nil {
				return ip4.String()
			}
		}
	}

	return "localhost"
}
