package util

import (
	"net"
	"strconv"
)

// localIP returns the first non-loopback IPv4 address, or 127.0.0.1.
func localIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "127.0.0.1"
	}

	for _, addr := range addrs {
		if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() {
			if ipNet.IP.To4() != nil {
				return ipNet.IP.String()
			}
		}
	}

	return "127.0.0.1"
}

// DisplayHost turns a listen host into one a client can dial. Wildcard
// addresses become the first local IPv4 address; names are not resolved.
func DisplayHost(host string) string {
	switch host {
	case "", "localhost":
		return "localhost"
	case "0.0.0.0", "::":
		return localIP()
	}
	return host
}

// EndpointURL is the base URL printed at start-up for a server on host:port.
func EndpointURL(host string, port int) string {
	return "http://" + net.JoinHostPort(DisplayHost(host), strconv.Itoa(port))
}
