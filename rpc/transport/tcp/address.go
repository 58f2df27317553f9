package tcp

import (
	"context"
	"fmt"
	"github.com/ValentinKolb/keyz/rpc/common"
	"net"
	"strconv"
	"strings"
)

// ResolveEndpoint resolves an endpoint of the form host:port to a single tcp address.
//
// A host made only of digits and dots is parsed as a dotted-quad ipv4 address
// without asking a resolver. Every other host is looked up and the first
// returned address is used. All failures wrap common.ErrInvalidAddress.
func ResolveEndpoint(ctx context.Context, endpoint string) (*net.TCPAddr, error) {
	parts := strings.Split(endpoint, ":")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: %q is not of the form host:port", common.ErrInvalidAddress, endpoint)
	}
	host, portStr := parts[0], parts[1]

	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid port %q", common.ErrInvalidAddress, portStr)
	}

	if host == "" {
		return nil, fmt.Errorf("%w: empty host in %q", common.ErrInvalidAddress, endpoint)
	}

	if isDottedQuad(host) {
		ip, err := parseIPv4(host)
		if err != nil {
			return nil, err
		}
		return &net.TCPAddr{IP: ip, Port: int(port)}, nil
	}

	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, fmt.Errorf("%w: could not resolve %q: %v", common.ErrInvalidAddress, host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %q resolved to no address", common.ErrInvalidAddress, host)
	}

	return &net.TCPAddr{IP: addrs[0].IP, Port: int(port), Zone: addrs[0].Zone}, nil
}

// isDottedQuad reports whether the host looks like a literal ipv4 address
func isDottedQuad(host string) bool {
	for i := 0; i < len(host); i++ {
		if host[i] != '.' && (host[i] < '0' || host[i] > '9') {
			return false
		}
	}
	return true
}

// parseIPv4 parses the four octets of a dotted-quad address
func parseIPv4(host string) (net.IP, error) {
	octets := strings.Split(host, ".")
	if len(octets) != 4 {
		return nil, fmt.Errorf("%w: %q does not have four octets", common.ErrInvalidAddress, host)
	}

	var b [4]byte
	for i, octet := range octets {
		v, err := strconv.ParseUint(octet, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: octet %q of %q is not in 0..255", common.ErrInvalidAddress, octet, host)
		}
		b[i] = byte(v)
	}

	return net.IPv4(b[0], b[1], b[2], b[3]), nil
}
