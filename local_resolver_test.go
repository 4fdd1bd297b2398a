package ddns

import (
	"net"
	"testing"
)

func TestFirstIPv4SkipsUnroutable(t *testing.T) {
	ipnet := func(s string) net.Addr {
		ip, n, err := net.ParseCIDR(s)
		if err != nil {
			t.Fatal(err)
		}
		n.IP = ip
		return n
	}
	addrs := []net.Addr{
		ipnet("127.0.0.1/8"),
		ipnet("169.254.10.1/16"),
		ipnet("192.168.86.253/24"),
		ipnet("10.0.0.2/8"),
		ipnet("172.16.5.4/12"),
		ipnet("100.64.1.1/10"),
		ipnet("fe80::2cc9:801b:3551:9a43/64"),
		ipnet("203.0.113.7/24"),
	}
	var errs []error
	ip, ok := firstIPv4(addrs, &errs)
	if !ok || ip.String() != "203.0.113.7" {
		t.Fatalf("Expected 203.0.113.7; got %s (ok=%t, errs=%v)", ip, ok, errs)
	}
	if _, ok := firstIPv4(addrs[:6], &errs); ok {
		t.Fatal("Expected no usable address among loopback, link-local and private addresses")
	}
}
