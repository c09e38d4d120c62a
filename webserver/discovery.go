package webserver

import (
	"fmt"
	"log"
	"net"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service type under which the web interface is
// announced.
const ServiceType = "_audioengine._tcp"

// Advertisement announces a running WebServer in the local network.
type Advertisement struct {
	server *mdns.Server
}

// Advertise announces the web interface via mDNS as instance on the given
// port. The service is announced on all non-loopback IPv4 addresses.
func Advertise(instance string, port int) (*Advertisement, error) {
	ips, err := localIPs()
	if err != nil {
		return nil, fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := newService(instance, port, ips)
	if err != nil {
		return nil, err
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to create mdns server: %w", err)
	}

	log.Printf("advertising %s via mDNS on port %d (%s)\n", instance, port, ServiceType)

	return &Advertisement{server: server}, nil
}

// Stop withdraws the announcement.
func (a *Advertisement) Stop() error {
	return a.server.Shutdown()
}

func newService(instance string, port int, ips []net.IP) (*mdns.MDNSService, error) {
	if len(ips) == 0 {
		return nil, fmt.Errorf("no network interface to advertise %s on", instance)
	}
	service, err := mdns.NewMDNSService(instance, ServiceType, "", "", port, ips,
		[]string{"path=/api/v1.0/", "ws=/ws"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mdns service: %w", err)
	}
	return service, nil
}

func localIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}

	return ips, nil
}
