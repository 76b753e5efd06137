package model

import (
	"context"
	"net"
)

// SecurityLayer produces listeners, plain or TLS depending on
// configuration.
type SecurityLayer interface {
	Listen(protocol, addr string) (net.Listener, error)
}

// Server is a long-running transport started over a security layer.
type Server interface {
	Start(securityLayer SecurityLayer) error
	Stop(ctx context.Context) error
	Address() string
}
