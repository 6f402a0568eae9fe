package basic

import (
	"net/netip"

	"github.com/joshuapare/vtypekit/obj"
)

// IpAddress is a 4-byte IPv4 address in network byte order.
type IpAddress struct {
	obj.Base
}

// NewIpAddress builds an IpAddress.
func NewIpAddress(cfg obj.Config) (*IpAddress, error) {
	return &IpAddress{Base: obj.NewBase(cfg)}, nil
}

func (a *IpAddress) Size() int     { return 4 }
func (a *IpAddress) IsValid() bool { return a.VM().IsValidAddress(a.Offset()) }

// Addr is the decoded address.
func (a *IpAddress) Addr() netip.Addr {
	return netip.AddrFrom4([4]byte(a.VM().ZRead(a.Offset(), 4)))
}

func (a *IpAddress) Value() obj.Maybe[any] { return obj.Some[any](a.Addr().String()) }
func (a *IpAddress) String() string        { return a.Addr().String() }

// Ipv6Address is a 16-byte IPv6 address in network byte order.
type Ipv6Address struct {
	obj.Base
}

// NewIpv6Address builds an Ipv6Address.
func NewIpv6Address(cfg obj.Config) (*Ipv6Address, error) {
	return &Ipv6Address{Base: obj.NewBase(cfg)}, nil
}

func (a *Ipv6Address) Size() int     { return 16 }
func (a *Ipv6Address) IsValid() bool { return a.VM().IsValidAddress(a.Offset()) }

// Addr is the decoded address.
func (a *Ipv6Address) Addr() netip.Addr {
	return netip.AddrFrom16([16]byte(a.VM().ZRead(a.Offset(), 16)))
}

func (a *Ipv6Address) Value() obj.Maybe[any] { return obj.Some[any](a.Addr().String()) }
func (a *Ipv6Address) String() string        { return a.Addr().String() }
