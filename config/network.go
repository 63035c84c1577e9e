package config

import (
	"github.com/jessevdk/go-flags"

	"github.com/quasarnet/quasard/dagconfig"
)

// ActiveNetworkFlags holds the active network information
var ActiveNetworkFlags *NetworkFlags

// NetworkFlags holds the network configuration, that is which network is
// selected.
type NetworkFlags struct {
	Simnet          bool `long:"simnet" description:"Use the simulation test network"`
	ActiveNetParams *dagconfig.Params
}

// ResolveNetwork parses the network command line argument and sets
// ActiveNetParams accordingly. The default network is mainnet.
func (networkFlags *NetworkFlags) ResolveNetwork(parser *flags.Parser) error {
	networkFlags.ActiveNetParams = &dagconfig.MainnetParams
	if networkFlags.Simnet {
		networkFlags.ActiveNetParams = &dagconfig.SimnetParams
	}
	ActiveNetworkFlags = networkFlags
	return nil
}

// NetParams returns the ActiveNetParams
func (networkFlags *NetworkFlags) NetParams() *dagconfig.Params {
	return networkFlags.ActiveNetParams
}
