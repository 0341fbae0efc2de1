package transport

import (
	"crypto/rand"
	"math/big"
)

// HostPool is a set of interchangeable hostnames serving the same role
// (gateway, ingest, egest). A native build pins to the primary host; a
// browser-target build draws a fresh random pick per request to spread
// load (§6).
type HostPool struct {
	primary string
	peers   []string
	native  bool
}

// NewHostPool builds a pool from a primary hostname and its numbered peers.
// native selects whether Pick always returns primary (true) or draws
// randomly across primary+peers (false).
func NewHostPool(primary string, peers []string, native bool) HostPool {
	return HostPool{primary: primary, peers: peers, native: native}
}

// Pick returns the host to use for the next request.
func (p HostPool) Pick() string {
	if p.native || len(p.peers) == 0 {
		return p.primary
	}
	all := make([]string, 0, len(p.peers)+1)
	all = append(all, p.primary)
	all = append(all, p.peers...)

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(all))))
	if err != nil {
		return p.primary
	}
	return all[n.Int64()]
}

// Shuffled returns all hosts in the pool in random order; for a native pool
// it returns the primary first and then the peers in their given order.
func (p HostPool) Shuffled() []string {
	all := make([]string, 0, len(p.peers)+1)
	all = append(all, p.primary)
	all = append(all, p.peers...)
	if p.native {
		return all
	}

	shuffled := make([]string, len(all))
	copy(shuffled, all)
	for i := len(shuffled) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			break
		}
		j := n.Int64()
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// DefaultGatewayPool, DefaultIngestPool, and DefaultEgestPool are the
// production host pools (§6): a primary hostname and six numbered peers
// each.
func DefaultGatewayPool(native bool) HostPool {
	return NewHostPool("gateway.filen.io", numberedPeers("gateway", 6), native)
}

func DefaultIngestPool(native bool) HostPool {
	return NewHostPool("ingest.filen.io", numberedPeers("ingest", 6), native)
}

func DefaultEgestPool(native bool) HostPool {
	return NewHostPool("egest.filen.io", numberedPeers("egest", 6), native)
}

func numberedPeers(base string, n int) []string {
	peers := make([]string, n)
	for i := 1; i <= n; i++ {
		peers[i-1] = hostNumbered(base, i)
	}
	return peers
}

func hostNumbered(base string, i int) string {
	const digits = "0123456789"
	return base + digits[i%10:i%10+1] + ".filen.io"
}
