// Package chaincfg defines chain configuration parameters for the three
// BCH networks this node knows about: mainnet, the public test network
// (testnet4), and the local regression test network.
//
// For main packages, a (typically global) var may be assigned the address
// of one of the standard Params funcs for use as the application's "active"
// network parameters.
//
//	var testnet = flag.Bool("testnet", false, "operate on the BCH test network")
//	var chainParams = chaincfg.MainNetParams()
//
//	func main() {
//	        flag.Parse()
//	        if *testnet {
//	                chainParams = chaincfg.TestNet4Params()
//	        }
//	        // ...
//	}
//
// A SIGHUP reload re-parses the configuration file and builds a fresh
// Params value, which supervisor.Supervisor.Params returns from then on.
// A Params value is never mutated, so a component that captured the
// previous pointer keeps seeing the previous parameters.
package chaincfg
