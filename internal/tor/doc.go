// Package tor provides connectivity to the Tor network for the crawler.
//
// All traffic goes through a SOCKS5 proxy; hostname resolution happens on
// the far side of the proxy so the target host never appears in local DNS
// traffic. The package supports both an external Tor daemon and an
// embedded one managed via tornago.
package tor
