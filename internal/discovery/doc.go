// Package discovery advertises the controller API over mDNS (zeroconf) and
// finds other controllers on the local network.
//
// The advertised TXT records carry the site id, the software version and
// the API base path, so clients can connect without configuration:
//
//	site=site-001 version=1.2.0 path=/api/v1
package discovery
