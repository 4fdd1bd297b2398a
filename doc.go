/*
Package ddns keeps DNS A records pointed at the public IPv4 address of the current host.

Usage will always start with [ddns.New],
which returns the DDNSClient implementation.
New requires a domain name and a [Provider] implementation for a DNS provider,
usually [UsingGandi] for Gandi LiveDNS,
plus the subdomains to update given with [WithSubdomains].
Additional client configuration options are listed in the docs for New.

A client only writes a record when the address published in DNS differs from the public IP.
[DDNSClient] RunDDNS runs a single cycle and [RunDaemon] repeats it on an interval.
*/
package ddns
