// Command gandi-ddns keeps Gandi LiveDNS A records pointed at the public IPv4 address of this host.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
