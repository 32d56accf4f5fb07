// Command antrec brings up an ANT USB dongle, opens the channels listed in a config
// file, prints the data their sensors broadcast, and optionally records it.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
