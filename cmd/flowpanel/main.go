// Command flowpanel inspects editor configuration, connection limits and
// stored panel preferences.
//
// Usage:
//
//	flowpanel catalog [--config flowpanel.yaml]
//	flowpanel lint diagram.json
//	flowpanel layout 900
//	flowpanel prefs show|reset
package main

import "os"

func main() {
	if err := run(newRootCmd(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
