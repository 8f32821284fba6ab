// Package main starts the MultiComputer client.
package main

import "flag"

// main is the entrypoint for the MultiComputer client.
func main() {
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	keyboard := flag.Bool("keyboard", false, "Relay keys typed in this terminal to the remote (Ctrl+] to stop)")
	connect := flag.String("connect", "", "Connect to this agent address at startup")
	flag.Parse()

	opts := options{
		debug:    *debug,
		keyboard: *keyboard,
		connect:  *connect,
	}
	if err := run(opts); err != nil {
		logFatal(err)
	}
}
