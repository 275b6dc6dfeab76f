// Package main is the entry point for the docingest application. It serves
// a document ingestion pipeline: uploads are accepted over HTTP, assigned
// content-addressed identities, queued on NATS JetStream, and processed
// through validate, parse, chunk, and embed stages with retry and
// dead-letter handling.
package main

import "docingest/cmd"

func main() {
	cmd.Execute()
}
