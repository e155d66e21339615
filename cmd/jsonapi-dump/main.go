// Command jsonapi-dump fetches entities from a Drupal JSON:API endpoint,
// hydrates their relationships and prints the result as JSON.
//
// Usage:
//
//	jsonapi-dump --url https://cms.example [flags] <command> [args]
//
// Commands:
//
//	entity     <entity--bundle> <uuid>          - a hydrated entity and its cache
//	collection <entity--bundle>                 - a single page of resources
//	field      <entity--bundle> <uuid> <field>  - the resolved values of one field
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
