// Package main provides the linkgraph CLI.
//
// Usage:
//
//	linkgraph serve
//	linkgraph crawl https://example.com --depth 2
//	linkgraph reset
//
// See --help for all available options.
package main

func main() {
	Execute()
}
