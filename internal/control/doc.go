// Package control exposes a running crawl over HTTP so a verification pause can be
// resolved from another terminal or a script:
//
//	curl localhost:8089/status
//	curl -X POST localhost:8089/resume
//	curl -X POST localhost:8089/skip
//
// Resume and skip answer 409 Conflict when the crawl is not paused.
package control
