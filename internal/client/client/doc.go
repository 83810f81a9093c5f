// Package client talks to the alumnikeeper HTTP API and keeps the session
// token between CLI invocations.
package client
