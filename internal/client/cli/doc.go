// Package cli implements alumnictl, the command line client for the
// alumnikeeper account API.
//
// Every command is a single request. The session token returned by login is
// kept in a file and sent as the session cookie by the commands that need it.
package cli
