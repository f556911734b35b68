// Package shutdown coordinates graceful process termination.
//
// Components register cleanup hooks; on SIGINT or SIGTERM the hooks run
// in reverse registration order under a shared timeout, so the pieces
// started last are torn down first.
package shutdown
