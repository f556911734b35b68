// Package respserver provides the Cachelet TCP server speaking the RESP
// wire protocol.
//
// The server accepts connections and runs one goroutine per connection,
// each looping read-frame, decode, apply, write-frame against the shared
// store. Frame-level violations drop the offending connection only;
// command-level mistakes are answered with an error frame on a connection
// that stays open.
package respserver
