// Package connection provides the RESP client used by cachelet-cli.
package connection
