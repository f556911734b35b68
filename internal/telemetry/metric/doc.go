// Package metric provides Prometheus metrics for Cachelet.
//
// It exposes connection, command, and store metrics in Prometheus format
// for scraping on the optional metrics endpoint.
package metric
