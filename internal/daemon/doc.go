// Package daemon wires the library, its on-disk store, the download
// manager and notifications into one process and enforces
// single-instance execution via a lock file.
//
// The daemon is the only writer: every mutation funnels through its
// mutex before reaching the library, which keeps committed revisions
// strictly ordered no matter how many connections or download jobs are
// active.
package daemon
