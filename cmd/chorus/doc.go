// Command chorus is the CLI for a running chorusd: it pings the daemon,
// inspects and mutates the shared library, starts download jobs and
// uploads local media.
package main
