// Package notifications delivers daemon events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured
// in config.toml and gracefully degrades to a no-op when notifications
// are disabled. The download pipeline and upload handler emit through the
// small Service interface so they never carry HTTP glue themselves.
package notifications
