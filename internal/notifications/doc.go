// Package notifications announces finished and failed podcast requests.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and degrades to a no-op when no topic is set. Pipeline code
// depends only on the Service interface.
package notifications
