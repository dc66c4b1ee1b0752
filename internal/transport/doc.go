// Package transport is the UDP multicast boundary of service
// discovery.
//
// An Endpoint joins the SD multicast group (224.244.224.245:30490 by
// default), decodes inbound SOME/IP SD datagrams, and dispatches their
// Offer and StopOffer entries to a Handler, normally the discovery
// manager. Malformed or foreign traffic is logged and dropped; nothing
// on the receive path is fatal.
//
// Outbound traffic is limited to FindService messages. All sends share
// one session id advanced per message, with the SD reboot flag carried
// until the id wraps for the first time.
package transport
