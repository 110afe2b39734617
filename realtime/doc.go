// Package realtime keeps a server rendered page up to date with the server.
//
// A Client follows one Resource (a dashboard, a pre-order, an invite). It
// reads the resource's server-sent event stream, retries a failed stream
// with backoff, and after MaxReconnectAttempts consecutive failures falls
// back to polling the resource's check-updates endpoint until the network
// comes back. Updates from the stream and from polls reach the same
// handlers with the same shape.
//
//	client, err := realtime.NewClient(realtime.DashboardResource("cliente"), page,
//		realtime.WithBaseURL("https://example.com"))
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//	realtime.BindBalance(client, display, nil)
//	client.Start()
//
// The page itself is an Environment: its path and marker attributes decide
// whether the client starts at all, and its visibility and network events
// pause, resume and restart the transports.
//
// Event Emitters
//
// Updates, connection state changes and presence changes are delivered
// through event emitters.
//
// The On method takes an event type identifier and a handler function to be
// called with the event's data whenever an event of that type is emitted. It
// returns an "off" function that removes the handler again.
//
// The OnAll method is like On, but for events of all types. Once and
// OnceAll remove the handler after its first call. Off and OffAll remove
// handlers by event type, or all of them.
//
// Each handler is assigned its own sequential queue of events: the next call
// to a handler happens after the previous call returned, and events arrive
// in the order they were emitted. Different handlers may run concurrently.
// A handler that panics is logged and keeps receiving later events.
//
// Client.Subscribe offers the same updates as a pull-based iterator.
package realtime
