// Package bridge connects a host and an agent through a pair of rendezvous registries.
//
// Traffic towards the agent flows through the inbound registry and traffic from the
// agent through the outbound registry. Each message type is registered once and gets
// a channel in both directions. The host sends with SendToAgent and receives with
// ReceiveFromAgent; the agent uses the mirror-image AgentSide returned by Agent.
//
// Basic usage:
//
//	b := bridge.NewAgentBridge(
//		bridge.WithLogger(logger),
//		bridge.WithDefaultTimeout(30*time.Second),
//	)
//	if err := b.Register(&Task{}, &Report{}); err != nil {
//		return err
//	}
//
//	// agent goroutine
//	go func() {
//		task, err := bridge.AwaitFromHost[*Task](ctx, b.Agent())
//		// ...
//		err = b.Agent().Send(ctx, &Report{...})
//	}()
//
//	// host
//	report, err := bridge.Request[*Report](ctx, b, &Task{...})
//
// Listener conflicts are returned to the caller unless a retry policy is configured
// with WithRetryPolicy, in which case only ErrListenerConflict is retried.
package bridge
