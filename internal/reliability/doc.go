// Package reliability provides caller-side retry policies.
//
// Rendezvous operations never retry on their own. Callers that expect transient
// listener conflicts wrap their calls with Retry:
//
//	policy := reliability.RetryOn(
//		reliability.NewFixedDelay(10*time.Millisecond, 5),
//		messaging.ErrListenerConflict,
//	)
//	err := reliability.Retry(ctx, policy, "receive", func() error {
//		msg, err = registry.AwaitMessage(ctx, "Report")
//		return err
//	})
package reliability
