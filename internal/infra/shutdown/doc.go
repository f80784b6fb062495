// Package shutdown coordinates graceful process termination.
//
// A Handler waits for SIGINT/SIGTERM, a manual Trigger or context
// cancellation, then runs the registered hooks once, in reverse order of
// registration, under a shared timeout:
//
//	h := shutdown.NewHandler(10 * time.Second)
//	h.OnShutdown("listeners", sup.Shutdown)
//	err := h.Wait(ctx)
package shutdown
