// Package device talks to the fan/heater controller over its HTTP API.
//
// # Architecture
//
//	┌──────────────┐   On/Off    ┌─────────────┐
//	│  pid.Loop    │────────────▶│  Commander  │──┐ command client
//	└──────────────┘             └─────────────┘  │ (short deadline)
//	                                              ▼
//	┌──────────────┐  gocron     ┌─────────────┐  ┌────────────────┐
//	│  Scheduler   │────────────▶│  Watchdog   │─▶│ fan controller │
//	│              │────────────▶│  Poller     │─▶│  (HTTP, GET)   │
//	└──────────────┘             └─────────────┘  └────────────────┘
//	                                    │ poll client
//	                                    ▼ (long deadline)
//	                             params.Store.currentValue
//
// # Key Types
//
//   - Endpoints: the six device URLs resolved against a base URL
//   - Commander: fire-and-forget on/off commands for the control loop
//   - Watchdog: enables the device watchdog and feeds it periodically
//   - Poller: reads the temperature periodically into the parameter store
//
// # Thread Safety
//
// All types are safe for concurrent use. Periodic jobs are registered in
// gocron singleton mode so a slow tick is never overlapped by the next one.
//
// # Usage
//
//	eps, err := device.NewEndpoints(cfg.Device.BaseURL, paths)
//	wd := device.NewWatchdog(pollClient, eps, device.WatchdogOptions{Retries: 5})
//	if err := wd.Enable(ctx); err != nil {
//	    return err
//	}
//	if _, err := wd.Register(ctx, scheduler, 10*time.Second); err != nil {
//	    return err
//	}
package device
