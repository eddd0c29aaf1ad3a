// Package request issues asynchronous HTTP requests to the regulated device.
//
// Every call runs on its own goroutine and reports exactly one Result on the
// channel returned by Call.Done, or nothing at all if the call was cancelled.
// The device API is a set of plain GET endpoints; a call succeeds only when
// the transport completes, the status is 200 and, for JSON endpoints, the
// response declares application/json and carries a valid JSON body.
//
// # Retries
//
// A Request carries a retry budget. A failed attempt is re-issued up to
// Retries more times; the first success ends the call, and only the final
// failure is reported when the budget runs out.
//
// # Cancellation
//
// Call.Cancel aborts the in-flight transport call. A response that arrives
// afterwards is dropped: the Done channel is closed without a value.
//
// # Usage
//
//	client := request.NewClient(request.Config{Timeout: 2 * time.Second})
//	call := client.Issue(ctx, request.Request{
//	    Endpoint: request.Endpoint{Name: "temperature", URL: url, JSON: true},
//	    ID:       gen.Next(),
//	    Retries:  1,
//	})
//	res, err := call.Wait(ctx)
package request
