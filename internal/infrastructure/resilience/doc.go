/*
Package resilience provides a circuit breaker for calls to remote services.

The installer uses it around the release API so repeated failures stop
hammering a service that is down or throttling.

	breaker := resilience.New("releases", resilience.Settings{
		Timeout: 30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
	})

	release, err := resilience.Do(breaker, func() (*Release, error) {
		return client.Latest(ctx)
	})

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           v
	                                         Open
*/
package resilience
