// Package resilience provides the retry policy used when configuration
// values are fetched from providers that can fail transiently, such as a
// secret file that is mounted after the process starts or a remote store.
//
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:  5,
//	    InitialDelay: 200 * time.Millisecond,
//	})
//
//	err := retry.Execute(ctx, func(ctx context.Context) error {
//	    value, err = provider.Resolve(ctx, ref)
//	    return err
//	})
package resilience
