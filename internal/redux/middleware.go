package redux

import "github.com/sirupsen/logrus"

// LoggingMiddleware logs every action at debug level before forwarding it.
func LoggingMiddleware[S, A any](logger *logrus.Entry, name func(A) string) Middleware[S, A] {
	return func(_ Dispatch[A], _ func() S) func(next Dispatch[A]) Dispatch[A] {
		return func(next Dispatch[A]) Dispatch[A] {
			return func(a A) {
				logger.WithField("action", name(a)).Debug("dispatch")
				next(a)
			}
		}
	}
}

// ObserverMiddleware calls observe with every action before forwarding it.
func ObserverMiddleware[S, A any](observe func(A)) Middleware[S, A] {
	return func(_ Dispatch[A], _ func() S) func(next Dispatch[A]) Dispatch[A] {
		return func(next Dispatch[A]) Dispatch[A] {
			return func(a A) {
				observe(a)
				next(a)
			}
		}
	}
}
