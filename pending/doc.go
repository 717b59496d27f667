// Package pending tracks in-flight API operations by cache key so that
// concurrent callers for the same key share one network round trip.
//
// A registered Operation fans its single outcome out to every waiter. An
// entry is removed the instant its operation settles; a grace timer also
// force-releases entries whose settlement notification was lost, bounding
// memory over long sessions.
package pending
