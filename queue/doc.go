// Package queue provides the bounded single-producer/single-consumer ring
// used by stream operators to hand items between the producing side of an
// operator and its drain loop.
package queue
