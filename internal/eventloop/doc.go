// Package eventloop wraps the kernel timer and multiplexing primitives the
// daemon blocks on: CLOCK_MONOTONIC timerfds and an epoll instance. The
// real implementations are Linux-only; stubs keep the tree compiling
// elsewhere and fail at runtime.
package eventloop
