// Package tensorboard is the event-file backend: scalars are appended to
// standard tfevents files (TFRecord framing around wire-encoded Event protos)
// that TensorBoard can load directly. ScalarAccumulator reads them back.
package tensorboard
