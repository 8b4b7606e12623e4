// Package centering decides whether a device held up to a camera grid is
// level. It contains:
//
//   - Sample: a gravity vector projected onto the device body axes
//   - Classifier: turns samples into a Status with directional hysteresis
//   - DetectTransition: the one-shot BecameCentered / BecameUncentered signal
//   - Overlay: gates transitions on the device being upright (not lying flat)
//
// Nothing in this package blocks or performs I/O. A Classifier or Overlay is
// meant to be owned by a single caller feeding samples in order.
package centering
