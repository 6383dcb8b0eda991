// Package events provides a minimal in-process event bus decoupling the
// surfaces that enqueue work from the scheduler that reacts to it.
package events
