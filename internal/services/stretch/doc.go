// Package stretch wraps the external time-stretch engine (rubberband-cli
// compatible) behind a narrow client interface.
package stretch
