// Command bpm_master normalizes the tempo of every audio file under a
// directory tree to a single target BPM, mirroring results into an output
// tree. It can also analyze tempos without writing anything.
package main
