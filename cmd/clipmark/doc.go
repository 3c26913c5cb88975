// Package main hosts the clipmark CLI entrypoint and command graph.
//
// The Cobra command tree covers recording scans (run, pause, resume, status
// and detached workers), clip export, multi-vod session management, timer
// based sync, live capture and environment checks. It centralizes
// configuration resolution and logger setup so subcommands only wire
// internal packages to terminal output.
package main
