// Package workflow drives a single content run through its stages: topic
// discovery, research, writing, and the content check. Every transition and
// per-stage outcome is persisted before and after the stage executes, so a
// crash mid-run leaves an inspectable record instead of silent loss. A stage
// failure ends the run; there are no orchestrator-level retries.
package workflow
