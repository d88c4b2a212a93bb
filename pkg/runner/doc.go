/*
Package runner provides an interactive read-eval loop for exploring a
planning problem one action at a time.

Each turn it prints the current valuation and the applicable ground actions,
reads a choice from its input, applies it through the sequential simulator,
and repeats until the goal is reached or the user quits. With a session
manager attached, every applied step is persisted, so an interrupted
exploration resumes where it left off.
*/
package runner
