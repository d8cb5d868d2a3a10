// Package log provides the logging interface used across plankit.
//
// Components never reach for a global logger. Each constructor accepts a
// log.Logger and stores it; tests pass a NoOpLogger or a NewCustomLogger
// writing into a buffer.
//
// Three implementations ship with the package:
//
//   - DefaultLogger: standard library log.Logger with level filtering
//   - GologLogger: adapter over kataras/golog for applications already
//     using it
//   - NoOpLogger: discards everything
//
// Example:
//
//	logger := log.NewDefaultLogger(log.LogLevelInfo)
//	planner := task.NewPlanner(adapter, task.WithPlannerLogger(logger))
package log
