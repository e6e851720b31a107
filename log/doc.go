// Package log provides the leveled logger used by the graph runtime, the
// tools and the CLI.
//
// The default logger writes to stderr through kataras/golog with the
// "[agentcases] " prefix at info level. Replace it with SetDefaultLogger or
// change the level with SetLogLevel:
//
//	log.SetLogLevel(log.LogLevelDebug)
//	log.Debug("node %s finished in %s", name, elapsed)
//
// NoOpLogger silences everything, which is what most tests install.
package log
