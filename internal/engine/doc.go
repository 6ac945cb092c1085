// Package engine is the embedded SQL engine the harness drives.
//
// A Handler owns one metastore connection and one root session. Statements
// run synchronously: each Execute derives a task session from the root,
// assigns it through the process-wide session registry, runs the statement
// on a task goroutine and buffers the result rows until FetchAll.
//
// The handler reads its configuration live, so keys changed on the
// configuration object after construction apply to the next statement.
// Two keys decide whether a statement may run in-process at all:
//
//   - mapred.job.tracker: when present (whatever its value) the engine
//     would hand the work to a child process, which an embedded handler
//     cannot do; Execute fails with CHILD_EXECUTION.
//   - fs.default.name: anything but a file: URI fails with
//     REMOTE_FILESYSTEM.
//
// Besides plain SQL, which is passed to the metastore driver, the handler
// understands a few engine commands:
//
//	SET [key[=value]]
//	ADD {JAR|FILE|ARCHIVE} <path>
//	LIST {JARS|FILES|ARCHIVES}
//	LOAD DATA [LOCAL] INPATH '<path>' [OVERWRITE] INTO TABLE <name>
//	SHOW TABLES
//
// Rows are rendered as tab-separated strings with NULL for SQL nulls.
package engine
