// Package harness boots the embedded engine inside a test process and forces
// it into single-process, filesystem-backed execution.
//
// A Server owns the lifecycle:
//
//	srv := harness.New(map[string]string{"es.resource": "artists/data"})
//	if err := srv.Start(); err != nil {
//	    return err
//	}
//	defer srv.Stop()
//	rows, err := srv.Execute(ctx, "SELECT name FROM source")
//
// Start wipes the scratch directory, builds the engine configuration
// (OverrideBuilder), installs the session interceptor and constructs the
// engine handler. The configuration pass:
//
//  1. purges keys in the test namespace ("es." by default) left over from an
//     earlier pass;
//  2. copies the caller settings on top;
//  3. forces the local-execution block (warehouse, metastore, scratch
//     directory, permissions, connection URL, local metastore, empty extra
//     jar/file/archive paths); forced values win over caller settings;
//  4. on platforms without POSIX paths, selects the compat filesystem and
//     the ";" path separator;
//  5. removes mapred.job.tracker outright and pins fs.default.name to
//     file:///. The engine runs a statement in-process only when the job
//     tracker key is absent, and the public configuration accessors cannot
//     make a defaulted key absent, so this step goes through
//     conf.Configuration.Properties.
//
// RefreshConfig repeats steps 1 and 2 against the running configuration.
//
// # Determinism
//
// Every Start begins from an empty scratch directory and every Stop removes
// it again. A second Start while running is a no-op that keeps the existing
// handler and configuration; call RefreshConfig, or Stop and Start, to pick
// up changed settings.
//
// The session interceptor replaces the process-wide session registry. One
// Server per process, driven from one goroutine, is the supported setup.
//
// # Scenarios
//
// LoadScenario and RunScenario drive a Server from YAML scripts, and
// RunWithGolden compares the resulting statement trace with a golden file.
package harness
