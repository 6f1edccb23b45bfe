// Package build runs one-shot production builds.
//
// A Runner wraps a single bundler compile pass with outcome
// classification: engine errors propagate, compile errors fail the build
// carrying only the first error, and in CI environments warnings escalate
// to failures. The runner never touches the dev-server lifecycle.
//
// # Usage
//
//	runner := build.NewRunner(build.Deps{})
//	result, err := runner.Run(ctx, projectRoot, build.Options{
//	    Env: env.Options{Mode: env.ModeProduction, Dev: settings.Bool(false)},
//	})
//	if err != nil {
//	    errors.PrintError(err)
//	    os.Exit(1)
//	}
//	fmt.Printf("Built in %s\n", result.Duration)
package build
