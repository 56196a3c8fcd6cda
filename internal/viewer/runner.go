package viewer

import (
	"os/exec"
	"strings"

	"sciv/internal/errors"
	"sciv/internal/log"

	"github.com/google/shlex"
)

// Runner starts an external command line for the current image.
type Runner interface {
	Run(line, path string) error
}

// ExecRunner splits the command line with shell quoting rules, replaces
// every "{}" with the image path and starts the process. It does not wait
// for the process; exit failures are logged.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(line, path string) error {
	args, err := Expand(line, path)
	if err != nil {
		return err
	}

	cmd := exec.Command(args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "failed to start %q", args[0])
	}
	log.LogWithFields(log.F("command", args[0]), log.F("path", path), log.F("pid", cmd.Process.Pid)).Debug("Started external command")

	go func() {
		if err := cmd.Wait(); err != nil {
			log.LogWithFields(log.F("command", line), log.F("path", path), log.F("error", err)).Warn("External command failed")
		}
	}()
	return nil
}

// Expand splits line into arguments and substitutes path for "{}".
func Expand(line, path string) ([]string, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid command line %q", line)
	}
	if len(args) == 0 {
		return nil, errors.Newf("empty command line")
	}
	for i, a := range args {
		args[i] = strings.ReplaceAll(a, "{}", path)
	}
	return args, nil
}
