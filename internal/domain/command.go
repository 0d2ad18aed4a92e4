package domain

import (
	"slices"
	"strings"
)

// ProgramFor returns the executable to spawn for name on goos. Node tools
// listed in shims are installed as "<name>.cmd" wrappers on Windows.
func ProgramFor(name, goos string, shims []string) string {
	if goos == "windows" && slices.Contains(shims, name) {
		return name + ".cmd"
	}
	return name
}

// ExecCommand represents an external command to be executed.
// This type is used to pass command information between layers
// without exposing implementation details.
type ExecCommand struct {
	Program string
	Dir     string
	Args    []string
}

// NewExecCommand creates an ExecCommand for program with args, run in dir.
func NewExecCommand(program string, args []string, dir string) *ExecCommand {
	return &ExecCommand{
		Program: program,
		Args:    slices.Clone(args),
		Dir:     dir,
	}
}

// Command is an immutable description of an external invocation.
// Use NewCommand or CommandFromRecord to build one.
type Command struct {
	executable string
	dir        string
	arguments  []string
}

// NewCommand creates a Command. The argument slice is copied.
func NewCommand(executable string, arguments ...string) Command {
	return Command{
		executable: executable,
		arguments:  slices.Clone(arguments),
	}
}

// Executable returns the program name.
func (c Command) Executable() string {
	return c.executable
}

// Arguments returns a copy of the argument list.
func (c Command) Arguments() []string {
	return slices.Clone(c.arguments)
}

// WithDir returns a copy of the command that runs in dir. A relative dir is
// resolved against the project root.
func (c Command) WithDir(dir string) Command {
	c.arguments = slices.Clone(c.arguments)
	c.dir = dir
	return c
}

// Dir returns the working directory set by WithDir.
func (c Command) Dir() string {
	return c.dir
}

// String renders the command line as "<executable> <args joined by space>".
func (c Command) String() string {
	if len(c.arguments) == 0 {
		return c.executable
	}
	return c.executable + " " + strings.Join(c.arguments, " ")
}

// Exec builds the process request for running the command from the project
// root. The command's own directory, if any, takes precedence.
func (c Command) Exec(root string) *ExecCommand {
	dir := root
	if c.dir != "" {
		dir = ResolvePath(root, c.dir)
	}
	return NewExecCommand(c.executable, c.arguments, dir)
}

// Record exports the command as a plain record.
func (c Command) Record() CommandRecord {
	return CommandRecord{
		Executable: c.executable,
		Arguments:  c.Arguments(),
		Dir:        c.dir,
	}
}

// CommandRecord is the serialized form of a Command.
// Older tree files use "command"/"args"; both spellings are accepted on read.
type CommandRecord struct {
	Executable string   `json:"executable" yaml:"executable"`
	Arguments  []string `json:"arguments" yaml:"arguments"`
	Dir        string   `json:"dir,omitempty" yaml:"dir,omitempty"`

	LegacyCommand string   `json:"command,omitempty" yaml:"command,omitempty"`
	LegacyArgs    []string `json:"args,omitempty" yaml:"args,omitempty"`
}

// CommandFromRecord reconstructs a Command from its plain record.
func CommandFromRecord(rec CommandRecord) Command {
	exe := rec.Executable
	if exe == "" {
		exe = rec.LegacyCommand
	}
	args := rec.Arguments
	if len(args) == 0 {
		args = rec.LegacyArgs
	}
	return NewCommand(exe, args...).WithDir(rec.Dir)
}
