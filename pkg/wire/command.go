package wire

import "strings"

// Command verbs understood by the name server router. Storage servers see
// the same verbs minus the control-plane ones (AUTH, LOCATE, EXEC, LIST).
const (
	VerbView            = "VIEW"
	VerbRead            = "READ"
	VerbCreate          = "CREATE"
	VerbDelete          = "DELETE"
	VerbWrite           = "WRITE"
	VerbInfo            = "INFO"
	VerbStream          = "STREAM"
	VerbExec            = "EXEC"
	VerbUndo            = "UNDO"
	VerbCheckpoint      = "CHECKPOINT"
	VerbViewCheckpoint  = "VIEWCHECKPOINT"
	VerbRevert          = "REVERT"
	VerbListCheckpoints = "LISTCHECKPOINTS"
	VerbAddAccess       = "ADDACCESS"
	VerbRemAccess       = "REMACCESS"
	VerbList            = "LIST"
	VerbLocate          = "LOCATE"
)

// Command is a parsed command line: the verb plus its whitespace-separated
// arguments. Raw preserves the original line for forwarding.
type Command struct {
	Verb string
	Args []string
	Raw  string
}

// ParseCommand splits a command line into verb and arguments. The verb is
// uppercased; arguments keep their case.
func ParseCommand(line string) Command {
	raw := strings.TrimSpace(line)
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return Command{Raw: raw}
	}
	return Command{
		Verb: strings.ToUpper(fields[0]),
		Args: fields[1:],
		Raw:  raw,
	}
}

// Arg returns the i-th argument or "" when absent.
func (c Command) Arg(i int) string {
	if i < 0 || i >= len(c.Args) {
		return ""
	}
	return c.Args[i]
}

// ViewFlags are the listing options VIEW accepts.
type ViewFlags struct {
	All  bool // -a: include files the user cannot access
	Long bool // -l: word/char counts, access time, owner
}

// ParseViewFlags interprets VIEW arguments. Combined forms -al and -la set
// both flags.
func ParseViewFlags(args []string) ViewFlags {
	var f ViewFlags
	for _, a := range args {
		switch a {
		case "-a":
			f.All = true
		case "-l":
			f.Long = true
		case "-al", "-la":
			f.All = true
			f.Long = true
		}
	}
	return f
}
