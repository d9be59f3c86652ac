package sshx

import (
	"fmt"
	"strings"

	"github.com/antonkrylov/shellpane/internal/session"
)

// Commands that need a real terminal the pane does not provide. They are
// intercepted before dispatch and answered with a substituted notice.
var interactiveCommands = map[string]bool{
	"vim": true, "vi": true, "nano": true, "emacs": true,
	"htop": true, "top": true, "glances": true,
	"less": true, "more": true, "man": true, "lesspipe": true,
	"screen": true, "tmux": true, "byobu": true,
	"mc": true, "ranger": true, "ncdu": true,
	"watch": true, "dialog": true, "whiptail": true, "fzf": true,
}

// Commands whose arguments are usually paths; completion treats their last
// token as a path even without a slash.
var fileOperationCommands = map[string]bool{
	"cd": true, "ls": true, "cat": true, "less": true, "more": true,
	"head": true, "tail": true, "grep": true, "find": true,
	"rm": true, "rmdir": true, "mkdir": true, "touch": true,
	"cp": true, "mv": true, "chmod": true, "chown": true,
	"vi": true, "vim": true, "nano": true, "pwd": true,
	"open": true, "file": true, "stat": true, "readlink": true,
}

func isInteractiveCommand(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	return interactiveCommands[fields[0]]
}

func isFileOperationCommand(name string) bool {
	return fileOperationCommands[name]
}

// interactiveMessage builds the notice substituted for an interactive
// command. The first line carries session.WarningPrefix so the controller
// styles it as an error.
func interactiveMessage(name string) string {
	w := session.WarningPrefix
	switch name {
	case "vim", "vi":
		return w + " vim/vi is an interactive editor and this terminal cannot drive it.\n" +
			"Try instead:\n" +
			"  - view a file: cat <file> or head/tail\n" +
			"  - write a file: echo \"content\" > <file>\n" +
			"  - edit in place: sed -i 's/old/new/g' <file>"
	case "nano":
		return w + " nano is an interactive editor and this terminal cannot drive it.\n" +
			"Try instead:\n" +
			"  - view a file: cat <file>\n" +
			"  - write a file: echo \"content\" > <file>"
	case "htop", "top":
		return w + " htop/top is an interactive viewer and this terminal cannot drive it.\n" +
			"Try instead:\n" +
			"  - list processes: ps aux\n" +
			"  - top consumers: ps aux | head"
	case "less", "more":
		return w + " less/more is an interactive pager and this terminal cannot drive it.\n" +
			"Try instead:\n" +
			"  - print the file: cat <file>\n" +
			"  - print part of it: head/tail <file>"
	case "man":
		return w + " man is an interactive pager and this terminal cannot drive it.\n" +
			"Try instead:\n" +
			"  - man -P cat <command>\n" +
			"  - <command> --help"
	case "screen", "tmux", "byobu":
		return w + " screen/tmux/byobu is a terminal multiplexer and this terminal cannot host it.\n" +
			"Try instead:\n" +
			"  - run in the background: nohup <command> &"
	default:
		return fmt.Sprintf("%s %s is an interactive program and this terminal cannot drive it.", w, name)
	}
}
