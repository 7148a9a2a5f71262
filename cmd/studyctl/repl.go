package main

import (
	"bufio"
	"context"
	"io"

	"github.com/docopt/docopt-go"
	"github.com/mattn/go-shellwords"
)

const usage = `studyctl commands.

Usage:
  studyctl register <email> <name>
  studyctl login <email>
  studyctl logout
  studyctl whoami
  studyctl notes
  studyctl note <id>
  studyctl addnote <title> <content>
  studyctl editnote <id> <title> <content>
  studyctl rmnote <id>
  studyctl cards [--set=<set>]
  studyctl sets
  studyctl study <set>
  studyctl addcard <question> <answer> [--set=<set>]
  studyctl editcard <id> <question> <answer> [--set=<set>]
  studyctl rmcard <id>
  studyctl profile
  studyctl rename <name>
  studyctl passwd
  studyctl help
  studyctl (exit | quit)

Options:
  -h --help    Show this screen.
  --set=<set>  Study set title; cards without one belong to "Untitled".

Quote arguments that contain spaces: addnote "Cell biology" "Mitochondria make ATP".
`

// commands never exit the process on bad input.
var commands = &docopt.Parser{HelpHandler: docopt.NoHelpHandler}

// runREPL reads commands line by line until EOF, exit, or ctx is done.
func runREPL(ctx context.Context, a *app, in io.Reader) {
	sc := bufio.NewScanner(in)
	for ctx.Err() == nil {
		a.printf("%s", a.prompt())
		if !sc.Scan() {
			a.printf("\n")
			return
		}
		args, err := shellwords.Parse(sc.Text())
		if err != nil {
			a.printf("error: %v\n", err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		opts, err := commands.ParseArgs(usage, args, version)
		if err != nil {
			a.printf("unknown command or arguments: %q. Type 'help' for usage.\n", args[0])
			continue
		}
		if a.exec(ctx, opts) {
			a.printf("bye\n")
			return
		}
	}
}
