// Copyright (C) The Rsassoc Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package rsassoc

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var version = "development"

type cmdHandler interface {
	RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int
}

var handlers = map[string]cmdHandler{
	"version":   versioncmd{},
	"-version":  versioncmd{},
	"--version": versioncmd{},

	"assoc":     &assoccmd{},
	"stability": &stabilitycmd{},
	"summarize": &summarizecmd{},
}

func Main() {
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		logrus.StandardLogger().Formatter = &logrus.TextFormatter{DisableTimestamp: true}
	}
	os.Exit(RunCommand(os.Args[0], os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		fmt.Fprintf(stderr, "usage: %s <command> [options]\n\ncommands:\n", prog)
		var names []string
		for name := range handlers {
			if name[0] != '-' {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(stderr, "  %s\n", name)
		}
		return 2
	}
	handler, ok := handlers[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "%s: unrecognized command %q\n", prog, args[0])
		return 2
	}
	return handler.RunCommand(prog+" "+args[0], args[1:], stdin, stdout, stderr)
}

type versioncmd struct{}

func (versioncmd) RunCommand(prog string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fmt.Fprintf(stdout, "rsassoc %s\n", version)
	return 0
}
