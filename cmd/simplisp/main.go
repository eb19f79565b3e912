// This file is part of simplisp.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command simplisp is the REPL/CLI driver around the arena/reader/eval
// core: one flag-configured process that reads a line, parses one
// s-expression, evaluates it, prints the result, and repeats.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/dcbl47/simplisp/arena"
	"github.com/dcbl47/simplisp/eval"
	"github.com/dcbl47/simplisp/internal/diag"
	"github.com/dcbl47/simplisp/reader"
)

func atExit(rep *diag.Reporter, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "\n%v\n", err)
	os.Exit(1)
}

func main() {
	cells := flag.Int("cells", 1000000, "arena capacity in cells")
	gcThreshold := flag.Float64("gc-threshold", 0.80, "fraction of capacity that triggers a collection")
	tokenMax := flag.Int("token-max", 100, "maximum token length")
	lineMax := flag.Int("line-max", 180, "maximum input line length")
	loadFile := flag.String("load", "", "load and evaluate `filename` before starting the REPL")
	flag.Parse()

	rep := diag.New(os.Stdout)
	a := arena.New(*cells, *gcThreshold)
	a.SetDiagnostics(rep.Func())
	ev := eval.New(a, os.Stdout, rep)

	var err error
	defer func() { atExit(rep, err) }()

	if *loadFile != "" {
		f, ferr := os.Open(*loadFile)
		if ferr != nil {
			err = errors.Wrapf(ferr, "load %s", *loadFile)
			return
		}
		rd := reader.NewFileReader(a, f, reader.WithTokenMax(*tokenMax), reader.WithDiagnostics(rep.Report))
		for {
			form, ok, perr := rd.Parse()
			if perr != nil {
				f.Close()
				err = errors.Wrap(perr, "load")
				return
			}
			if !ok {
				break
			}
			topEnv, everr := ev.TopEnv()
			if everr == nil {
				_, everr = ev.Eval(form, topEnv, 0)
			}
			if everr != nil {
				f.Close()
				err = everr
				return
			}
		}
		f.Close()
	}

	err = repl(a, ev, rep, *tokenMax, *lineMax)
}

func repl(a *arena.Arena, ev *eval.Evaluator, rep *diag.Reporter, tokenMax, lineMax int) error {
	in := bufio.NewScanner(os.Stdin)
	last := arena.Addr(arena.Nil)
	for {
		fmt.Printf("%d%% > ", a.UsedPercent())
		if !in.Scan() {
			if serr := in.Err(); serr != nil {
				return errors.Wrap(serr, "repl: reading stdin")
			}
			return nil
		}
		line := in.Text()
		if len(line) > lineMax {
			rep.Report("input line truncated to %d characters", lineMax)
			line = line[:lineMax]
		}
		switch line {
		case "":
			continue
		case "+":
			fmt.Println(ev.Print(last))
			continue
		case "?":
			printHelp()
			continue
		}

		rd := reader.NewLineReader(a, line, reader.WithTokenMax(tokenMax), reader.WithDiagnostics(rep.Report))
		for {
			form, ok, perr := rd.Parse()
			if perr != nil {
				if errors.Cause(perr) == io.EOF {
					break
				}
				return errors.Wrap(perr, "repl: parse")
			}
			if !ok {
				break
			}
			topEnv, everr := ev.TopEnv()
			if everr != nil {
				return everr
			}
			result, everr := ev.Eval(form, topEnv, 0)
			if everr != nil {
				return everr
			}
			last = result
			fmt.Println(ev.Print(result))
		}
	}
}

func printHelp() {
	fmt.Println("simplisp: a small cell-arena Lisp")
	fmt.Println("  +  print the last result")
	fmt.Println("  ?  print this message")
	fmt.Println("  Ctrl-D  exit")
}
