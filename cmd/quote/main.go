// Command quote prices one collateral message against a directory of lender
// documents and prints the broker reply.
//
//	quote [-dir ./data/banks] [-json] [-required 2억] [-refinance 1,2] [message.txt]
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"loanquote/internal/amount"
	"loanquote/internal/engine"
	"loanquote/internal/format"
	"loanquote/internal/parser"
	"loanquote/internal/repository"
)

type options struct {
	dir       string
	asJSON    bool
	required  string
	refinance string
	verbose   bool
	input     string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if opts.input == "" && term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "담보물건 정보를 붙여넣고 Ctrl-D로 입력을 마치세요.")
	}

	if err := run(ctx, opts, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "quote: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("quote", flag.ContinueOnError)
	defaultDir := os.Getenv("LENDER_CONFIG_DIR")
	if defaultDir == "" {
		defaultDir = "./data/banks"
	}
	fs.StringVar(&opts.dir, "dir", defaultDir, "lender document directory")
	fs.BoolVar(&opts.asJSON, "json", false, "print offer sets as JSON")
	fs.StringVar(&opts.required, "required", "", "required amount, e.g. 20000 or 2억")
	fs.StringVar(&opts.refinance, "refinance", "", "comma-separated lien priorities to refinance")
	fs.BoolVar(&opts.verbose, "v", false, "log evaluation details to stderr")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return opts, errors.New("at most one input file")
	}
	opts.input = fs.Arg(0)
	return opts, nil
}

func run(ctx context.Context, opts options, stdin io.Reader, stdout io.Writer) error {
	logger := zap.NewNop()
	if opts.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		logger = l
		defer logger.Sync()
	}

	text, err := readMessage(opts.input, stdin)
	if err != nil {
		return err
	}

	rec := parser.New(logger).Parse(text)

	priorities, err := parsePriorities(opts.refinance)
	if err != nil {
		return err
	}
	if len(priorities) > 0 {
		rec = rec.WithRefinance(priorities...)
	}
	if opts.required != "" {
		required := amount.ParseKoreanAmount(opts.required)
		if required == nil || !required.IsPositive() {
			return fmt.Errorf("invalid required amount %q", opts.required)
		}
		rec = rec.WithRequiredAmount(*required)
	}

	repo := repository.NewDirRepository(opts.dir, logger)
	sets, err := engine.New(logger).EvaluateAll(ctx, repo, rec)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	if opts.asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sets)
	}
	_, err = fmt.Fprintln(stdout, format.Results(sets))
	return err
}

func readMessage(path string, stdin io.Reader) (string, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read message: %w", err)
	}
	return string(data), nil
}

func parsePriorities(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		p, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || p < 1 {
			return nil, fmt.Errorf("invalid refinance priority %q", part)
		}
		out = append(out, p)
	}
	return out, nil
}
