package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// MaxAttempts is how many invalid answers a prompt accepts before giving up.
const MaxAttempts = 3

// Prompt errors.
var (
	ErrTooManyAttempts = errors.New("too many invalid answers")
	ErrInvalidAmount   = errors.New("enter a positive number")
)

// Prompter asks questions on a terminal. Answers are read line by line so
// it works the same with piped input.
type Prompter struct {
	writer io.Writer
	reader *NonBlockingReader
	// passwordFD is the terminal to read hidden input from, or -1.
	passwordFD int
}

// NewPrompter creates a prompter reading from in and writing to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	p := &Prompter{
		reader:     NewNonBlockingReader(in),
		writer:     out,
		passwordFD: -1,
	}
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.passwordFD = int(f.Fd())
	}
	return p
}

// Writer returns the output the prompter writes to.
func (p *Prompter) Writer() io.Writer {
	return p.writer
}

// Println writes a line of output.
func (p *Prompter) Println(a ...any) error {
	_, err := fmt.Fprintln(p.writer, a...)
	return err
}

// Ask prints question and returns the trimmed answer.
func (p *Prompter) Ask(ctx context.Context, question string) (string, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(question)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	return p.reader.ReadLine(ctx)
}

// AskDefault is Ask with a value used for a blank answer.
func (p *Prompter) AskDefault(ctx context.Context, question, def string) (string, error) {
	if def != "" {
		question += " " + SubtleStyle.Render("["+def+"]")
	}
	answer, err := p.Ask(ctx, question)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return def, nil
	}
	return answer, nil
}

// AskAmount asks for a positive number, re-prompting on invalid input.
func (p *Prompter) AskAmount(ctx context.Context, question string) (float64, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		answer, err := p.Ask(ctx, question)
		if err != nil {
			return 0, err
		}
		amount, err := ParseAmount(answer)
		if err == nil {
			return amount, nil
		}
		if werr := p.Println(FormatError(err.Error())); werr != nil {
			return 0, werr
		}
	}
	return 0, ErrTooManyAttempts
}

// AskOptionalAmount is AskAmount where a blank answer returns nil.
func (p *Prompter) AskOptionalAmount(ctx context.Context, question string) (*float64, error) {
	question += " " + SubtleStyle.Render("(optional)")
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		answer, err := p.Ask(ctx, question)
		if err != nil {
			return nil, err
		}
		if answer == "" {
			return nil, nil
		}
		amount, err := ParseAmount(answer)
		if err == nil {
			return &amount, nil
		}
		if werr := p.Println(FormatError(err.Error())); werr != nil {
			return nil, werr
		}
	}
	return nil, ErrTooManyAttempts
}

// Choose lists options and returns the index picked. The answer may be the
// option number or the option text.
func (p *Prompter) Choose(ctx context.Context, question string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, errors.New("no options to choose from")
	}

	if err := p.Println(BoldStyle.Render(question)); err != nil {
		return 0, err
	}
	for i, opt := range options {
		if _, err := fmt.Fprintf(p.writer, "  [%d] %s\n", i+1, opt); err != nil {
			return 0, fmt.Errorf("failed to write option: %w", err)
		}
	}

	for attempt := 0; attempt < MaxAttempts; attempt++ {
		answer, err := p.Ask(ctx, "Choice")
		if err != nil {
			return 0, err
		}
		if idx, ok := matchOption(answer, options); ok {
			return idx, nil
		}
		if werr := p.Println(FormatError(fmt.Sprintf("Pick a number between 1 and %d", len(options)))); werr != nil {
			return 0, werr
		}
	}
	return 0, ErrTooManyAttempts
}

func matchOption(answer string, options []string) (int, bool) {
	if n, err := strconv.Atoi(answer); err == nil {
		if n >= 1 && n <= len(options) {
			return n - 1, true
		}
		return 0, false
	}
	for i, opt := range options {
		if answer != "" && strings.EqualFold(answer, opt) {
			return i, true
		}
	}
	return 0, false
}

// Confirm asks a yes/no question. A blank answer returns def.
func (p *Prompter) Confirm(ctx context.Context, question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		answer, err := p.Ask(ctx, question+" "+SubtleStyle.Render(hint))
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return def, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		if werr := p.Println(FormatError("Answer yes or no")); werr != nil {
			return false, werr
		}
	}
	return false, ErrTooManyAttempts
}

// AskPassword reads a secret without echo when input is a terminal.
func (p *Prompter) AskPassword(ctx context.Context, question string) (string, error) {
	if p.passwordFD < 0 {
		return p.Ask(ctx, question)
	}

	if _, err := fmt.Fprint(p.writer, FormatPrompt(question)); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", ErrInputCancelled
	}
	secret, err := term.ReadPassword(p.passwordFD)
	if _, werr := fmt.Fprintln(p.writer); werr != nil {
		return "", werr
	}
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}

// ParseAmount reads a money amount. A currency sign, spaces and thousands
// separators are ignored; a lone comma with two decimals is a decimal comma.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "€$£")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, ErrInvalidAmount
	}

	if strings.Contains(s, ",") {
		if !strings.Contains(s, ".") && strings.Count(s, ",") == 1 && len(s)-strings.Index(s, ",") == 3 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	return v, nil
}
