package resolver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"slices"
	"strconv"
	"strings"
)

// Client performs one TXT query. It returns the record payloads, or
// ErrNotFound when the name service reports that the name does not exist.
// Any other error is a transport failure.
type Client interface {
	Query(ctx context.Context, name string) ([]string, error)
}

// NetClient queries through a net.Resolver.
type NetClient struct {
	// Resolver is used for lookups (nil = net.DefaultResolver).
	Resolver *net.Resolver
}

// Query implements Client.
func (c *NetClient) Query(ctx context.Context, name string) ([]string, error) {
	r := c.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	records, err := r.LookupTXT(ctx, name)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return records, nil
}

// DefaultDigCommand is the executable DigClient runs when Command is empty.
const DefaultDigCommand = "dig"

// DefaultNotFoundExitCodes are used when DigClient.NotFoundExitCodes is nil.
var DefaultNotFoundExitCodes = []int{1}

// DigClient queries by running "dig +short TXT <name>".
//
// Exit status 0 with no answer lines means the name has no records and is
// reported as ErrNotFound, as is any exit status in NotFoundExitCodes.
// Any other non-zero exit is a transport failure.
type DigClient struct {
	// Command is the dig executable (default "dig").
	Command string

	// Server, when set, is passed as "@server".
	Server string

	// NotFoundExitCodes lists exit statuses that mean "no such name"
	// (nil = DefaultNotFoundExitCodes).
	NotFoundExitCodes []int
}

// Query implements Client.
func (c *DigClient) Query(ctx context.Context, name string) ([]string, error) {
	command := c.Command
	if command == "" {
		command = DefaultDigCommand
	}
	args := []string{"+short", "TXT", name}
	if c.Server != "" {
		args = append(args, "@"+c.Server)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && slices.Contains(c.notFoundExitCodes(), exitErr.ExitCode()) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w: %s", command, err, strings.TrimSpace(stderr.String()))
	}

	records, err := parseDigOutput(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return records, nil
}

func (c *DigClient) notFoundExitCodes() []int {
	if c.NotFoundExitCodes == nil {
		return DefaultNotFoundExitCodes
	}
	return c.NotFoundExitCodes
}

// parseDigOutput reads one record per line. A TXT record may be split into
// several quoted character-strings, which are concatenated.
func parseDigOutput(out []byte) ([]string, error) {
	var records []string
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		rec, err := unquoteTXT(line)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, sc.Err()
}

// unquoteTXT joins the quoted strings of one dig answer line. Lines without
// quotes are returned as is.
func unquoteTXT(line string) (string, error) {
	if !strings.HasPrefix(line, `"`) {
		return line, nil
	}

	var b strings.Builder
	for i := 0; i < len(line); {
		switch line[i] {
		case ' ', '\t':
			i++
			continue
		case '"':
		default:
			return "", fmt.Errorf("unexpected %q in TXT answer %q", line[i], line)
		}

		i++
		for {
			if i >= len(line) {
				return "", fmt.Errorf("unterminated string in TXT answer %q", line)
			}
			ch := line[i]
			if ch == '"' {
				i++
				break
			}
			if ch != '\\' {
				b.WriteByte(ch)
				i++
				continue
			}
			if i+1 >= len(line) {
				return "", fmt.Errorf("dangling escape in TXT answer %q", line)
			}
			if i+3 < len(line) && isDigit(line[i+1]) && isDigit(line[i+2]) && isDigit(line[i+3]) {
				v, err := strconv.Atoi(line[i+1 : i+4])
				if err != nil || v > 255 {
					return "", fmt.Errorf("bad escape in TXT answer %q", line)
				}
				b.WriteByte(byte(v))
				i += 4
				continue
			}
			b.WriteByte(line[i+1])
			i += 2
		}
	}
	return b.String(), nil
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
