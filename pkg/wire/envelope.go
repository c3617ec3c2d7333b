package wire

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Envelope is the three-field header every forwarded command carries:
// the credentials of the requesting user and the command line itself.
type Envelope struct {
	User string
	Pass string
	Cmd  string
}

// Encode renders the envelope in wire order.
func (e Envelope) Encode() string {
	return fmt.Sprintf("USER:%s\nPASS:%s\nCMD:%s\n", e.User, e.Pass, e.Cmd)
}

// AuthRequest is the initial credential check a client performs before
// issuing commands.
type AuthRequest struct {
	User string
	Pass string
}

// Encode renders the authentication request.
func (a AuthRequest) Encode() string {
	return fmt.Sprintf("TYPE:AUTH\nUSER:%s\nPASS:%s\n", a.User, a.Pass)
}

// Registration is the storage server announcement sent to the name server
// on startup. ClientPort may be the base port as a placeholder, in which
// case the name server rewrites it to base+id after assigning the id.
type Registration struct {
	IP         string
	NMPort     int
	ClientPort int
	Files      []string
}

// Encode renders the registration message, END-terminated.
func (r Registration) Encode() string {
	var b strings.Builder
	b.WriteString("TYPE:REGISTER_SS\n")
	fmt.Fprintf(&b, "IP:%s\n", r.IP)
	fmt.Fprintf(&b, "NM_PORT:%d\n", r.NMPort)
	fmt.Fprintf(&b, "CLIENT_PORT:%d\n", r.ClientPort)
	fmt.Fprintf(&b, "FILES:%s\n", strings.Join(r.Files, ","))
	b.WriteString("END\n")
	return b.String()
}

// Kind discriminates the request forms a name server connection can open
// with.
type Kind int

const (
	KindAuth Kind = iota
	KindRegister
	KindCommand
	KindLocate
)

// Request is the first message read from a connection.
type Request struct {
	Kind         Kind
	Auth         *AuthRequest
	Registration *Registration
	Envelope     *Envelope
	LocateFile   string
}

// ReadRequest reads one request from r. The first line determines the
// form: TYPE:AUTH and TYPE:REGISTER_SS open control messages, USER: opens
// a command envelope, and a bare LOCATE line asks for an endpoint.
func ReadRequest(r *bufio.Reader) (*Request, error) {
	first, err := readLine(r)
	if err != nil {
		return nil, err
	}

	switch {
	case first == "TYPE:AUTH":
		auth, err := readAuth(r)
		if err != nil {
			return nil, err
		}
		return &Request{Kind: KindAuth, Auth: auth}, nil

	case first == "TYPE:REGISTER_SS":
		reg, err := readRegistration(r)
		if err != nil {
			return nil, err
		}
		return &Request{Kind: KindRegister, Registration: reg}, nil

	case strings.HasPrefix(first, "LOCATE "):
		name := strings.TrimSpace(strings.TrimPrefix(first, "LOCATE "))
		return &Request{Kind: KindLocate, LocateFile: name}, nil

	case strings.HasPrefix(first, "USER:"):
		env, err := readEnvelopeBody(r, strings.TrimPrefix(first, "USER:"))
		if err != nil {
			return nil, err
		}
		return &Request{Kind: KindCommand, Envelope: env}, nil

	default:
		return nil, fmt.Errorf("unrecognized request line %q", first)
	}
}

// ReadEnvelope reads a full command envelope. Storage servers use this to
// consume forwarded commands.
func ReadEnvelope(r *bufio.Reader) (*Envelope, error) {
	first, err := readLine(r)
	if err != nil {
		return nil, err
	}
	user, ok := strings.CutPrefix(first, "USER:")
	if !ok {
		return nil, fmt.Errorf("expected USER: line, got %q", first)
	}
	return readEnvelopeBody(r, user)
}

func readEnvelopeBody(r *bufio.Reader, user string) (*Envelope, error) {
	passLine, err := readLine(r)
	if err != nil {
		return nil, err
	}
	pass, ok := strings.CutPrefix(passLine, "PASS:")
	if !ok {
		return nil, fmt.Errorf("expected PASS: line, got %q", passLine)
	}

	cmdLine, err := readLine(r)
	if err != nil {
		return nil, err
	}
	cmd, ok := strings.CutPrefix(cmdLine, "CMD:")
	if !ok {
		return nil, fmt.Errorf("expected CMD: line, got %q", cmdLine)
	}

	return &Envelope{User: user, Pass: pass, Cmd: cmd}, nil
}

func readAuth(r *bufio.Reader) (*AuthRequest, error) {
	userLine, err := readLine(r)
	if err != nil {
		return nil, err
	}
	user, ok := strings.CutPrefix(userLine, "USER:")
	if !ok {
		return nil, fmt.Errorf("expected USER: line, got %q", userLine)
	}

	passLine, err := readLine(r)
	if err != nil {
		return nil, err
	}
	pass, ok := strings.CutPrefix(passLine, "PASS:")
	if !ok {
		return nil, fmt.Errorf("expected PASS: line, got %q", passLine)
	}

	return &AuthRequest{User: user, Pass: pass}, nil
}

func readRegistration(r *bufio.Reader) (*Registration, error) {
	reg := &Registration{}
	for {
		line, err := readLine(r)
		if err != nil {
			return nil, err
		}
		if line == "END" {
			return reg, nil
		}

		switch {
		case strings.HasPrefix(line, "IP:"):
			reg.IP = strings.TrimSpace(strings.TrimPrefix(line, "IP:"))
		case strings.HasPrefix(line, "NM_PORT:"):
			reg.NMPort, err = strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "NM_PORT:")))
			if err != nil {
				return nil, fmt.Errorf("malformed NM_PORT: %w", err)
			}
		case strings.HasPrefix(line, "CLIENT_PORT:"):
			reg.ClientPort, err = strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "CLIENT_PORT:")))
			if err != nil {
				return nil, fmt.Errorf("malformed CLIENT_PORT: %w", err)
			}
		case strings.HasPrefix(line, "FILES:"):
			reg.Files = splitFileList(strings.TrimPrefix(line, "FILES:"))
		default:
			// Unknown registration fields are skipped so the format can grow.
		}
	}
}

// splitFileList parses a comma-separated file list, tolerating a trailing
// comma and stray whitespace.
func splitFileList(csv string) []string {
	var files []string
	for _, f := range strings.Split(csv, ",") {
		f = strings.TrimSpace(f)
		if f != "" {
			files = append(files, f)
		}
	}
	return files
}

// readLine reads one newline-terminated line, trimming the terminator and
// any trailing carriage return. io.EOF with a non-empty remainder yields
// the remainder as a final line.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if err == io.EOF && line != "" {
			return strings.TrimRight(line, "\r\n"), nil
		}
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
