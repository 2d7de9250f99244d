package switchdriver

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/dellswitch/switchctl/internal/apperr"
	"github.com/dellswitch/switchctl/internal/logging"
	"github.com/dellswitch/switchctl/internal/switchdriver/parser"
	"github.com/dellswitch/switchctl/internal/switchnet"
)

// Timing defaults, overridable per Driver via DialOptions (§4 parsing
// contract and timeout budget).
const (
	DefaultHandshakeTimeout = 15 * time.Second
	DefaultCommandTimeout   = 10 * time.Second
	DefaultSessionTimeout   = 60 * time.Second
)

// Endpoint identifies one switch SSH target and the credential to present.
type Endpoint struct {
	Host     string
	Port     int
	Username string
	Password string
	// Family is the inventory's declared family. FamilyUnknown triggers the
	// auto-probe path in Dial; the driver itself does not restrict which
	// operations run afterwards (the VLAN change engine refuses to plan
	// writes for FamilyUnknown).
	Family Family
}

func (e Endpoint) address() string {
	port := e.Port
	if port == 0 {
		port = 22
	}
	return net.JoinHostPort(e.Host, strconv.Itoa(port))
}

// DialOptions overrides the default timeout budget; a zero value in any
// field keeps the default.
type DialOptions struct {
	HandshakeTimeout time.Duration
	CommandTimeout   time.Duration
	SessionTimeout   time.Duration
}

func (o DialOptions) withDefaults() DialOptions {
	if o.HandshakeTimeout == 0 {
		o.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if o.CommandTimeout == 0 {
		o.CommandTimeout = DefaultCommandTimeout
	}
	if o.SessionTimeout == 0 {
		o.SessionTimeout = DefaultSessionTimeout
	}
	return o
}

// Driver owns one SSH connection to one switch for the lifetime of a single
// operation (FindMAC, DescribePorts, or ApplyAccessVLAN). It is not reused
// across operations: the governor acquires a fresh Driver per call so that
// connection lifetime tracks lease lifetime exactly.
type Driver struct {
	endpoint Endpoint
	opts     DialOptions
	dialect  dialect

	client  *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	shell   *shellReader

	deadline time.Time
	log      *zap.Logger
}

// Dial opens the SSH connection, enters the CLI shell, disables paging, and
// resolves the dialect (auto-probing when endpoint.Family is FamilyUnknown).
// The handshake is retried once on a transport-level failure per the bounded
// retry policy; an auth rejection never retries.
func Dial(ctx context.Context, endpoint Endpoint, opts DialOptions) (*Driver, error) {
	opts = opts.withDefaults()
	log := logging.FromContext(ctx).With(zap.String("switch_host", endpoint.Host))

	d := &Driver{
		endpoint: endpoint,
		opts:     opts,
		deadline: time.Now().Add(opts.SessionTimeout),
		log:      log,
	}

	client, err := dialWithRetry(ctx, endpoint, opts.HandshakeTimeout)
	if err != nil {
		return nil, err
	}
	d.client = client

	if err := d.openShell(); err != nil {
		d.Close()
		return nil, err
	}

	if _, err := d.runRaw(ctx, ""); err != nil { // drain the login banner / MOTD
		d.Close()
		return nil, err
	}

	probeDialect := dialectFor(endpoint.Family)
	if probeDialect == nil {
		out, err := d.runRaw(ctx, "show version")
		if err != nil {
			d.Close()
			return nil, err
		}
		fam := detectFamily(out)
		if fam == FamilyUnknown {
			d.Close()
			return nil, apperr.New(apperr.Unsupported, "could not auto-detect switch family from \"show version\" output")
		}
		probeDialect = dialectFor(fam)
	}
	d.dialect = probeDialect

	if _, err := d.runRaw(ctx, d.dialect.disablePagingCommand()); err != nil {
		d.Close()
		return nil, err
	}

	return d, nil
}

// Family reports the resolved dialect family (useful after an auto-probe
// dial against FamilyUnknown).
func (d *Driver) Family() Family {
	return d.dialect.family()
}

func dialWithRetry(ctx context.Context, endpoint Endpoint, handshakeTimeout time.Duration) (*ssh.Client, error) {
	config := &ssh.ClientConfig{
		User:            endpoint.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(endpoint.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // closed management network, no CA available
		Timeout:         handshakeTimeout,
	}

	var client *ssh.Client
	attempt := func() error {
		dialCtx, cancel := context.WithTimeout(ctx, handshakeTimeout)
		defer cancel()
		c, err := sshDialContext(dialCtx, endpoint.address(), config)
		if err != nil {
			if isAuthError(err) {
				return backoff.Permanent(apperr.Wrap(apperr.AuthRejected, "switch rejected credentials", err))
			}
			return apperr.Wrap(apperr.Unreachable, "ssh handshake failed", err)
		}
		client = c
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1)
	// Retry unwraps a backoff.Permanent error and returns its cause directly,
	// so an AuthRejected apperr.Error comes back from Retry as-is.
	if err := backoff.Retry(attempt, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	return client, nil
}

func sshDialContext(ctx context.Context, addr string, config *ssh.ClientConfig) (*ssh.Client, error) {
	d := net.Dialer{Timeout: config.Timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		return nil, err
	}
	return ssh.NewClient(c, chans, reqs), nil
}

func isAuthError(err error) bool {
	return strings.Contains(err.Error(), "unable to authenticate") || strings.Contains(err.Error(), "authentication failed")
}

func (d *Driver) openShell() error {
	session, err := d.client.NewSession()
	if err != nil {
		return apperr.Wrap(apperr.Unreachable, "failed to open SSH session", err)
	}
	if err := session.RequestPty("vt100", 200, 512, ssh.TerminalModes{}); err != nil {
		session.Close()
		return apperr.Wrap(apperr.Unreachable, "failed to allocate pty", err)
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		return apperr.Wrap(apperr.Unreachable, "failed to open stdin pipe", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		return apperr.Wrap(apperr.Unreachable, "failed to open stdout pipe", err)
	}
	if err := session.Shell(); err != nil {
		session.Close()
		return apperr.Wrap(apperr.Unreachable, "failed to start shell", err)
	}

	d.session = session
	d.stdin = stdin
	d.shell = newShellReader(stdout)
	return nil
}

// runRaw writes cmd (skipped entirely when empty, to drain an initial
// banner) and waits for the device to return to its prompt, honoring both
// the per-command deadline and the total-session deadline.
func (d *Driver) runRaw(ctx context.Context, cmd string) (string, error) {
	if time.Now().After(d.deadline) {
		return "", apperr.New(apperr.Timeout, "switch session deadline exceeded")
	}

	cmdCtx, cancel := context.WithTimeout(ctx, d.opts.CommandTimeout)
	defer cancel()
	if until := time.Until(d.deadline); until < d.opts.CommandTimeout {
		var sessionCancel context.CancelFunc
		cmdCtx, sessionCancel = context.WithTimeout(ctx, until)
		defer sessionCancel()
	}

	if cmd != "" {
		if _, err := io.WriteString(d.stdin, cmd+"\n"); err != nil {
			return "", apperr.Wrap(apperr.Unreachable, "failed writing to switch session", err)
		}
	}

	out, err := d.shell.readUntilPrompt(cmdCtx)
	if err != nil {
		if cmdCtx.Err() != nil {
			return "", apperr.New(apperr.Timeout, fmt.Sprintf("timed out waiting for response to %q", cmd))
		}
		return "", apperr.Wrap(apperr.Unreachable, "switch session closed", err)
	}
	return stripEcho(out, cmd), nil
}

// run executes cmd through the resolved dialect's connection and returns its
// output with the command echo and trailing prompt line removed.
func (d *Driver) run(ctx context.Context, cmd string) (string, error) {
	out, err := d.runRaw(ctx, cmd)
	if err != nil {
		return "", err
	}
	lines := parser.SplitLines(out)
	for len(lines) > 0 {
		last := strings.TrimSpace(lines[len(lines)-1])
		if last != "" && !parser.IsPromptLine(last) {
			break
		}
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n"), nil
}

// stripEcho removes the echoed command line (the terminal echoes whatever
// was written to stdin) from the front of out.
func stripEcho(out, cmd string) string {
	lines := parser.SplitLines(out)
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == strings.TrimSpace(cmd) {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

// Close releases the underlying SSH session and connection. Safe to call
// multiple times.
func (d *Driver) Close() error {
	if d.session != nil {
		d.session.Close()
		d.session = nil
	}
	if d.client != nil {
		d.client.Close()
		d.client = nil
	}
	return nil
}

// FindMAC runs the MAC-address-table lookup for mac and returns the port it
// was learned on. ok is false (with a nil error) when the switch has no
// entry for mac.
func (d *Driver) FindMAC(ctx context.Context, mac switchnet.MAC) (ref switchnet.PortRef, ok bool, err error) {
	out, err := d.run(ctx, d.dialect.findMACCommand(mac))
	if err != nil {
		return switchnet.PortRef{}, false, err
	}
	ref, ok = parser.ParseMACTable(out)
	return ref, ok, nil
}

// DescribePorts runs "show running-config interface" for each ref and
// returns the parsed PortFacts in the same order. A ref the switch does not
// recognize yields a PortFacts with Mode ModeUnknown rather than an error.
func (d *Driver) DescribePorts(ctx context.Context, refs []switchnet.PortRef) ([]PortFacts, error) {
	facts := make([]PortFacts, 0, len(refs))
	for _, ref := range refs {
		out, err := d.run(ctx, d.dialect.describePortCommand(ref))
		if err != nil {
			return nil, err
		}
		facts = append(facts, d.toPortFacts(ref, out))
	}
	return facts, nil
}

func (d *Driver) toPortFacts(ref switchnet.PortRef, raw string) PortFacts {
	cfg := parser.ParseInterfaceBlock(parser.SplitLines(raw))

	facts := PortFacts{
		Ref:         ref,
		AdminUp:     cfg.AdminUp,
		LinkUp:      cfg.AdminUp, // no separate "show interfaces status" probe is modeled; link state tracks admin state
		Description: cfg.Description,
	}
	if !cfg.Recognized {
		facts.AdminUp, facts.LinkUp = false, false
	}

	switch cfg.Mode {
	case "access":
		facts.Mode = ModeAccess
		if v, err := switchnet.ParseVlanID(cfg.AccessVLAN); err == nil {
			facts.AccessVLAN = v
		}
	case "trunk":
		facts.Mode = ModeTrunk
	case "general":
		facts.Mode = ModeGeneral
	default:
		facts.Mode = ModeUnknown
	}
	for _, v := range cfg.AllowedVLAN {
		if parsed, err := switchnet.ParseVlanID(v); err == nil {
			facts.AllowedVLAN = append(facts.AllowedVLAN, parsed)
		}
	}

	facts.IsUplink = facts.Mode == ModeTrunk || facts.Mode == ModeGeneral ||
		isUplinkKind(ref.Kind) || ref.Kind == d.dialect.uplinkKind() ||
		descriptionLooksLikeUplink(cfg.Description)
	return facts
}

func descriptionLooksLikeUplink(desc string) bool {
	lower := strings.ToLower(desc)
	for _, kw := range uplinkKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// VLANExists probes whether vlan is configured on the switch.
func (d *Driver) VLANExists(ctx context.Context, vlan switchnet.VlanID) (bool, error) {
	out, err := d.run(ctx, d.dialect.vlanExistsCommand(vlan))
	if err != nil {
		return false, err
	}
	lower := strings.ToLower(out)
	if strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist") || strings.TrimSpace(out) == "" {
		return false, nil
	}
	return true, nil
}

// ApplyAccessVLAN enters config mode and runs the command blocks produced by
// BuildAccessVLANBlocks (shared, verbatim, with the preceding preview),
// returning to privileged exec on exit. A command the switch rejects
// (WriteRejected) is attributed to whichever of its block's ports the
// rejection output names individually — a multi-port "interface range"
// block processes its member ports one at a time internally, so a Dell CLI
// names the offending port in its error line even though the command was
// issued once for the whole range (§8 scenario 5: `Gi1/0/1-3` with only
// `Gi1/0/2` rejected must produce three distinct per-port outcomes, not one
// block-wide failure). When a rejection doesn't name any of the block's
// ports, every port in that block is conservatively marked failed, since
// there is no way to tell which of them actually went through. Execution
// continues with the next block either way, per §4.5's execute step 2. A
// transport-level error (timeout, connection loss) aborts the remaining
// blocks outright, since the shell's state can no longer be trusted; ports
// in blocks that never ran are left out of outcomes for the caller to mark
// failed. Persisting the result is a separate step (Save) so its failure
// can be surfaced as a warning rather than aborting an otherwise-successful
// apply.
func (d *Driver) ApplyAccessVLAN(ctx context.Context, blocks []CommandBlock) ([]Outcome, error) {
	outcomes := make([]Outcome, 0, len(blocks))

	if _, err := d.run(ctx, d.dialect.enterConfigCommand()); err != nil {
		return outcomes, err
	}

	for _, block := range blocks {
		blockOutcomes, err := d.runBlock(ctx, block)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, blockOutcomes...)
	}

	if _, err := d.run(ctx, "end"); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// Save persists the running configuration with the family's save command.
// Kept apart from ApplyAccessVLAN so a save failure can be reported as a
// warning on an otherwise-successful ChangeReceipt rather than as a hard
// execute failure.
func (d *Driver) Save(ctx context.Context) error {
	_, err := d.run(ctx, d.dialect.saveCommand())
	return err
}

// runBlock runs one command block's commands in order and attributes the
// result to each of the block's ports individually. Every port starts
// Applied; the first rejected command downgrades either the specific ports
// the switch's output names, or (if none are named) every port in the
// block, and execution of that block stops there — the rest of its
// commands would only compound an already-reported rejection.
func (d *Driver) runBlock(ctx context.Context, block CommandBlock) ([]Outcome, error) {
	outcomes := make([]Outcome, len(block.Refs))
	for i, ref := range block.Refs {
		outcomes[i] = Outcome{Ref: ref, Applied: true}
	}

	for _, cmd := range block.Commands {
		out, runErr := d.run(ctx, cmd)
		if runErr != nil {
			return nil, runErr
		}
		rejected, reason := commandRejected(out)
		if !rejected {
			continue
		}

		named := attributeRejection(out, block.Refs)
		if len(named) == 0 {
			named = block.Refs
		}
		for i := range outcomes {
			for _, ref := range named {
				if outcomes[i].Ref.Equal(ref) {
					outcomes[i] = Outcome{Ref: outcomes[i].Ref, Applied: false, Reason: reason}
				}
			}
		}
		break
	}
	return outcomes, nil
}

// rejectionMarkers are substrings Dell CLIs use to report a command was
// understood but refused (as opposed to a parse error on our side).
var rejectionMarkers = []string{"% invalid", "% incomplete", "command authorization failed", "error:"}

func commandRejected(out string) (bool, string) {
	lower := strings.ToLower(out)
	for _, marker := range rejectionMarkers {
		if strings.Contains(lower, marker) {
			return true, strings.TrimSpace(out)
		}
	}
	return false, ""
}

// attributeRejection scans a rejected command's output for lines naming one
// of refs, returning just those. A range command's rejection is attributed
// this way rather than to the whole block whenever the switch's output is
// specific enough to tell.
func attributeRejection(out string, refs []switchnet.PortRef) []switchnet.PortRef {
	var named []switchnet.PortRef
	for _, line := range parser.SplitLines(out) {
		lowerLine := strings.ToLower(line)
		isRejectionLine := false
		for _, marker := range rejectionMarkers {
			if strings.Contains(lowerLine, marker) {
				isRejectionLine = true
				break
			}
		}
		if !isRejectionLine {
			continue
		}
		for _, ref := range refs {
			if strings.Contains(line, ref.String()) && !containsRef(named, ref) {
				named = append(named, ref)
			}
		}
	}
	return named
}

func containsRef(refs []switchnet.PortRef, ref switchnet.PortRef) bool {
	for _, r := range refs {
		if r.Equal(ref) {
			return true
		}
	}
	return false
}

// shellReader accumulates bytes from an interactive SSH shell's stdout and
// lets the driver block until the device has returned to its command
// prompt, which is how Dell CLIs signal "done" with no structured framing.
type shellReader struct {
	mu   sync.Mutex
	cond *sync.Cond
	buf  strings.Builder
	err  error
}

func newShellReader(r io.Reader) *shellReader {
	sr := &shellReader{}
	sr.cond = sync.NewCond(&sr.mu)
	go sr.pump(r)
	return sr
}

func (sr *shellReader) pump(r io.Reader) {
	reader := bufio.NewReader(r)
	for {
		b, err := reader.ReadByte()
		sr.mu.Lock()
		if err != nil {
			sr.err = err
			sr.cond.Broadcast()
			sr.mu.Unlock()
			return
		}
		sr.buf.WriteByte(b)
		sr.cond.Broadcast()
		sr.mu.Unlock()
	}
}

// readUntilPrompt drains everything accumulated so far once a trailing
// prompt line appears, or returns an error once ctx is done or the
// underlying stream closes.
func (sr *shellReader) readUntilPrompt(ctx context.Context) (string, error) {
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		sr.mu.Lock()
		sr.cond.Broadcast()
		sr.mu.Unlock()
		close(done)
	}()

	sr.mu.Lock()
	defer sr.mu.Unlock()
	for {
		current := sr.buf.String()
		if endsInPrompt(current) {
			sr.buf.Reset()
			select {
			case <-done:
			default:
			}
			return current, nil
		}
		if sr.err != nil {
			return current, sr.err
		}
		if ctx.Err() != nil {
			return current, ctx.Err()
		}
		sr.cond.Wait()
	}
}

func endsInPrompt(buf string) bool {
	lines := strings.Split(strings.ReplaceAll(buf, "\r\n", "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			continue
		}
		return parser.IsPromptLine(trimmed) || parser.IsPagerPrompt(trimmed)
	}
	return false
}
